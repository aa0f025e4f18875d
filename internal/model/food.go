package model

import (
	"strings"
	"time"
)

// Category is the closed set of food categories. Anything the importer cannot
// recognize resolves to CategoryOther.
type Category string

const (
	CategoryProtein    Category = "protein"
	CategoryCarbs      Category = "carbs"
	CategoryFat        Category = "fat"
	CategoryVegetable  Category = "vegetable"
	CategoryFruit      Category = "fruit"
	CategoryDairy      Category = "dairy"
	CategoryBeverage   Category = "beverage"
	CategorySnack      Category = "snack"
	CategorySupplement Category = "supplement"
	CategoryOther      Category = "other"
)

// Categories lists every valid category value.
var Categories = []Category{
	CategoryProtein,
	CategoryCarbs,
	CategoryFat,
	CategoryVegetable,
	CategoryFruit,
	CategoryDairy,
	CategoryBeverage,
	CategorySnack,
	CategorySupplement,
	CategoryOther,
}

// IsValidCategory reports whether c is a member of the closed category set.
func IsValidCategory(c Category) bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// FoodRecord is a normalized nutrition row ready for persistence. Name is the
// dedup key, compared case-insensitively after trimming.
type FoodRecord struct {
	Name        string    `bson:"name" json:"name"`
	NameLC      string    `bson:"name_lc" json:"-"`
	Category    Category  `bson:"category" json:"category"`
	ServingSize float64   `bson:"serving_size" json:"servingSize"`
	ServingUnit string    `bson:"serving_unit" json:"servingUnit"`
	Calories    float64   `bson:"calories" json:"calories"`
	Protein     float64   `bson:"protein" json:"protein"`
	Carbs       float64   `bson:"carbs" json:"carbs"`
	Fat         float64   `bson:"fat" json:"fat"`
	Fiber       float64   `bson:"fiber" json:"fiber"`
	Sugar       float64   `bson:"sugar" json:"sugar"`
	Sodium      float64   `bson:"sodium" json:"sodium"`
	Cholesterol float64   `bson:"cholesterol" json:"cholesterol"`
	Brand       string    `bson:"brand,omitempty" json:"brand,omitempty"`
	Tags        []string  `bson:"tags" json:"tags"`
	IsPublic    bool      `bson:"is_public" json:"isPublic"`
	ImportedAt  time.Time `bson:"imported_at,omitempty" json:"importedAt,omitempty"`
}

// FoldName normalizes a food name for duplicate comparison.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
