package importer

import (
	"strings"

	"pantry/internal/model"
)

type keywordGroup struct {
	category model.Category
	keywords []string
}

// categoryGroups is the canonical keyword table. Matching is substring
// containment and the first matching group wins, so the order is part of the
// contract: narrow groups (supplement, dairy, beverage, snack) are tested
// before the broad macro groups so that e.g. "cheeseburger" resolves to dairy
// and "protein shake" to beverage rather than protein.
var categoryGroups = []keywordGroup{
	{model.CategorySupplement, []string{"supplement", "vitamin", "creatine", "whey"}},
	{model.CategoryDairy, []string{"milk", "cheese", "yogurt", "yoghurt", "cream", "dairy"}},
	{model.CategoryBeverage, []string{"juice", "soda", "drink", "shake", "coffee", "tea", "beverage"}},
	{model.CategorySnack, []string{"chip", "cracker", "cookie", "biscuit", "candy", "chocolate", "snack"}},
	{model.CategoryFruit, []string{"apple", "banana", "orange", "berr", "grape", "melon", "fruit"}},
	{model.CategoryVegetable, []string{"vegetable", "carrot", "broccoli", "spinach", "lettuce", "tomato", "onion", "pepper"}},
	{model.CategoryProtein, []string{"meat", "chicken", "beef", "pork", "lamb", "fish", "salmon", "tuna", "egg", "legume", "bean", "lentil", "tofu", "protein"}},
	{model.CategoryCarbs, []string{"bread", "rice", "pasta", "grain", "cereal", "oat", "potato", "flour", "carb"}},
	{model.CategoryFat, []string{"oil", "butter", "margarine", "nut", "seed", "avocado"}},
}

// NormalizeCategory maps a free-text category or description string onto the
// closed category set. It is total: any input, including the empty string,
// yields a valid category, falling back to CategoryOther.
func NormalizeCategory(raw string) model.Category {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return model.CategoryOther
	}

	// Exact category names short-circuit the keyword heuristics.
	if model.IsValidCategory(model.Category(text)) {
		return model.Category(text)
	}

	for _, group := range categoryGroups {
		for _, kw := range group.keywords {
			if strings.Contains(text, kw) {
				return group.category
			}
		}
	}

	return model.CategoryOther
}
