package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pantry/internal/model"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected model.Category
	}{
		// Exact category names pass through.
		{"protein", model.CategoryProtein},
		{"Dairy", model.CategoryDairy},
		{"  other  ", model.CategoryOther},

		// Keyword mapping.
		{"Chicken breast, grilled", model.CategoryProtein},
		{"Whole milk", model.CategoryDairy},
		{"Orange juice", model.CategoryBeverage},
		{"Potato chips", model.CategorySnack},
		{"Strawberries, raw", model.CategoryFruit},
		{"Broccoli, steamed", model.CategoryVegetable},
		{"White rice, cooked", model.CategoryCarbs},
		{"Olive oil", model.CategoryFat},
		{"Whey isolate", model.CategorySupplement},

		// Narrow groups win over broad ones.
		{"Cheeseburger", model.CategoryDairy},
		{"Protein shake", model.CategoryBeverage},
		{"Chocolate protein bar", model.CategorySnack},

		// Unknown and empty inputs fall back.
		{"", model.CategoryOther},
		{"miscellaneous item", model.CategoryOther},
		{"????", model.CategoryOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeCategory(tt.input), "input %q", tt.input)
	}
}

func TestNormalizeCategoryAlwaysValid(t *testing.T) {
	inputs := []string{"", "  ", "garbage", "12345", "protein", "Frozen pizza", "\t\n"}
	for _, in := range inputs {
		c := NormalizeCategory(in)
		assert.True(t, model.IsValidCategory(c), "input %q produced %q", in, c)
	}
}
