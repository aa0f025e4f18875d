package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pantry/internal/model"
)

func rec(name string) *model.FoodRecord {
	return &model.FoodRecord{Name: name, NameLC: model.FoldName(name)}
}

func TestDedupe(t *testing.T) {
	existing := FoldNames([]string{"Banana", "oatmeal"})
	candidates := []*model.FoodRecord{
		rec("Apple"),
		rec("banana"),
		rec("Oatmeal"),
		rec("Eggs"),
	}

	toInsert, skipped := Dedupe(existing, candidates)

	assert.Len(t, toInsert, 2)
	assert.Equal(t, "Apple", toInsert[0].Name)
	assert.Equal(t, "Eggs", toInsert[1].Name)
	assert.Len(t, skipped, 2)
}

func TestDedupeWithinFile(t *testing.T) {
	candidates := []*model.FoodRecord{
		rec("Apple"),
		rec("APPLE"),
		rec("apple "),
	}

	toInsert, skipped := Dedupe(nil, candidates)

	assert.Len(t, toInsert, 1)
	assert.Equal(t, "Apple", toInsert[0].Name)
	assert.Len(t, skipped, 2)
}

func TestDedupeEmpty(t *testing.T) {
	toInsert, skipped := Dedupe(FoldNames(nil), nil)
	assert.Empty(t, toInsert)
	assert.Empty(t, skipped)
}
