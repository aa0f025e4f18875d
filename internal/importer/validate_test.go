package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry/internal/model"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"165", 165, true},
		{"16.5", 16.5, true},
		{"-3", -3, true},
		{" 42 ", 42, true},
		{"1,250", 1250, true},
		{"165 kcal", 165, true},
		{"31g", 31, true},
		{"12 %", 12, true},
		{"", 0, false},
		{"abc", 0, false},
		{"12.3.4", 0, false},
		{"n/a", 0, false},
	}

	for _, tt := range tests {
		v, ok := parseNumber(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		if tt.ok {
			assert.Equal(t, tt.expected, v, "input %q", tt.input)
		}
	}
}

func TestValidateRowDefaults(t *testing.T) {
	row := RawRow{
		FieldName:     "Chicken breast",
		FieldCalories: "165",
	}

	rec, issues := ValidateRow(row, 2)
	require.Empty(t, issues)
	require.NotNil(t, rec)

	assert.Equal(t, "Chicken breast", rec.Name)
	assert.Equal(t, "chicken breast", rec.NameLC)
	assert.Equal(t, model.CategoryOther, rec.Category)
	assert.Equal(t, 100.0, rec.ServingSize)
	assert.Equal(t, "g", rec.ServingUnit)
	assert.Equal(t, 165.0, rec.Calories)
	assert.Equal(t, 0.0, rec.Protein)
	assert.True(t, rec.IsPublic)
	assert.Empty(t, rec.Tags)
}

func TestValidateRowFullRecord(t *testing.T) {
	row := RawRow{
		FieldName:        "Greek Yogurt",
		FieldCategory:    "dairy",
		FieldServingSize: "170",
		FieldServingUnit: "g",
		FieldCalories:    "100",
		FieldProtein:     "17",
		FieldCarbs:       "6",
		FieldFat:         "0.7",
		FieldBrand:       "Fage",
		FieldTags:        "breakfast, high-protein",
		FieldIsPublic:    "no",
	}

	rec, issues := ValidateRow(row, 5)
	require.Empty(t, issues)

	assert.Equal(t, model.CategoryDairy, rec.Category)
	assert.Equal(t, 170.0, rec.ServingSize)
	assert.Equal(t, 17.0, rec.Protein)
	assert.Equal(t, "Fage", rec.Brand)
	assert.Equal(t, []string{"breakfast", "high-protein"}, rec.Tags)
	assert.False(t, rec.IsPublic)
}

func TestValidateRowMissingName(t *testing.T) {
	rec, issues := ValidateRow(RawRow{FieldCalories: "100"}, 3)

	assert.Nil(t, rec)
	require.Len(t, issues, 1)
	assert.Equal(t, 3, issues[0].Row)
	assert.Equal(t, FieldName, issues[0].Field)
}

func TestValidateRowMissingCalories(t *testing.T) {
	rec, issues := ValidateRow(RawRow{FieldName: "Mystery food"}, 4)

	assert.Nil(t, rec)
	require.Len(t, issues, 1)
	assert.Equal(t, FieldCalories, issues[0].Field)
}

func TestValidateRowEnergyFallback(t *testing.T) {
	rec, issues := ValidateRow(RawRow{
		FieldName:   "Apple, raw",
		FieldEnergy: "2000",
	}, 2)
	require.Empty(t, issues)
	assert.InDelta(t, 477.9, rec.Calories, 0.1)

	// Small energy values are already kcal.
	rec, issues = ValidateRow(RawRow{
		FieldName:   "Celery",
		FieldEnergy: "50",
	}, 3)
	require.Empty(t, issues)
	assert.Equal(t, 50.0, rec.Calories)
}

func TestValidateRowCaloriesWinOverEnergy(t *testing.T) {
	rec, issues := ValidateRow(RawRow{
		FieldName:     "Bread",
		FieldCalories: "250",
		FieldEnergy:   "1046",
	}, 2)
	require.Empty(t, issues)
	assert.Equal(t, 250.0, rec.Calories)
}

func TestValidateRowUnparsableOptionalFails(t *testing.T) {
	// Present but unparsable optional fields are errors, not defaults.
	rec, issues := ValidateRow(RawRow{
		FieldName:     "Bad row",
		FieldCalories: "100",
		FieldProtein:  "lots",
	}, 7)

	assert.Nil(t, rec)
	require.Len(t, issues, 1)
	assert.Equal(t, FieldProtein, issues[0].Field)
}

func TestValidateRowNegativeValues(t *testing.T) {
	rec, issues := ValidateRow(RawRow{
		FieldName:     "Impossible food",
		FieldCalories: "-10",
		FieldFat:      "-1",
	}, 2)

	assert.Nil(t, rec)
	assert.Len(t, issues, 2)
}

func TestValidateRowCollectsAllIssues(t *testing.T) {
	_, issues := ValidateRow(RawRow{
		FieldServingSize: "zero",
		FieldProtein:     "??",
	}, 9)

	// Missing name, missing calories, bad serving size, bad protein.
	assert.Len(t, issues, 4)
	for _, issue := range issues {
		assert.Equal(t, 9, issue.Row)
	}
}

func TestBuildRawRow(t *testing.T) {
	m := emptyColumnMap()
	m.Name = 0
	m.Calories = 1
	m.Protein = 2

	row := BuildRawRow([]string{" Apple ", "52", ""}, m)

	assert.Equal(t, "Apple", row[FieldName])
	assert.Equal(t, "52", row[FieldCalories])
	_, ok := row[FieldProtein]
	assert.False(t, ok, "empty cell must read as absent")

	// Short rows are normal: excelize trims trailing empty cells.
	short := BuildRawRow([]string{"Apple"}, m)
	assert.Equal(t, "Apple", short[FieldName])
	_, ok = short[FieldCalories]
	assert.False(t, ok)

	assert.True(t, BuildRawRow(nil, m).IsEmpty())
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseTags("a, b"))
	assert.Equal(t, []string{"solo"}, ParseTags("solo"))
	assert.Empty(t, ParseTags(""))
	assert.Empty(t, ParseTags(" , , "))
}

func TestParseBool(t *testing.T) {
	assert.False(t, parseBool("false"))
	assert.False(t, parseBool("No"))
	assert.False(t, parseBool("0"))
	assert.True(t, parseBool("true"))
	assert.True(t, parseBool("yes"))
	assert.True(t, parseBool("anything"))
}
