package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"pantry/internal/model"
)

// RawRow is the untyped shape of one spreadsheet row before validation: cell
// text keyed by semantic field name. Keeping the untyped boundary this narrow
// means everything past ValidateRow works with typed FoodRecords only.
type RawRow map[string]string

// Canonical RawRow keys.
const (
	FieldName        = "name"
	FieldCategory    = "category"
	FieldServingSize = "servingSize"
	FieldServingUnit = "servingUnit"
	FieldCalories    = "calories"
	FieldEnergy      = "energy"
	FieldProtein     = "protein"
	FieldCarbs       = "carbs"
	FieldFat         = "fat"
	FieldFiber       = "fiber"
	FieldSugar       = "sugar"
	FieldSodium      = "sodium"
	FieldCholesterol = "cholesterol"
	FieldBrand       = "brand"
	FieldTags        = "tags"
	FieldIsPublic    = "isPublic"
)

// BuildRawRow projects one sheet row onto a RawRow using the column map.
// Cells beyond the row's length read as absent; excelize trims trailing empty
// cells so short rows are normal.
func BuildRawRow(cells []string, m ColumnMap) RawRow {
	row := RawRow{}
	pick := func(field string, idx int) {
		if idx >= 0 && idx < len(cells) {
			if v := strings.TrimSpace(cells[idx]); v != "" {
				row[field] = v
			}
		}
	}

	pick(FieldName, m.Name)
	pick(FieldCategory, m.Category)
	pick(FieldServingSize, m.ServingSize)
	pick(FieldServingUnit, m.ServingUnit)
	pick(FieldCalories, m.Calories)
	pick(FieldEnergy, m.Energy)
	pick(FieldProtein, m.Protein)
	pick(FieldCarbs, m.Carbs)
	pick(FieldFat, m.Fat)
	pick(FieldFiber, m.Fiber)
	pick(FieldSugar, m.Sugar)
	pick(FieldSodium, m.Sodium)
	pick(FieldCholesterol, m.Cholesterol)
	pick(FieldBrand, m.Brand)
	pick(FieldTags, m.Tags)
	pick(FieldIsPublic, m.IsPublic)

	return row
}

// IsEmpty reports whether the row carries no values at all. Fully blank rows
// are skipped silently rather than counted as errors.
func (r RawRow) IsEmpty() bool {
	return len(r) == 0
}

var numberPrefix = regexp.MustCompile(`^-?\d+(?:\.\d+)?`)

// parseNumber coerces spreadsheet cell text to a float. It tolerates the
// noise real exports contain: thousands separators, surrounding whitespace
// and trailing unit suffixes ("165 kcal", "31g", "12 %").
func parseNumber(raw string) (float64, bool) {
	clean := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	num := numberPrefix.FindString(clean)
	if num == "" {
		return 0, false
	}

	for _, r := range clean[len(num):] {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) && r != '%' {
			return 0, false
		}
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ValidateRow coerces one raw row into a FoodRecord or a list of issues.
// Issues are collected rather than returned on first failure so the caller can
// report everything wrong with a row at once and move on to the next one.
//
// Numeric policy, applied uniformly: a field that is present but does not
// parse to a number is a validation error; only an absent optional field takes
// its default.
func ValidateRow(row RawRow, line int) (*model.FoodRecord, []model.RowIssue) {
	var issues []model.RowIssue
	fail := func(field, reason string) {
		issues = append(issues, model.RowIssue{Row: line, Field: field, Reason: reason})
	}

	name := strings.TrimSpace(row[FieldName])
	if name == "" {
		fail(FieldName, "food name is required")
	}

	rec := &model.FoodRecord{
		Name:        name,
		NameLC:      model.FoldName(name),
		Category:    NormalizeCategory(row[FieldCategory]),
		ServingSize: 100,
		ServingUnit: "g",
		IsPublic:    true,
	}

	if raw, ok := row[FieldServingSize]; ok {
		v, parsed := parseNumber(raw)
		switch {
		case !parsed:
			fail(FieldServingSize, fmt.Sprintf("not a number: %q", raw))
		case v <= 0:
			fail(FieldServingSize, "serving size must be positive")
		default:
			rec.ServingSize = v
		}
	}
	if raw, ok := row[FieldServingUnit]; ok {
		rec.ServingUnit = raw
	}

	// Calories is the one required nutrient. Sheets without a calorie column
	// carry energy instead, which the unit heuristic converts to kcal.
	switch {
	case row[FieldCalories] != "":
		v, parsed := parseNumber(row[FieldCalories])
		switch {
		case !parsed:
			fail(FieldCalories, fmt.Sprintf("not a number: %q", row[FieldCalories]))
		case v < 0:
			fail(FieldCalories, "calories must not be negative")
		default:
			rec.Calories = v
		}
	case row[FieldEnergy] != "":
		v, parsed := parseNumber(row[FieldEnergy])
		switch {
		case !parsed:
			fail(FieldEnergy, fmt.Sprintf("not a number: %q", row[FieldEnergy]))
		case v < 0:
			fail(FieldEnergy, "energy must not be negative")
		default:
			rec.Calories = KilojoulesToCalories(v)
		}
	default:
		fail(FieldCalories, "calories is required")
	}

	optional := []struct {
		field string
		dst   *float64
	}{
		{FieldProtein, &rec.Protein},
		{FieldCarbs, &rec.Carbs},
		{FieldFat, &rec.Fat},
		{FieldFiber, &rec.Fiber},
		{FieldSugar, &rec.Sugar},
		{FieldSodium, &rec.Sodium},
		{FieldCholesterol, &rec.Cholesterol},
	}
	for _, f := range optional {
		raw, ok := row[f.field]
		if !ok {
			continue // absent, keep the zero default
		}
		v, parsed := parseNumber(raw)
		switch {
		case !parsed:
			fail(f.field, fmt.Sprintf("not a number: %q", raw))
		case v < 0:
			fail(f.field, "must not be negative")
		default:
			*f.dst = v
		}
	}

	if raw, ok := row[FieldBrand]; ok {
		rec.Brand = raw
	}
	rec.Tags = ParseTags(row[FieldTags])
	if raw, ok := row[FieldIsPublic]; ok {
		rec.IsPublic = parseBool(raw)
	}

	if len(issues) > 0 {
		return nil, issues
	}
	return rec, nil
}

// ParseTags splits a comma-separated tag string, trimming each piece and
// dropping empties.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, piece := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(piece); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "false", "no", "n", "0":
		return false
	}
	return true
}
