package importer

import (
	"errors"
	"strings"
)

// Structural errors abort the whole file: without a header map no row can be
// interpreted.
var (
	ErrNoHeaderRow       = errors.New("no header row found")
	ErrNoNameColumn      = errors.New("no food name column found")
	ErrNoNutrientColumns = errors.New("no nutrient columns found")
)

// headerKeyTerms are the terms counted when scoring a candidate header row.
// Taken from the column labels government nutrition exports actually use.
var headerKeyTerms = []string{
	"food name",
	"energy",
	"protein",
	"fat",
	"carbohydrate",
	"dietary fibre",
	"sodium",
}

const headerMatchThreshold = 3

// ColumnMap holds the index of each semantic column within a sheet, -1 when
// the column is absent.
type ColumnMap struct {
	Name        int
	Category    int
	ServingSize int
	ServingUnit int
	Calories    int
	Energy      int
	Protein     int
	Carbs       int
	Fat         int
	Fiber       int
	Sugar       int
	Sodium      int
	Cholesterol int
	Brand       int
	Tags        int
	IsPublic    int
}

func emptyColumnMap() ColumnMap {
	return ColumnMap{
		Name: -1, Category: -1, ServingSize: -1, ServingUnit: -1,
		Calories: -1, Energy: -1, Protein: -1, Carbs: -1, Fat: -1,
		Fiber: -1, Sugar: -1, Sodium: -1, Cholesterol: -1,
		Brand: -1, Tags: -1, IsPublic: -1,
	}
}

// columnRule assigns a header cell to a semantic column. Rules are tested in
// order and the first match wins, so narrower labels ("serving size",
// "saturated fat" vs "fat") must come first.
type columnRule struct {
	assign   func(*ColumnMap, int)
	keywords []string
}

var columnRules = []columnRule{
	{func(m *ColumnMap, i int) { m.ServingSize = i }, []string{"serving size", "serving_size", "portion"}},
	{func(m *ColumnMap, i int) { m.ServingUnit = i }, []string{"serving unit", "serving_unit", "unit"}},
	{func(m *ColumnMap, i int) { m.Category = i }, []string{"category", "classification", "food group", "group", "type"}},
	{func(m *ColumnMap, i int) { m.Name = i }, []string{"food name", "food_name", "name", "description", "food"}},
	{func(m *ColumnMap, i int) { m.Calories = i }, []string{"calorie", "kcal"}},
	{func(m *ColumnMap, i int) { m.Energy = i }, []string{"energy", "kilojoule", "kj"}},
	{func(m *ColumnMap, i int) { m.Protein = i }, []string{"protein"}},
	{func(m *ColumnMap, i int) { m.Carbs = i }, []string{"carbohydrate", "carbs", "carb"}},
	{func(m *ColumnMap, i int) { m.Fiber = i }, []string{"fibre", "fiber"}},
	{func(m *ColumnMap, i int) { m.Sugar = i }, []string{"sugar"}},
	{func(m *ColumnMap, i int) { m.Sodium = i }, []string{"sodium", "salt"}},
	{func(m *ColumnMap, i int) { m.Cholesterol = i }, []string{"cholesterol"}},
	{func(m *ColumnMap, i int) { m.Fat = i }, []string{"fat", "lipid"}},
	{func(m *ColumnMap, i int) { m.Brand = i }, []string{"brand", "manufacturer"}},
	{func(m *ColumnMap, i int) { m.Tags = i }, []string{"tags", "tag"}},
	{func(m *ColumnMap, i int) { m.IsPublic = i }, []string{"public", "visible"}},
}

// MapColumns builds a column map from a header row. Each header cell binds to
// at most one semantic column and each semantic column binds at most once.
func MapColumns(header []string) ColumnMap {
	m := emptyColumnMap()
	bound := make(map[int]bool, len(columnRules))

	for idx, cell := range header {
		text := strings.ToLower(strings.TrimSpace(cell))
		if text == "" {
			continue
		}
		for ri, rule := range columnRules {
			if bound[ri] {
				continue
			}
			matched := false
			for _, kw := range rule.keywords {
				if strings.Contains(text, kw) {
					matched = true
					break
				}
			}
			if matched {
				rule.assign(&m, idx)
				bound[ri] = true
				break
			}
		}
	}

	return m
}

// DetectHeader scans at most scanWindow leading rows of an unstructured sheet
// for the header row and maps its columns. Rows before the header (titles,
// preamble, disclaimers) are skipped by the caller using the returned index.
func DetectHeader(rows [][]string, scanWindow int) (int, ColumnMap, error) {
	if scanWindow <= 0 {
		scanWindow = 30
	}
	limit := len(rows)
	if limit > scanWindow {
		limit = scanWindow
	}

	headerIdx := -1
	for i := 0; i < limit; i++ {
		text := strings.ToLower(strings.Join(rows[i], " "))
		matches := 0
		for _, term := range headerKeyTerms {
			if strings.Contains(text, term) {
				matches++
			}
		}
		if matches >= headerMatchThreshold {
			headerIdx = i
			break
		}
	}

	// Fallback: a row mentioning both energy and protein is almost certainly
	// the header even when the stricter score missed.
	if headerIdx < 0 {
		for i := 0; i < limit; i++ {
			text := strings.ToLower(strings.Join(rows[i], " "))
			if strings.Contains(text, "energy") && strings.Contains(text, "protein") {
				headerIdx = i
				break
			}
		}
	}

	if headerIdx < 0 {
		return -1, emptyColumnMap(), ErrNoHeaderRow
	}

	m := MapColumns(rows[headerIdx])
	if err := checkRequiredColumns(m); err != nil {
		return headerIdx, m, err
	}

	return headerIdx, m, nil
}

// checkRequiredColumns enforces the minimum shape of an importable sheet: a
// food name column plus at least one macro/energy column.
func checkRequiredColumns(m ColumnMap) error {
	if m.Name < 0 {
		return ErrNoNameColumn
	}
	if m.Calories < 0 && m.Energy < 0 && m.Protein < 0 && m.Carbs < 0 && m.Fat < 0 {
		return ErrNoNutrientColumns
	}
	return nil
}

// KilojoulesToCalories applies the energy unit heuristic: values above 100 are
// assumed to be kilojoules and converted, values at or below 100 are assumed
// to already be kilocalories. A heuristic, not a declared unit.
func KilojoulesToCalories(v float64) float64 {
	if v > 100 {
		return v / 4.184
	}
	return v
}
