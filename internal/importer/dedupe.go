package importer

import "pantry/internal/model"

// Dedupe partitions the validated candidates into rows to insert and rows
// skipped as duplicates. existing is the folded-name set fetched once per job;
// a within-file seen set additionally catches a sheet repeating its own rows,
// so a name only ever survives once per run. Comparison is case-insensitive
// after trimming.
func Dedupe(existing map[string]struct{}, candidates []*model.FoodRecord) (toInsert, skipped []*model.FoodRecord) {
	seen := make(map[string]struct{}, len(candidates))

	for _, rec := range candidates {
		key := rec.NameLC
		if key == "" {
			key = model.FoldName(rec.Name)
		}
		if _, dup := existing[key]; dup {
			skipped = append(skipped, rec)
			continue
		}
		if _, dup := seen[key]; dup {
			skipped = append(skipped, rec)
			continue
		}
		seen[key] = struct{}{}
		toInsert = append(toInsert, rec)
	}

	return toInsert, skipped
}

// FoldNames builds the lookup set Dedupe expects from a flat name list.
func FoldNames(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[model.FoldName(n)] = struct{}{}
	}
	return set
}
