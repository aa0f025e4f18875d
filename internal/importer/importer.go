package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"pantry/internal/model"
)

// FoodStore is the storage collaborator the pipeline mutates. InsertFoods
// must skip rows whose name already exists and report how many were actually
// inserted, so a race against a concurrent import cannot create duplicates.
type FoodStore interface {
	ListFoodNames(ctx context.Context) ([]string, error)
	InsertFoods(ctx context.Context, foods []model.FoodRecord) (int, error)
}

// Layout selects how columns are resolved for a sheet.
type Layout string

const (
	// LayoutFixed expects a clean table: first row is the header.
	LayoutFixed Layout = "fixed"
	// LayoutDetect scans for the header heuristically, for exports that
	// carry preamble rows before the table.
	LayoutDetect Layout = "detect"
)

// Options tune a single pipeline run.
type Options struct {
	BatchSize      int
	DryRun         bool
	Layout         Layout
	HeaderScanRows int
}

// ProgressFunc receives progress updates during a run. The same callback
// feeds the job status store and any caller-injected observer, so the two can
// never disagree.
type ProgressFunc func(progress int, metrics model.ImportMetrics)

// Progress anchors per pipeline phase. Batch insertion fills the remaining
// range proportionally, capped below 100 until the job is fully finished.
const (
	progressRead     = 10
	progressValidate = 30
	progressDedupe   = 50
	progressCap      = 99
)

const defaultBatchSize = 100

// Importer runs the spreadsheet import pipeline:
// read -> detect -> validate -> dedupe -> batched insert.
type Importer struct {
	store FoodStore
}

func New(store FoodStore) *Importer {
	return &Importer{store: store}
}

// Run executes the whole pipeline over one spreadsheet buffer and always
// resolves to a result, never a panic or an uncaught error. Row-level
// problems are aggregated into the result; structural problems (unreadable
// file, no header, no name column) fail the run as a whole.
func (imp *Importer) Run(ctx context.Context, data []byte, fileName string, opts Options, report ProgressFunc) model.ImportResult {
	start := time.Now()
	metrics := model.ImportMetrics{}

	// Progress is monotonically non-decreasing regardless of how phases
	// interleave their updates.
	current := 0
	push := func(p int) {
		if p > progressCap {
			p = progressCap
		}
		if p > current {
			current = p
		}
		if report != nil {
			report(current, metrics)
		}
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Layout == "" {
		opts.Layout = LayoutFixed
	}

	fail := func(err error) model.ImportResult {
		log.Error().Err(err).Str("file", fileName).Msg("Import failed")
		return model.ImportResult{
			Success:         false,
			ValidCount:      metrics.ValidCount,
			SkippedCount:    metrics.SkippedCount,
			ErrorCount:      metrics.ErrorCount,
			DurationSeconds: time.Since(start).Seconds(),
			ErrorMessage:    err.Error(),
		}
	}

	// Phase 1: read.
	rows, err := ReadSheet(data, fileName)
	if err != nil {
		return fail(err)
	}
	push(progressRead)

	// Phase 2: locate the header and map columns.
	var headerIdx int
	var colMap ColumnMap
	switch opts.Layout {
	case LayoutDetect:
		headerIdx, colMap, err = DetectHeader(rows, opts.HeaderScanRows)
		if err != nil {
			return fail(err)
		}
	default:
		if len(rows) == 0 {
			return fail(ErrNoHeaderRow)
		}
		headerIdx = 0
		colMap = MapColumns(rows[0])
		if err := checkRequiredColumns(colMap); err != nil {
			return fail(err)
		}
	}

	// Phase 3: validate every data row, collecting issues instead of
	// stopping; one bad row must not sink a multi-thousand-row file.
	var valid []*model.FoodRecord
	var details []model.RowIssue
	for i, cells := range rows[headerIdx+1:] {
		line := headerIdx + i + 2 // 1-based sheet row number

		raw := BuildRawRow(cells, colMap)
		if raw.IsEmpty() {
			continue
		}
		metrics.TotalRows++

		rec, issues := ValidateRow(raw, line)
		if len(issues) > 0 {
			metrics.ErrorCount++
			details = append(details, issues...)
			continue
		}
		valid = append(valid, rec)
	}
	metrics.ValidCount = len(valid)
	push(progressValidate)

	// Phase 4: one existing-names query per job, then partition.
	names, err := imp.store.ListFoodNames(ctx)
	if err != nil {
		return fail(fmt.Errorf("list existing food names: %w", err))
	}
	toInsert, skipped := Dedupe(FoldNames(names), valid)
	metrics.SkippedCount = len(skipped)
	push(progressDedupe)

	// Phase 5: batched insertion, unless this is a preview.
	if !opts.DryRun {
		if err := imp.insertBatches(ctx, toInsert, opts.BatchSize, &metrics, push); err != nil {
			return fail(err)
		}
	}

	log.Info().
		Str("file", fileName).
		Bool("dryRun", opts.DryRun).
		Int("totalRows", metrics.TotalRows).
		Int("valid", metrics.ValidCount).
		Int("inserted", metrics.InsertedCount).
		Int("skipped", metrics.SkippedCount).
		Int("errors", metrics.ErrorCount).
		Dur("elapsed", time.Since(start)).
		Msg("Import finished")

	return model.ImportResult{
		Success:         true,
		ValidCount:      metrics.ValidCount,
		InsertedCount:   metrics.InsertedCount,
		SkippedCount:    metrics.SkippedCount,
		ErrorCount:      metrics.ErrorCount,
		DurationSeconds: time.Since(start).Seconds(),
		ErrorDetails:    details,
	}
}

// insertBatches writes the surviving rows in fixed-size chunks. A failing
// chunk is logged and skipped rather than aborting the rest; the run only
// fails when every single chunk failed.
func (imp *Importer) insertBatches(ctx context.Context, toInsert []*model.FoodRecord, batchSize int, metrics *model.ImportMetrics, push func(int)) error {
	batches := splitBatches(toInsert, batchSize)
	metrics.BatchesTotal = len(batches)
	if len(batches) == 0 {
		return nil
	}

	failed := 0
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("import cancelled: %w", err)
		}

		foods := make([]model.FoodRecord, 0, len(batch))
		now := time.Now()
		for _, rec := range batch {
			rec.ImportedAt = now
			foods = append(foods, *rec)
		}

		inserted, err := imp.store.InsertFoods(ctx, foods)
		if err != nil {
			failed++
			log.Error().Err(err).
				Int("batch", i+1).
				Int("batches", len(batches)).
				Int("rows", len(batch)).
				Msg("Batch insert failed, continuing with remaining batches")
		} else {
			metrics.InsertedCount += inserted
			// Rows the conflict rule swallowed were inserted by someone
			// else since the dedup check ran.
			metrics.SkippedCount += len(batch) - inserted
		}
		metrics.BatchesDone = i + 1

		push(progressDedupe + (100-progressDedupe)*(i+1)/len(batches))
	}

	if failed == len(batches) {
		return fmt.Errorf("all %d insert batches failed", failed)
	}
	return nil
}
