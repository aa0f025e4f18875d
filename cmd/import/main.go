// Command import runs the food spreadsheet pipeline once, from the command
// line, against the configured database. It replaces the former collection of
// per-dataset import scripts: layout and batching differences are flags, not
// forks of the code.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pantry/internal/config"
	"pantry/internal/database"
	"pantry/internal/importer"
	"pantry/internal/model"
	"pantry/internal/source"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.json", "path to the config file")
		filePath   = flag.String("file", "", "path to a local spreadsheet (.xlsx or .csv)")
		fileURL    = flag.String("url", "", "URL of a spreadsheet to download and import")
		layoutFlag = flag.String("layout", "fixed", "column layout: 'fixed' (first row is the header) or 'detect' (scan for it)")
		batchSize  = flag.Int("batch-size", 0, "rows per insert batch (0 uses the configured default)")
		dryRun     = flag.Bool("dry-run", false, "validate and dedupe without inserting anything")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	if (*filePath == "") == (*fileURL == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -file or -url is required")
		flag.Usage()
		os.Exit(2)
	}

	layout := importer.Layout(*layoutFlag)
	if layout != importer.LayoutFixed && layout != importer.LayoutDetect {
		fmt.Fprintln(os.Stderr, "layout must be 'fixed' or 'detect'")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer db.Close(context.Background())

	maxBytes := int64(cfg.Import.MaxFileSizeMB) << 20

	var src source.Source
	if *filePath != "" {
		data, err := os.ReadFile(*filePath)
		if err != nil {
			log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to read spreadsheet")
		}
		src = source.NewBuffer(data, *filePath)
	} else {
		src = source.NewURL(*fileURL, 30*time.Second, maxBytes)
	}

	ctx := context.Background()
	data, name, err := src.Open(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open import source")
	}

	opts := importer.Options{
		BatchSize:      *batchSize,
		DryRun:         *dryRun,
		Layout:         layout,
		HeaderScanRows: cfg.Import.HeaderScanRows,
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = cfg.Import.BatchSize
	}

	result := importer.New(db).Run(ctx, data, name, opts, func(progress int, metrics model.ImportMetrics) {
		log.Info().
			Int("progress", progress).
			Int("valid", metrics.ValidCount).
			Int("inserted", metrics.InsertedCount).
			Msg("progress")
	})

	printResult(result)

	if !result.Success {
		os.Exit(1)
	}
}

func printResult(res model.ImportResult) {
	fmt.Println("Import summary")
	fmt.Printf("  success:  %v\n", res.Success)
	fmt.Printf("  valid:    %d\n", res.ValidCount)
	fmt.Printf("  inserted: %d\n", res.InsertedCount)
	fmt.Printf("  skipped:  %d\n", res.SkippedCount)
	fmt.Printf("  errors:   %d\n", res.ErrorCount)
	fmt.Printf("  duration: %.2fs\n", res.DurationSeconds)

	if res.ErrorMessage != "" {
		fmt.Printf("  failure:  %s\n", res.ErrorMessage)
	}
	for _, issue := range res.ErrorDetails {
		fmt.Printf("  row %d: %s: %s\n", issue.Row, issue.Field, issue.Reason)
	}
}
