// Command importer stages a parsed dictionary dump for one source and
// finalizes the canonical tables once every registered source has
// completed. It is intended to be run offline, once per source.
//
// Flags:
//
//	--input   path to a JSONL file of raw entries (required)
//	--source  source code override (default: importer.source_code)
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/staging"
	"github.com/heartmarshall/dictionary-importer/internal/app"
	"github.com/heartmarshall/dictionary-importer/internal/app/importer"
)

// Compile-time interface assertion.
var _ importer.StagingStore = (*staging.Loader)(nil)

func main() {
	inputFlag := flag.String("input", "", "path to JSONL entries file")
	sourceFlag := flag.String("source", "", "source code override")
	flag.Parse()

	if *inputFlag == "" {
		log.Fatal("--input is required")
	}

	// Staging a full dump can take a while; finalize alone may run 10 min.
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Minute)
	defer cancel()

	cfg, logger, pool, err := app.Bootstrap(ctx)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer pool.Close()

	sourceCode := cfg.Importer.SourceCode
	if *sourceFlag != "" {
		sourceCode = *sourceFlag
	}

	reader, err := importer.NewJSONLReader(*inputFlag, sourceCode, logger)
	if err != nil {
		logger.Error("open entries file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer reader.Close()

	loader := staging.NewLoader(pool, logger)
	pipeline := importer.NewPipeline(logger, loader)
	if err := pipeline.Run(ctx, sourceCode, reader); err != nil {
		logger.Error("import pipeline failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if pipeline.HasErrors() {
		logger.Warn("import pipeline completed with errors")
		os.Exit(1)
	}

	logger.Info("import pipeline completed successfully")
}
