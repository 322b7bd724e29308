// Command rewritemine rebuilds the rewrite-memory index for a source
// and runs one candidate mining pass over its AI annotations.
//
// Flags:
//
//	--source           source code (default: importer.source_code)
//	--write-candidates persist mined candidates to SQL (overrides config)
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

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/rewrite"
	"github.com/heartmarshall/dictionary-importer/internal/app"
	"github.com/heartmarshall/dictionary-importer/internal/app/miner"
	"github.com/heartmarshall/dictionary-importer/internal/rewritemem"
)

func main() {
	sourceFlag := flag.String("source", "", "source code override")
	writeFlag := flag.Bool("write-candidates", false, "persist mined candidates to SQL")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
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

	annotations := rewrite.NewAnnotationRepo(pool, logger)
	memory, err := rewritemem.Open(cfg.RewriteMemory.IndexPath, annotations, logger)
	if err != nil {
		logger.Error("open rewrite-memory index", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer memory.Close()

	svc := miner.NewService(
		memory,
		annotations,
		rewrite.NewCandidateRepo(pool, logger),
		rewrite.NewRuleRepo(pool, logger),
		logger,
	)

	res, err := svc.Run(ctx, miner.Config{
		SourceCode:             sourceCode,
		Take:                   cfg.RewriteMemory.Take,
		MaxSuggestions:         cfg.RewriteMemory.MaxSuggestions,
		MinScore:               cfg.RewriteMemory.MinScore,
		WriteCandidatesToSQL:   cfg.RewriteMemory.WriteCandidatesToSQL || *writeFlag,
		CandidateMinConfidence: cfg.RewriteMemory.CandidateMinConfidence,
		MaxCandidatesPerRun:    cfg.RewriteMemory.MaxCandidatesPerRun,
	})
	if err != nil {
		logger.Error("mining pass failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("mining pass finished",
		slog.Int("pairs", res.PairsProcessed),
		slog.Int("updated_notes", res.UpdatedNotes),
		slog.Int("candidate_upserts", res.CandidateUpserts),
	)
}
