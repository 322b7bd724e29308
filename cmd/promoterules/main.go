// Command promoterules promotes approved rewrite-map candidates into
// authoritative rewrite rules.
//
// Flags:
//
//	--source       limit promotion to one source (default: all approved)
//	--take         max candidates per run (default: rewrite_memory.take)
//	--promoted-by  operator tag recorded on promoted rules
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

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres"
	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/rewrite"
	"github.com/heartmarshall/dictionary-importer/internal/app"
	"github.com/heartmarshall/dictionary-importer/internal/app/promote"
)

func main() {
	sourceFlag := flag.String("source", "", "limit promotion to one source code")
	takeFlag := flag.Int("take", 0, "max candidates per run")
	promotedByFlag := flag.String("promoted-by", "", "operator tag recorded on promoted rules")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, logger, pool, err := app.Bootstrap(ctx)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer pool.Close()

	take := cfg.RewriteMemory.Take
	if *takeFlag > 0 {
		take = *takeFlag
	}
	promotedBy := cfg.RewriteMemory.PromotedBy
	if *promotedByFlag != "" {
		promotedBy = *promotedByFlag
	}

	svc := promote.NewService(
		postgres.NewTxManager(pool),
		rewrite.NewCandidateRepo(pool, logger),
		rewrite.NewRuleRepo(pool, logger),
		logger,
	)

	res, err := svc.Run(ctx, promote.Config{
		SourceCode: *sourceFlag,
		Take:       take,
		PromotedBy: promotedBy,
	})
	if err != nil {
		logger.Error("promotion failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("promotion finished",
		slog.Int("promoted", res.Promoted),
		slog.Int("skipped", res.Skipped),
	)
}
