package rewrite_test

import (
	"context"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/batcher"
	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/rewrite"
	"github.com/heartmarshall/dictionary-importer/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

func TestCandidateUpsert_RunningMean(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := rewrite.NewCandidateRepo(pool, slog.Default())
	ctx := context.Background()

	c := domain.RewriteMapCandidate{
		SourceCode:         "CAND1",
		Mode:               domain.StyleEnglish,
		FromText:           "utilize",
		ToText:             "use",
		AvgConfidenceScore: 0.90,
	}
	if err := repo.Upsert(ctx, c); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	c.AvgConfidenceScore = 0.60
	if err := repo.Upsert(ctx, c); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	var count int
	var avg float64
	err := pool.QueryRow(ctx,
		`SELECT suggested_count, avg_confidence_score
		 FROM rewrite_map_candidate
		 WHERE source_code = $1 AND from_text = $2 AND to_text = $3`,
		"CAND1", "utilize", "use",
	).Scan(&count, &avg)
	if err != nil {
		t.Fatalf("select candidate: %v", err)
	}
	if count != 2 {
		t.Errorf("suggested_count = %d, want 2", count)
	}
	if math.Abs(avg-0.75) > 1e-9 {
		t.Errorf("avg_confidence_score = %v, want 0.75", avg)
	}
}

func TestGetApproved_FiltersAndOrders(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := rewrite.NewCandidateRepo(pool, slog.Default())
	ctx := context.Background()

	seed := func(from string, status domain.CandidateStatus) {
		t.Helper()
		_, err := pool.Exec(ctx,
			`INSERT INTO rewrite_map_candidate
			     (source_code, mode, from_text, to_text, suggested_count, avg_confidence_score, status)
			 VALUES ($1, $2, $3, $4, 1, 0.8, $5)`,
			"CAND2", domain.StyleEnglish, from, from+"-to", string(status),
		)
		if err != nil {
			t.Fatalf("seed candidate: %v", err)
		}
	}
	seed("bravo", domain.CandidateApproved)
	seed("alpha", domain.CandidateApproved)
	seed("pending", domain.CandidatePending)

	got, err := repo.GetApproved(ctx, "CAND2", 10)
	if err != nil {
		t.Fatalf("GetApproved: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetApproved returned %d candidates, want 2", len(got))
	}
	if got[0].FromText != "alpha" || got[1].FromText != "bravo" {
		t.Errorf("order = [%s, %s], want [alpha, bravo]", got[0].FromText, got[1].FromText)
	}
}

func TestMarkPromoted(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := rewrite.NewCandidateRepo(pool, slog.Default())
	ctx := context.Background()

	var id int64
	err := pool.QueryRow(ctx,
		`INSERT INTO rewrite_map_candidate
		     (source_code, mode, from_text, to_text, suggested_count, avg_confidence_score, status)
		 VALUES ('CAND3', 'English', 'leverage', 'use', 1, 0.8, 'Approved')
		 RETURNING id`,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed candidate: %v", err)
	}

	when := time.Now().UTC().Truncate(time.Microsecond)
	if err := repo.MarkPromoted(ctx, []int64{id}, "operator", when); err != nil {
		t.Fatalf("MarkPromoted: %v", err)
	}

	var status, by string
	if err := pool.QueryRow(ctx,
		`SELECT status, approved_by FROM rewrite_map_candidate WHERE id = $1`, id,
	).Scan(&status, &by); err != nil {
		t.Fatalf("select candidate: %v", err)
	}
	if status != string(domain.CandidatePromoted) || by != "operator" {
		t.Errorf("status/approved_by = %s/%s, want Promoted/operator", status, by)
	}
}

func TestRuleUpsert_RefreshesUnderNaturalKey(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := rewrite.NewRuleRepo(pool, slog.Default())
	ctx := context.Background()

	mode := domain.StyleEnglish
	rule := domain.RewriteRule{
		FromText:    "in order to facilitate",
		ToText:      "to help",
		ModeCode:    &mode,
		IsWholeWord: true,
		Priority:    450,
		Notes:       "PROMOTED_BY=test;SRC=RULE1;UTC=2026-08-24",
	}
	if err := repo.Upsert(ctx, rule); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}

	rule.ToText = "to ease"
	rule.Priority = 440
	if err := repo.Upsert(ctx, rule); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	var n int
	if err := pool.QueryRow(ctx,
		`SELECT count(*) FROM rewrite_rule WHERE from_text = $1`, rule.FromText,
	).Scan(&n); err != nil {
		t.Fatalf("count rules: %v", err)
	}
	if n != 1 {
		t.Fatalf("rule rows = %d, want 1", n)
	}

	rules, err := repo.GetEnabled(ctx, mode)
	if err != nil {
		t.Fatalf("GetEnabled: %v", err)
	}
	var found *domain.RewriteRule
	for i := range rules {
		if rules[i].FromText == rule.FromText {
			found = &rules[i]
			break
		}
	}
	if found == nil {
		t.Fatal("upserted rule not returned by GetEnabled")
	}
	if found.ToText != "to ease" || found.Priority != 440 {
		t.Errorf("rule = %+v, want refreshed to_text/priority", found)
	}
}

func TestGetEnabled_ApplicationOrder(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := rewrite.NewRuleRepo(pool, slog.Default())
	ctx := context.Background()

	mode := "Technical"
	for _, r := range []struct {
		from     string
		priority int
	}{
		{"zz-short", 100},
		{"aa-much-longer-pattern", 100},
		{"first-priority", 50},
	} {
		if err := repo.Upsert(ctx, domain.RewriteRule{
			FromText: r.from, ToText: "x", ModeCode: &mode, IsWholeWord: true, Priority: r.priority,
		}); err != nil {
			t.Fatalf("Upsert(%s): %v", r.from, err)
		}
	}

	rules, err := repo.GetEnabled(ctx, mode)
	if err != nil {
		t.Fatalf("GetEnabled: %v", err)
	}
	var order []string
	for _, r := range rules {
		if r.ModeCode != nil && *r.ModeCode == mode {
			order = append(order, r.FromText)
		}
	}
	want := []string{"first-priority", "aa-much-longer-pattern", "zz-short"}
	if len(order) != len(want) {
		t.Fatalf("rules = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("rule order = %v, want %v", order, want)
		}
	}
}

func TestHitBuffer_FlushAccumulates(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()

	b := batcher.New(pool, slog.Default(), batcher.Config{})
	defer b.Close()

	hits := rewrite.NewHitBuffer(b, slog.Default())
	hits.Record("HIT1", "English", "WholeWord", "in order to")
	hits.Record("HIT1", "English", "WholeWord", "in order to")
	hits.Record("HIT1", "English", "Regex", `colou?r`)
	hits.Flush(ctx)

	// A second run folds into the same counters.
	hits.Record("HIT1", "English", "WholeWord", "in order to")
	hits.Flush(ctx)

	var count int
	err := pool.QueryRow(ctx,
		`SELECT hit_count FROM rewrite_rule_hit_log
		 WHERE source_code = 'HIT1' AND mode = 'English'
		   AND rule_type = 'WholeWord' AND rule_key = 'in order to'`,
	).Scan(&count)
	if err != nil {
		t.Fatalf("select hit row: %v", err)
	}
	if count != 3 {
		t.Errorf("hit_count = %d, want 3", count)
	}

	var rows int
	if err := pool.QueryRow(ctx,
		`SELECT count(*) FROM rewrite_rule_hit_log WHERE source_code = 'HIT1'`,
	).Scan(&rows); err != nil {
		t.Fatalf("count hit rows: %v", err)
	}
	if rows != 2 {
		t.Errorf("hit rows = %d, want 2", rows)
	}
}
