package batcher

import (
	"regexp"
	"sync"
)

// Engine parameter budget. PostgreSQL's extended protocol allows 65535
// bind parameters per statement; batches are nevertheless capped at the
// same conservative budget the original pipeline used so a single
// flush stays cheap to plan and safe to retry.
const (
	// ParameterBudget is the hard cap on bind parameters per flushed
	// batch.
	ParameterBudget = 2000

	// parameterHeadroom is reserved off the budget before computing the
	// per-key batch size, absorbing template growth between queue and
	// flush.
	parameterHeadroom = 100

	// DefaultMaxBatchSize bounds a per-key batch even for tiny
	// templates.
	DefaultMaxBatchSize = 100
)

var paramTokenRe = regexp.MustCompile(`\$(\d+)`)

// paramCountCache memoizes distinct-parameter counts per SQL template.
var paramCountCache sync.Map // template string → int

// paramsPerOp returns the number of distinct positional parameters
// ($1..$n) in a SQL template. Dollar-quoted literals are not expected in
// batched templates; counts are cached per template.
func paramsPerOp(template string) int {
	if v, ok := paramCountCache.Load(template); ok {
		return v.(int)
	}
	seen := map[string]struct{}{}
	for _, m := range paramTokenRe.FindAllStringSubmatch(template, -1) {
		seen[m[1]] = struct{}{}
	}
	n := len(seen)
	paramCountCache.Store(template, n)
	return n
}

// maxSafeBatchSize computes how many operations of a template fit in one
// flush under the parameter budget: at least one, at most maxBatch.
func maxSafeBatchSize(template string, maxBatch int) int {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatchSize
	}
	per := paramsPerOp(template)
	if per == 0 {
		return maxBatch
	}
	safe := (ParameterBudget - parameterHeadroom) / per
	if safe < 1 {
		safe = 1
	}
	if safe > maxBatch {
		safe = maxBatch
	}
	return safe
}
