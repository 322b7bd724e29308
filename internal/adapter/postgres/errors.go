package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/dictionary-importer/internal/domain"
)

// SQLSTATE codes the pipeline treats as signals rather than failures.
const (
	codeUniqueViolation = "23505"
	codeForeignKey      = "23503"
	codeCheckViolation  = "23514"
	codeTruncation      = "22001"
	codeDeadlock        = "40P01"
	codeSerialization   = "40001"
	codeLockNotAvail    = "55P03"
	codeProgramLimit    = "54000"
)

// mapError converts pgx/pgconn errors to domain errors.
// context.DeadlineExceeded and context.Canceled are NOT mapped — they pass through.
func mapError(err error, entity string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", entity, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", entity, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", entity, domain.ErrAlreadyExists)
		case codeForeignKey:
			return fmt.Errorf("%s: %w", entity, domain.ErrNotFound)
		case codeCheckViolation, codeTruncation:
			return fmt.Errorf("%s: %w", entity, domain.ErrValidation)
		}
	}

	return fmt.Errorf("%s: %w", entity, err)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// IsDeadlock reports whether err is a deadlock or serialization failure,
// both safe to retry with backoff.
func IsDeadlock(err error) bool {
	return hasCode(err, codeDeadlock) || hasCode(err, codeSerialization)
}

// IsLockNotAvailable reports whether a NOWAIT lock acquisition lost the
// race. The finalize path converts this to domain.ErrLockBusy.
func IsLockNotAvailable(err error) bool {
	return hasCode(err, codeLockNotAvail)
}

// IsUniqueViolation reports a duplicate-key insert.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsParamOverflow reports that a statement exceeded an engine limit,
// typically the wire-protocol parameter budget. The batcher reacts by
// chunking, never by retrying as-is.
func IsParamOverflow(err error) bool {
	return hasCode(err, codeProgramLimit)
}

// IsTruncation reports a string-data-right-truncation failure. Rows are
// pre-truncated at sanitize time, so this indicates a sanitizer gap.
func IsTruncation(err error) bool {
	return hasCode(err, codeTruncation)
}

// IsCancellation reports whether err stems from context cancellation or
// deadline expiry, which writers convert into early returns.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
