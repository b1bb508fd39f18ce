// Package repository holds the Postgres stores behind the onboarding workflow.
// Every store reads the transaction from the context when one is present.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrTrackingNumberTaken is returned when a concurrent insert claimed the
	// same tracking number first.
	ErrTrackingNumberTaken = errors.New("tracking number already taken")
)

const (
	uniqueViolation = "23505"

	constraintTrackingNumber = "onboarding_requests_tracking_number_key"
)

// IsUniqueViolation reports whether err is a Postgres unique violation on the
// named constraint. An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

type rowScanner interface {
	Scan(dest ...any) error
}

func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

// upsertSQL builds an INSERT ... ON CONFLICT DO UPDATE that reports whether
// the row was inserted. id is always the first column and $1.
func upsertSQL(table, conflict string, cols []string) string {
	sets := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == conflict {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	sets = append(sets, "updated_at = NOW()")

	return fmt.Sprintf(`
		INSERT INTO %s (id, %s)
		VALUES (%s)
		ON CONFLICT (%s) DO UPDATE SET %s
		RETURNING id, (xmax = 0) AS inserted`,
		table, strings.Join(cols, ", "),
		placeholders(1, len(cols)+1),
		conflict, strings.Join(sets, ", "),
	)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func str(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
