// Package tracking issues the human-readable numbers returned to applicants.
package tracking

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const DefaultPrefix = "ONB"

var pattern = regexp.MustCompile(`^([A-Z]+)-(\d{4})-(\d{5,})$`)

// LastNumberReader returns the greatest tracking number with the given
// prefix, or "" when none exists.
type LastNumberReader interface {
	LastTrackingNumber(ctx context.Context, prefix string) (string, error)
}

// Number is a parsed tracking number.
type Number struct {
	Prefix   string
	Year     int
	Sequence int
}

func (n Number) String() string {
	return Format(n.Prefix, n.Year, n.Sequence)
}

// Format renders PREFIX-YYYY-NNNNN.
func Format(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%04d-%05d", prefix, year, seq)
}

// Parse validates s and splits it into its parts.
func Parse(s string) (Number, error) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return Number{}, fmt.Errorf("invalid tracking number %q", s)
	}
	year, _ := strconv.Atoi(m[2])
	seq, err := strconv.Atoi(m[3])
	if err != nil || seq < 1 {
		return Number{}, fmt.Errorf("invalid tracking number %q", s)
	}
	return Number{Prefix: m[1], Year: year, Sequence: seq}, nil
}

// Valid reports whether s is a well-formed tracking number.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

type Generator struct {
	store  LastNumberReader
	prefix string
	now    func() time.Time
}

type Option func(*Generator)

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func WithPrefix(prefix string) Option {
	return func(g *Generator) {
		if prefix != "" {
			g.prefix = prefix
		}
	}
}

func NewGenerator(store LastNumberReader, opts ...Option) *Generator {
	g := &Generator{
		store:  store,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns the number after the last one issued this year. Two callers
// can get the same number; the unique constraint on insert decides.
func (g *Generator) Next(ctx context.Context) (string, error) {
	year := g.now().Year()
	yearPrefix := fmt.Sprintf("%s-%04d-", g.prefix, year)

	last, err := g.store.LastTrackingNumber(ctx, yearPrefix)
	if err != nil {
		return "", fmt.Errorf("read last tracking number: %w", err)
	}
	if last == "" {
		return Format(g.prefix, year, 1), nil
	}

	n, err := Parse(last)
	if err != nil {
		return "", err
	}
	return Format(g.prefix, year, n.Sequence+1), nil
}
