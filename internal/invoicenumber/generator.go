// Package invoicenumber allocates human-readable invoice numbers of the form
// INV-YYYYMMDD-XXXX.
package invoicenumber

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dukerupert/gymdesk/internal/domain"
)

const (
	// Prefix starts every invoice number.
	Prefix = "INV-"

	// DefaultMaxAttempts bounds collision retries per Generate call.
	DefaultMaxAttempts = 10

	suffixLen = 4
	alphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Lookup reports whether an invoice number is already taken.
type Lookup interface {
	InvoiceNumberExists(ctx context.Context, number string) (bool, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, number string) (bool, error)

func (f LookupFunc) InvoiceNumberExists(ctx context.Context, number string) (bool, error) {
	return f(ctx, number)
}

// Generator produces candidate numbers and checks them against the store.
// The store's unique constraint remains the final arbiter; a number returned
// here can still lose an insert race.
type Generator struct {
	lookup      Lookup
	random      io.Reader
	now         func() time.Time
	maxAttempts int
	logger      *slog.Logger
	onCollision func()
}

// Option configures a Generator.
type Option func(*Generator)

// WithRandom replaces crypto/rand as the byte source.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithLogger sets the logger used for collision reports.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithCollisionHook calls fn each time a candidate is already taken.
func WithCollisionHook(fn func()) Option {
	return func(g *Generator) { g.onCollision = fn }
}

// NewGenerator creates a Generator backed by lookup.
func NewGenerator(lookup Lookup, opts ...Option) *Generator {
	g := &Generator{
		lookup:      lookup,
		random:      rand.Reader,
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns an invoice number not currently present in the store.
// It returns domain.ErrGenerationExhausted after maxAttempts collisions.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	prefix := DatePrefix(g.now())

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		suffix, err := g.suffix()
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		candidate := prefix + suffix

		exists, err := g.lookup.InvoiceNumberExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check invoice number %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}

		g.logger.Warn("invoice number collision",
			"invoice_number", candidate,
			"attempt", attempt,
		)
		if g.onCollision != nil {
			g.onCollision()
		}
	}

	return "", domain.ErrGenerationExhausted
}

// suffix maps each random byte modulo 36 onto A-Z0-9. 256 is not a multiple
// of 36, so the first four letters are very slightly more likely.
func (g *Generator) suffix() (string, error) {
	var b [suffixLen]byte
	if _, err := io.ReadFull(g.random, b[:]); err != nil {
		return "", err
	}
	out := make([]byte, suffixLen)
	for i, v := range b {
		out[i] = alphabet[int(v)%len(alphabet)]
	}
	return string(out), nil
}

// DatePrefix returns "INV-YYYYMMDD-" for t.
func DatePrefix(t time.Time) string {
	return Prefix + t.Format("20060102") + "-"
}
