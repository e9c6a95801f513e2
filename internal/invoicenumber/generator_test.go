package invoicenumber

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var numberPattern = regexp.MustCompile(`^INV-\d{8}-[A-Z0-9]{4}$`)

func fixedClock() time.Time {
	return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
}

// memoryLookup records issued numbers so repeated Generate calls behave like a store.
type memoryLookup struct {
	mu    sync.Mutex
	taken map[string]bool
	calls int
}

func newMemoryLookup() *memoryLookup {
	return &memoryLookup{taken: make(map[string]bool)}
}

func (m *memoryLookup) InvoiceNumberExists(_ context.Context, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.taken[number], nil
}

func (m *memoryLookup) claim(number string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken[number] {
		return false
	}
	m.taken[number] = true
	return true
}

func TestGenerate_Format(t *testing.T) {
	g := NewGenerator(newMemoryLookup(), WithClock(fixedClock))

	for i := 0; i < 500; i++ {
		n, err := g.Generate(context.Background())
		require.NoError(t, err)
		assert.Regexp(t, numberPattern, n)
		assert.Equal(t, "INV-20240115-", n[:13])
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	lookup := newMemoryLookup()
	g := NewGenerator(lookup)

	const count = 10000
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]struct{}, count)
	)

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(share int) {
			defer wg.Done()
			for i := 0; i < share; i++ {
				for {
					n, err := g.Generate(context.Background())
					if !assert.NoError(t, err) {
						return
					}
					// Emulate the store's unique constraint: retry when another
					// goroutine inserted the same number first.
					if lookup.claim(n) {
						mu.Lock()
						seen[n] = struct{}{}
						mu.Unlock()
						break
					}
				}
			}
		}(count / 8)
	}
	wg.Wait()

	assert.Len(t, seen, count)
}

func TestGenerate_SuffixMapping(t *testing.T) {
	// 0 -> A, 25 -> Z, 26 -> 0, 35 -> 9, 36 wraps to A, 255 % 36 = 3 -> D
	random := bytes.NewReader([]byte{0, 25, 26, 35, 36, 255, 1, 2})
	g := NewGenerator(newMemoryLookup(), WithClock(fixedClock), WithRandom(random))

	n, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "INV-20240115-AZ09", n)

	n, err = g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "INV-20240115-ADBC", n)
}

func TestGenerate_RetriesOnCollision(t *testing.T) {
	lookup := newMemoryLookup()
	lookup.taken["INV-20240115-AAAA"] = true
	lookup.taken["INV-20240115-BBBB"] = true

	random := bytes.NewReader([]byte{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2})
	g := NewGenerator(lookup, WithClock(fixedClock), WithRandom(random))

	n, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "INV-20240115-CCCC", n)
	assert.Equal(t, 3, lookup.calls)
}

func TestGenerate_ExhaustedAfterMaxAttempts(t *testing.T) {
	calls := 0
	always := LookupFunc(func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	collisions := 0
	g := NewGenerator(always, WithClock(fixedClock), WithCollisionHook(func() { collisions++ }))

	_, err := g.Generate(context.Background())
	assert.ErrorIs(t, err, domain.ErrGenerationExhausted)
	assert.Equal(t, DefaultMaxAttempts, calls)
	assert.Equal(t, DefaultMaxAttempts, collisions)
}

func TestGenerate_CustomMaxAttempts(t *testing.T) {
	calls := 0
	always := LookupFunc(func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	g := NewGenerator(always, WithMaxAttempts(3), WithMaxAttempts(0))

	_, err := g.Generate(context.Background())
	assert.ErrorIs(t, err, domain.ErrGenerationExhausted)
	assert.Equal(t, 3, calls)
}

func TestGenerate_LookupError(t *testing.T) {
	dbErr := errors.New("connection refused")
	failing := LookupFunc(func(context.Context, string) (bool, error) {
		return false, dbErr
	})
	g := NewGenerator(failing)

	_, err := g.Generate(context.Background())
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, domain.ErrGenerationExhausted)
}

func TestDatePrefix(t *testing.T) {
	assert.Equal(t, "INV-20241231-", DatePrefix(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)))
}
