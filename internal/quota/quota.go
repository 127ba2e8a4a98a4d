// Package quota enforces the daily per-user request limit.
//
// The daily boundary is the UTC calendar date. Reads never write: a record
// whose LastResetDate is not today is treated as having a zero count until
// RecordUsage rolls it over.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"social-poster/internal/storage"
)

// Guard decides whether a user may generate another post today.
type Guard struct {
	store storage.UserStore
	now   func() time.Time

	// mu serializes read-modify-write cycles on the store.
	mu sync.Mutex
}

type Option func(*Guard)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

func New(store storage.UserStore, opts ...Option) *Guard {
	g := &Guard{store: store, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Today returns the current UTC date in storage.DateLayout.
func (g *Guard) Today() string {
	return g.now().UTC().Format(storage.DateLayout)
}

func (g *Guard) effective(rec storage.UserRecord) int {
	if rec.LastResetDate != g.Today() {
		return 0
	}
	return rec.RequestCount
}

// Used returns today's effective count without writing anything.
func (g *Guard) Used(ctx context.Context, userID int64) (int, error) {
	rec, err := g.store.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("quota lookup %d: %w", userID, err)
	}
	return g.effective(rec), nil
}

// CanProceed reports whether another generation is allowed. A storage
// failure denies the request and is returned alongside false.
func (g *Guard) CanProceed(ctx context.Context, userID int64, limit int) (bool, error) {
	used, err := g.Used(ctx, userID)
	if err != nil {
		return false, err
	}
	return used < limit, nil
}

// Remaining is max(0, limit - used).
func (g *Guard) Remaining(ctx context.Context, userID int64, limit int) (int, error) {
	used, err := g.Used(ctx, userID)
	if err != nil {
		return 0, err
	}
	if left := limit - used; left > 0 {
		return left, nil
	}
	return 0, nil
}

// RecordUsage charges one successful generation and returns the new count.
// It is the only operation that increments the stored counter.
func (g *Guard) RecordUsage(ctx context.Context, userID int64) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.store.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("quota lookup %d: %w", userID, err)
	}
	today := g.Today()
	if rec.LastResetDate != today {
		rec.LastResetDate = today
		rec.RequestCount = 0
	}
	if rec.JoinedDate == "" {
		rec.JoinedDate = today
	}
	rec.RequestCount++
	if err := g.store.Put(ctx, rec); err != nil {
		return 0, fmt.Errorf("quota record %d: %w", userID, err)
	}
	return rec.RequestCount, nil
}

// Register creates the user's record if it does not exist yet.
func (g *Guard) Register(ctx context.Context, userID int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.store.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("quota lookup %d: %w", userID, err)
	}
	if rec.Known() {
		return false, nil
	}
	today := g.Today()
	rec = storage.UserRecord{UserID: userID, LastResetDate: today, JoinedDate: today}
	if err := g.store.Put(ctx, rec); err != nil {
		return false, fmt.Errorf("quota register %d: %w", userID, err)
	}
	return true, nil
}

// ResetAll zeroes every stored counter, keeping LastResetDate.
// It returns the number of records written.
func (g *Guard) ResetAll(ctx context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	recs, err := g.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("quota reset: %w", err)
	}
	n := 0
	for _, rec := range recs {
		if rec.RequestCount == 0 {
			continue
		}
		rec.RequestCount = 0
		if err := g.store.Put(ctx, rec); err != nil {
			return n, fmt.Errorf("quota reset %d: %w", rec.UserID, err)
		}
		n++
	}
	return n, nil
}
