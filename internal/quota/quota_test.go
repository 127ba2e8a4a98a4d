package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-poster/internal/errs"
	"social-poster/internal/storage"
)

type countingStore struct {
	storage.UserStore
	puts int
}

func (c *countingStore) Put(ctx context.Context, rec storage.UserRecord) error {
	c.puts++
	return c.UserStore.Put(ctx, rec)
}

type failingStore struct{}

func (failingStore) Get(context.Context, int64) (storage.UserRecord, error) {
	return storage.UserRecord{}, errs.ErrStorage
}
func (failingStore) Put(context.Context, storage.UserRecord) error { return errs.ErrStorage }
func (failingStore) All(context.Context) ([]storage.UserRecord, error) {
	return nil, errs.ErrStorage
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

var day1 = time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)

func TestGuard_Monotonicity(t *testing.T) {
	ctx := context.Background()
	g := New(storage.NewMemoryUserStore(), WithClock(fixedClock(day1)))
	const limit = 5

	charged := 0
	for i := 0; i < 20; i++ {
		ok, err := g.CanProceed(ctx, 1, limit)
		require.NoError(t, err)
		if !ok {
			break
		}
		n, err := g.RecordUsage(ctx, 1)
		require.NoError(t, err)
		charged++
		assert.Equal(t, charged, n)
	}
	assert.Equal(t, limit, charged)

	left, err := g.Remaining(ctx, 1, limit)
	require.NoError(t, err)
	assert.Equal(t, 0, left)
}

func TestGuard_DailyReset(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryUserStore()
	require.NoError(t, store.Put(ctx, storage.UserRecord{UserID: 1, LastResetDate: "2024-04-30", RequestCount: 5}))

	g := New(store, WithClock(fixedClock(day1)))
	ok, err := g.CanProceed(ctx, 1, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := g.RecordUsage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", rec.LastResetDate)
	assert.Equal(t, 1, rec.RequestCount)
}

func TestGuard_UTCBoundary(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryUserStore()
	require.NoError(t, store.Put(ctx, storage.UserRecord{UserID: 1, LastResetDate: "2024-05-01", RequestCount: 5}))

	// 01:00 on May 2 in UTC+3 is still May 1 in UTC.
	local := time.Date(2024, 5, 2, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))
	g := New(store, WithClock(fixedClock(local)))
	ok, err := g.CanProceed(ctx, 1, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGuard_ReadsDoNotWrite(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{UserStore: storage.NewMemoryUserStore()}
	require.NoError(t, store.UserStore.Put(ctx, storage.UserRecord{UserID: 1, LastResetDate: "2020-01-01", RequestCount: 9}))

	g := New(store, WithClock(fixedClock(day1)))
	_, err := g.CanProceed(ctx, 1, 5)
	require.NoError(t, err)
	_, err = g.Remaining(ctx, 1, 5)
	require.NoError(t, err)
	assert.Zero(t, store.puts)

	rec, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 9, rec.RequestCount)
}

func TestGuard_StorageFailureDenies(t *testing.T) {
	g := New(failingStore{}, WithClock(fixedClock(day1)))
	ok, err := g.CanProceed(context.Background(), 1, 5)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, errs.ErrStorage))

	_, err = g.RecordUsage(context.Background(), 1)
	assert.ErrorIs(t, err, errs.ErrStorage)
}

func TestGuard_Register(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryUserStore()
	g := New(store, WithClock(fixedClock(day1)))

	created, err := g.Register(ctx, 7)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = g.Register(ctx, 7)
	require.NoError(t, err)
	assert.False(t, created)

	rec, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, storage.UserRecord{UserID: 7, LastResetDate: "2024-05-01", JoinedDate: "2024-05-01"}, rec)
}

func TestGuard_ResetAllKeepsDate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryUserStore()
	require.NoError(t, store.Put(ctx, storage.UserRecord{UserID: 1, LastResetDate: "2024-04-29", RequestCount: 3}))
	require.NoError(t, store.Put(ctx, storage.UserRecord{UserID: 2, LastResetDate: "2024-05-01", RequestCount: 5}))
	require.NoError(t, store.Put(ctx, storage.UserRecord{UserID: 3, LastResetDate: "2024-05-01"}))

	g := New(store, WithClock(fixedClock(day1)))
	n, err := g.ResetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := store.All(ctx)
	require.NoError(t, err)
	for _, rec := range all {
		assert.Zero(t, rec.RequestCount)
	}
	assert.Equal(t, "2024-04-29", all[0].LastResetDate)
}
