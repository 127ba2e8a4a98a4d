package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-poster/internal/config"
	"social-poster/internal/errs"
)

type backendCase struct {
	name  string
	users UserStore
	posts PostLog
}

func backends(t *testing.T) []backendCase {
	t.Helper()
	dir := t.TempDir()

	fu, err := NewFileUserStore(filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	fp, err := NewFilePostLog(filepath.Join(dir, "posts.jsonl"))
	require.NoError(t, err)

	bs, err := NewBoltStore(filepath.Join(dir, "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bs.Close() })

	mr := miniredis.RunT(t)
	rs := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
	t.Cleanup(func() { _ = rs.Close() })

	return []backendCase{
		{name: "memory", users: NewMemoryUserStore(), posts: NewMemoryPostLog()},
		{name: "file", users: fu, posts: fp},
		{name: "bolt", users: bs.Users(), posts: bs.Posts()},
		{name: "redis", users: rs.Users(), posts: rs.Posts()},
	}
}

func TestUserStore_Contract(t *testing.T) {
	ctx := context.Background()
	for _, bc := range backends(t) {
		t.Run(bc.name, func(t *testing.T) {
			rec, err := bc.users.Get(ctx, 42)
			require.NoError(t, err)
			assert.Equal(t, UserRecord{UserID: 42}, rec)
			assert.False(t, rec.Known())

			want := UserRecord{UserID: 42, LastResetDate: "2024-05-01", RequestCount: 3, JoinedDate: "2024-04-30"}
			require.NoError(t, bc.users.Put(ctx, want))
			got, err := bc.users.Get(ctx, 42)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.True(t, got.Known())

			// full overwrite, idempotent
			want.RequestCount = 0
			require.NoError(t, bc.users.Put(ctx, want))
			require.NoError(t, bc.users.Put(ctx, want))
			got, err = bc.users.Get(ctx, 42)
			require.NoError(t, err)
			assert.Equal(t, 0, got.RequestCount)

			require.NoError(t, bc.users.Put(ctx, UserRecord{UserID: 7, LastResetDate: "2024-05-01"}))
			all, err := bc.users.All(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, int64(7), all[0].UserID)
			assert.Equal(t, int64(42), all[1].UserID)
		})
	}
}

func TestPostLog_Contract(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for _, bc := range backends(t) {
		t.Run(bc.name, func(t *testing.T) {
			all, err := bc.posts.All(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)

			require.NoError(t, bc.posts.Append(ctx, PostLogEntry{UserID: 1, Platform: "twitter", Content: "a", Timestamp: base}))
			require.NoError(t, bc.posts.Append(ctx, PostLogEntry{UserID: 1, Platform: "linkedin", Content: "b", Timestamp: base.Add(time.Minute)}))
			require.NoError(t, bc.posts.Append(ctx, PostLogEntry{UserID: 2, Platform: "twitter", Content: "c", Timestamp: base.Add(2 * time.Minute)}))

			all, err = bc.posts.All(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)

			var user1 []string
			for _, e := range all {
				if e.UserID == 1 {
					user1 = append(user1, e.Content)
				}
			}
			assert.Equal(t, []string{"a", "b"}, user1)

			require.NoError(t, bc.posts.Clear(ctx))
			all, err = bc.posts.All(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestFileUserStore_ReadsLegacyLayout(t *testing.T) {
	p := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"123": {"date": "2024-01-02", "count": 4}}`), 0o644))

	s, err := NewFileUserStore(p)
	require.NoError(t, err)
	rec, err := s.Get(context.Background(), 123)
	require.NoError(t, err)
	assert.Equal(t, UserRecord{UserID: 123, LastResetDate: "2024-01-02", RequestCount: 4}, rec)
}

func TestFileUserStore_CorruptFileIsStorageError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(p, []byte(`{not json`), 0o644))

	s, err := NewFileUserStore(p)
	require.NoError(t, err)
	_, err = s.Get(context.Background(), 1)
	require.ErrorIs(t, err, errs.ErrStorage)
}

func TestRedisStore_UnavailableIsStorageError(t *testing.T) {
	mr := miniredis.RunT(t)
	rs := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), "test")
	t.Cleanup(func() { _ = rs.Close() })
	mr.Close()

	_, err := rs.Users().Get(context.Background(), 1)
	require.ErrorIs(t, err, errs.ErrStorage)
}

func TestOpen_SelectsBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		StorageBackend: config.BackendBolt,
		BoltPath:       filepath.Join(dir, "bot.db"),
	}
	b, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	require.NoError(t, b.Users.Put(context.Background(), UserRecord{UserID: 1, LastResetDate: "2024-01-01"}))

	cfg.StorageBackend = config.BackendMemory
	m, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, m.Close())

	cfg.StorageBackend = "nope"
	_, err = Open(context.Background(), cfg)
	assert.Error(t, err)
}
