package storage

import (
	"context"
	"fmt"
	"time"

	"social-poster/internal/errs"
)

// DateLayout is the calendar date format used for quota bookkeeping (UTC).
const DateLayout = "2006-01-02"

// UserRecord is the per-user quota state.
// RequestCount is only meaningful relative to LastResetDate.
type UserRecord struct {
	UserID        int64  `json:"user_id"`
	LastResetDate string `json:"date"`
	RequestCount  int    `json:"count"`
	JoinedDate    string `json:"joined,omitempty"`
}

// Known reports whether the record was ever persisted.
func (r UserRecord) Known() bool {
	return r.LastResetDate != "" || r.JoinedDate != ""
}

// PostLogEntry is one successful generation. Entries are append-only.
type PostLogEntry struct {
	UserID    int64     `json:"user_id"`
	Platform  string    `json:"platform"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// UserStore persists UserRecords keyed by user id.
// Get never fails for a missing key: it returns a zero record carrying only
// the UserID. All returns a best-effort snapshot.
// Implementations must be safe for concurrent use.
type UserStore interface {
	Get(ctx context.Context, userID int64) (UserRecord, error)
	Put(ctx context.Context, rec UserRecord) error
	All(ctx context.Context) ([]UserRecord, error)
}

// PostLog is the append-only generation log used for admin stats.
// All returns entries in append order per user.
type PostLog interface {
	Append(ctx context.Context, entry PostLogEntry) error
	All(ctx context.Context) ([]PostLogEntry, error)
	Clear(ctx context.Context) error
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, errs.ErrStorage, err)
}
