package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryUserStore keeps user records in process memory.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[int64]UserRecord
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[int64]UserRecord)}
}

func (m *MemoryUserStore) Get(_ context.Context, userID int64) (UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.users[userID]; ok {
		return rec, nil
	}
	return UserRecord{UserID: userID}, nil
}

func (m *MemoryUserStore) Put(_ context.Context, rec UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[rec.UserID] = rec
	return nil
}

func (m *MemoryUserStore) All(_ context.Context) ([]UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]UserRecord, 0, len(m.users))
	for _, rec := range m.users {
		out = append(out, rec)
	}
	sortRecords(out)
	return out, nil
}

// MemoryPostLog keeps the generation log in process memory.
type MemoryPostLog struct {
	mu      sync.RWMutex
	entries []PostLogEntry
}

func NewMemoryPostLog() *MemoryPostLog {
	return &MemoryPostLog{}
}

func (m *MemoryPostLog) Append(_ context.Context, entry PostLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MemoryPostLog) All(_ context.Context) ([]PostLogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]PostLogEntry(nil), m.entries...), nil
}

func (m *MemoryPostLog) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

func sortRecords(recs []UserRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].UserID < recs[j].UserID })
}
