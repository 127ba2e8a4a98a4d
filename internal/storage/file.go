package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// FileUserStore keeps all user records in a single JSON object keyed by the
// decimal user id. Writes go through a temp file and rename.
type FileUserStore struct {
	path string
	mu   sync.Mutex
}

type fileRecord struct {
	Date   string `json:"date"`
	Count  int    `json:"count"`
	Joined string `json:"joined,omitempty"`
}

func NewFileUserStore(path string) (*FileUserStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	// Touch file if not exists
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileUserStore{path: path}, nil
}

func (s *FileUserStore) Get(_ context.Context, userID int64) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.loadUnlocked()
	if err != nil {
		return UserRecord{}, wrap("load users", err)
	}
	fr, ok := all[strconv.FormatInt(userID, 10)]
	if !ok {
		return UserRecord{UserID: userID}, nil
	}
	return fr.toRecord(userID), nil
}

func (s *FileUserStore) Put(_ context.Context, rec UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.loadUnlocked()
	if err != nil {
		return wrap("load users", err)
	}
	all[strconv.FormatInt(rec.UserID, 10)] = fileRecord{Date: rec.LastResetDate, Count: rec.RequestCount, Joined: rec.JoinedDate}
	if err := s.saveUnlocked(all); err != nil {
		return wrap("save users", err)
	}
	return nil
}

func (s *FileUserStore) All(_ context.Context) ([]UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.loadUnlocked()
	if err != nil {
		return nil, wrap("load users", err)
	}
	out := make([]UserRecord, 0, len(all))
	for key, fr := range all {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, fr.toRecord(id))
	}
	sortRecords(out)
	return out, nil
}

func (fr fileRecord) toRecord(id int64) UserRecord {
	return UserRecord{UserID: id, LastResetDate: fr.Date, RequestCount: fr.Count, JoinedDate: fr.Joined}
}

func (s *FileUserStore) loadUnlocked() (map[string]fileRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	all := make(map[string]fileRecord)
	if len(bytes.TrimSpace(data)) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return all, nil
}

func (s *FileUserStore) saveUnlocked(all map[string]fileRecord) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// FilePostLog appends entries as JSON lines.
type FilePostLog struct {
	path string
	mu   sync.Mutex
}

func NewFilePostLog(path string) (*FilePostLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to init log file: %w", err)
	}
	_ = f.Close()
	return &FilePostLog{path: path}, nil
}

func (l *FilePostLog) Append(_ context.Context, entry PostLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return wrap("open append", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(entry); err != nil {
		return wrap("encode append", err)
	}
	return nil
}

func (l *FilePostLog) All(_ context.Context) ([]PostLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Open(l.path)
	if err != nil {
		return nil, wrap("open read", err)
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 10*1024*1024)
	var entries []PostLogEntry
	for s.Scan() {
		line := s.Bytes()
		if len(line) == 0 {
			continue
		}
		var e PostLogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := s.Err(); err != nil {
		return nil, wrap("scan", err)
	}
	return entries, nil
}

func (l *FilePostLog) Clear(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.Truncate(l.path, 0); err != nil {
		return wrap("truncate", err)
	}
	return nil
}
