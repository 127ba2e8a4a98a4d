package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileRepository stores runtime-granted admins as a JSON array.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	// Touch file if not exists
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) LoadAll() ([]Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadUnlocked()
}

func (r *FileRepository) Upsert(admin Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	admins, err := r.loadUnlocked()
	if err != nil {
		return err
	}
	updated := false
	for i, a := range admins {
		if a.ID == admin.ID {
			admins[i] = admin
			updated = true
			break
		}
	}
	if !updated {
		admins = append(admins, admin)
	}
	return r.saveUnlocked(admins)
}

func (r *FileRepository) Remove(userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	admins, err := r.loadUnlocked()
	if err != nil {
		return err
	}
	out := make([]Admin, 0, len(admins))
	for _, a := range admins {
		if a.ID != userID {
			out = append(out, a)
		}
	}
	return r.saveUnlocked(out)
}

func (r *FileRepository) loadUnlocked() ([]Admin, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read admins: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Admin{}, nil
	}
	var admins []Admin
	if err := json.Unmarshal(data, &admins); err != nil {
		return nil, fmt.Errorf("decode admins %s: %w", r.path, err)
	}
	return admins, nil
}

func (r *FileRepository) saveUnlocked(admins []Admin) error {
	data, err := json.MarshalIndent(admins, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o644)
}
