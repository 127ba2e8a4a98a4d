// Package auth keeps the admin allow-list.
//
// Admins come from two sources: ADMIN_IDS in the environment (fixed for the
// process lifetime) and a JSON file managed at runtime through /grant and
// /revoke. Environment admins cannot be revoked.
package auth

import (
	"errors"
	"sort"
	"sync"
)

var ErrFixedAdmin = errors.New("admin is configured in the environment")

type Admin struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	AddedBy  int64  `json:"added_by,omitempty"`
}

type Repository interface {
	LoadAll() ([]Admin, error)
	Upsert(admin Admin) error
	Remove(userID int64) error
}

type Service struct {
	repo   Repository
	fixed  map[int64]struct{}
	mu     sync.RWMutex
	admins map[int64]Admin
}

func NewWithRepo(repo Repository, initial []int64) (*Service, error) {
	s := &Service{
		repo:   repo,
		fixed:  make(map[int64]struct{}, len(initial)),
		admins: make(map[int64]Admin),
	}
	// preload from repo
	if repo != nil {
		admins, err := repo.LoadAll()
		if err != nil {
			return nil, err
		}
		for _, a := range admins {
			s.admins[a.ID] = a
		}
	}
	// merge env IDs without usernames
	for _, id := range initial {
		s.fixed[id] = struct{}{}
		if _, ok := s.admins[id]; !ok {
			s.admins[id] = Admin{ID: id}
		}
	}
	return s, nil
}

func (s *Service) IsAdmin(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.admins[userID]
	return ok
}

func (s *Service) Upsert(admin Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[admin.ID] = admin
	if s.repo != nil {
		return s.repo.Upsert(admin)
	}
	return nil
}

func (s *Service) Remove(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fixed[userID]; ok {
		return ErrFixedAdmin
	}
	delete(s.admins, userID)
	if s.repo != nil {
		return s.repo.Remove(userID)
	}
	return nil
}

// IDs returns all admin ids in ascending order.
func (s *Service) IDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0, len(s.admins))
	for id := range s.admins {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Service) List() []Admin {
	ids := s.IDs()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Admin, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.admins[id]; ok {
			out = append(out, a)
		}
	}
	return out
}
