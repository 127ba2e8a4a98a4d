package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type memRepo struct{ admins []Admin }

func (m *memRepo) LoadAll() ([]Admin, error) { return append([]Admin{}, m.admins...), nil }
func (m *memRepo) Upsert(a Admin) error {
	for i, x := range m.admins {
		if x.ID == a.ID {
			m.admins[i] = a
			return nil
		}
	}
	m.admins = append(m.admins, a)
	return nil
}
func (m *memRepo) Remove(id int64) error {
	out := make([]Admin, 0, len(m.admins))
	for _, x := range m.admins {
		if x.ID != id {
			out = append(out, x)
		}
	}
	m.admins = out
	return nil
}

func TestServiceBasic(t *testing.T) {
	repo := &memRepo{admins: []Admin{{ID: 10, Username: "alice"}}}
	svc, err := NewWithRepo(repo, []int64{20})
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	if !svc.IsAdmin(10) {
		t.Fatalf("repo preload not effective")
	}
	if !svc.IsAdmin(20) {
		t.Fatalf("env list not merged")
	}
	if svc.IsAdmin(30) {
		t.Fatalf("unexpected admin")
	}

	if err := svc.Upsert(Admin{ID: 30, Username: "bob", AddedBy: 20}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !svc.IsAdmin(30) {
		t.Fatalf("upsert not effective")
	}

	if err := svc.Remove(10); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if svc.IsAdmin(10) {
		t.Fatalf("remove not effective")
	}

	ids := svc.IDs()
	if len(ids) != 2 || ids[0] != 20 || ids[1] != 30 {
		t.Fatalf("want [20 30], got %v", ids)
	}
	if lst := svc.List(); len(lst) != 2 || lst[1].Username != "bob" {
		t.Fatalf("unexpected list %+v", lst)
	}
}

func TestServiceFixedAdminsCannotBeRemoved(t *testing.T) {
	svc, err := NewWithRepo(nil, []int64{1})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := svc.Remove(1); !errors.Is(err, ErrFixedAdmin) {
		t.Fatalf("want ErrFixedAdmin, got %v", err)
	}
	if !svc.IsAdmin(1) {
		t.Fatalf("fixed admin removed")
	}
}

func TestFileRepositoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "admins.json")
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	admins, err := repo.LoadAll()
	if err != nil || len(admins) != 0 {
		t.Fatalf("empty file: got %v, %v", admins, err)
	}

	if err := repo.Upsert(Admin{ID: 5, Username: "a"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(Admin{ID: 5, Username: "b"}); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if err := repo.Upsert(Admin{ID: 6}); err != nil {
		t.Fatalf("upsert 6: %v", err)
	}
	if err := repo.Remove(6); err != nil {
		t.Fatalf("remove: %v", err)
	}

	admins, err = repo.LoadAll()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(admins) != 1 || admins[0].Username != "b" {
		t.Fatalf("unexpected admins %+v", admins)
	}
}

func TestFileRepositoryMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admins.json")
	if err := os.WriteFile(path, []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	if _, err := NewWithRepo(repo, nil); err == nil {
		t.Fatalf("expected decode error")
	}
}
