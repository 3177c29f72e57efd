package jsonstore

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/infra/storetest"
)

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.Store {
		return New(filepath.Join(t.TempDir(), "board.json"))
	})
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := New(filepath.Join(t.TempDir(), "board.json"))
	if err := store.Initialize(domain.DefaultStatuses()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return store
}

func TestStore_InitializeCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".kanban", "board.json")
	store := New(path)

	if err := store.Initialize(nil); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("store file not created: %v", err)
	}
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := New(path).ListIssues()
	if err == nil {
		t.Fatal("ListIssues() expected error for corrupt file")
	}
	if errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("ListIssues() error = %v, want parse error", err)
	}
}

func TestStore_ConcurrentNextIssueID(t *testing.T) {
	store := newTestStore(t)
	other := New(store.path)

	const n = 20
	ids := make(chan domain.IssueID, 2*n)
	var wg sync.WaitGroup
	for _, s := range []*Store{store, other} {
		wg.Add(1)
		go func(s *Store) {
			defer wg.Done()
			for range n {
				id, err := s.NextIssueID()
				if err != nil {
					t.Errorf("NextIssueID() error = %v", err)
					return
				}
				ids <- id
			}
		}(s)
	}
	wg.Wait()
	close(ids)

	seen := make(map[domain.IssueID]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("NextIssueID() returned %d twice", id)
		}
		seen[id] = true
	}
	if len(seen) != 2*n {
		t.Errorf("got %d ids, want %d", len(seen), 2*n)
	}
}

func TestStore_NoTempFileLeft(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveIssue(&domain.Issue{ID: 1, Title: "x"}); err != nil {
		t.Fatalf("SaveIssue() error = %v", err)
	}
	if _, err := os.Stat(store.path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}
