// Package jsonstore provides a JSON file-based implementation of domain.Store.
package jsonstore

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"syscall"

	"github.com/runoshun/kanban-sync/internal/domain"
)

// storeData represents the JSON file structure.
// Fields are ordered to minimize memory padding.
type storeData struct {
	Issues   map[string]*domain.Issue       `json:"issues"`
	Statuses map[string]*domain.IssueStatus `json:"statuses"`
	Meta     meta                           `json:"meta"`
}

// meta contains store metadata.
type meta struct {
	NextIssueID domain.IssueID `json:"nextIssueID"`
}

// Store implements domain.Store using a JSON file guarded by flock.
type Store struct {
	path     string
	lockPath string
}

// Ensure Store implements domain.Store.
var _ domain.Store = (*Store)(nil)

// New creates a new Store for the given file path.
// The file does not need to exist; Initialize creates it.
func New(path string) *Store {
	return &Store{
		path:     path,
		lockPath: domain.LockPath(path),
	}
}

func key[T ~int32](id T) string {
	return strconv.FormatInt(int64(id), 10)
}

// GetIssue retrieves an issue by ID.
func (s *Store) GetIssue(id domain.IssueID) (*domain.Issue, error) {
	var issue *domain.Issue
	err := s.withLock(func(data *storeData) error {
		if i, ok := data.Issues[key(id)]; ok {
			issue = i
			issue.ID = id
		}
		return nil
	})
	return issue, err
}

// ListIssues returns all issues sorted by list position, ties by ID.
func (s *Store) ListIssues() ([]domain.Issue, error) {
	var issues []domain.Issue
	err := s.withLock(func(data *storeData) error {
		issues = make([]domain.Issue, 0, len(data.Issues))
		for k, i := range data.Issues {
			id, err := strconv.ParseInt(k, 10, 32)
			if err != nil {
				return fmt.Errorf("parse issue key %q: %w", k, err)
			}
			i.ID = domain.IssueID(id)
			issues = append(issues, *i)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(issues, func(a, b domain.Issue) int { return cmp.Compare(a.ID, b.ID) })
	domain.SortIssues(issues)
	return issues, nil
}

// SaveIssue creates or updates an issue.
func (s *Store) SaveIssue(issue *domain.Issue) error {
	return s.withLockWrite(func(data *storeData) error {
		cp := *issue
		data.Issues[key(issue.ID)] = &cp
		if issue.ID >= data.Meta.NextIssueID {
			data.Meta.NextIssueID = issue.ID + 1
		}
		return nil
	})
}

// UpdateIssue applies fn to an issue while holding the write lock.
func (s *Store) UpdateIssue(id domain.IssueID, fn func(*domain.Issue) error) (*domain.Issue, error) {
	var updated domain.Issue
	err := s.withLockWrite(func(data *storeData) error {
		stored, ok := data.Issues[key(id)]
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrIssueNotFound, id)
		}
		issue := *stored
		issue.ID = id
		if err := fn(&issue); err != nil {
			return err
		}
		issue.ID = id
		data.Issues[key(id)] = &issue
		updated = issue
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteIssue removes an issue by ID.
func (s *Store) DeleteIssue(id domain.IssueID) error {
	return s.withLockWrite(func(data *storeData) error {
		if _, ok := data.Issues[key(id)]; !ok {
			return fmt.Errorf("%w: %d", domain.ErrIssueNotFound, id)
		}
		delete(data.Issues, key(id))
		return nil
	})
}

// NextIssueID reserves and returns the next issue ID.
func (s *Store) NextIssueID() (domain.IssueID, error) {
	var id domain.IssueID
	err := s.withLockWrite(func(data *storeData) error {
		id = data.Meta.NextIssueID
		data.Meta.NextIssueID++
		return nil
	})
	return id, err
}

// ListStatuses returns all columns sorted by position.
func (s *Store) ListStatuses() ([]domain.IssueStatus, error) {
	var statuses []domain.IssueStatus
	err := s.withLock(func(data *storeData) error {
		statuses = make([]domain.IssueStatus, 0, len(data.Statuses))
		for k, st := range data.Statuses {
			id, err := strconv.ParseInt(k, 10, 32)
			if err != nil {
				return fmt.Errorf("parse status key %q: %w", k, err)
			}
			st.ID = domain.IssueStatusID(id)
			statuses = append(statuses, *st)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(statuses, func(a, b domain.IssueStatus) int { return cmp.Compare(a.ID, b.ID) })
	domain.SortStatuses(statuses)
	return statuses, nil
}

// SaveStatus creates or updates a column.
func (s *Store) SaveStatus(status *domain.IssueStatus) error {
	return s.withLockWrite(func(data *storeData) error {
		cp := *status
		data.Statuses[key(status.ID)] = &cp
		return nil
	})
}

// DeleteStatus removes a column by ID.
func (s *Store) DeleteStatus(id domain.IssueStatusID) error {
	return s.withLockWrite(func(data *storeData) error {
		if _, ok := data.Statuses[key(id)]; !ok {
			return fmt.Errorf("%w: %d", domain.ErrStatusNotFound, id)
		}
		delete(data.Statuses, key(id))
		return nil
	})
}

// IsInitialized checks if the store file exists.
func (s *Store) IsInitialized() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Initialize creates the store file with the given columns if it doesn't exist.
func (s *Store) Initialize(statuses []domain.IssueStatus) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	if _, err := os.Stat(s.path); err == nil {
		return nil
	}

	data := &storeData{
		Meta:     meta{NextIssueID: 1},
		Issues:   make(map[string]*domain.Issue),
		Statuses: make(map[string]*domain.IssueStatus, len(statuses)),
	}
	for i := range statuses {
		st := statuses[i]
		data.Statuses[key(st.ID)] = &st
	}

	return s.write(data)
}

// withLock executes fn with a shared (read) lock.
func (s *Store) withLock(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	return fn(data)
}

// withLockWrite executes fn with an exclusive (write) lock and writes the result.
func (s *Store) withLockWrite(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	if err := fn(data); err != nil {
		return err
	}

	return s.write(data)
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func (s *Store) releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

func (s *Store) read() (*storeData, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotInitialized
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var data storeData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parse store file: %w", err)
	}

	if data.Issues == nil {
		data.Issues = make(map[string]*domain.Issue)
	}
	if data.Statuses == nil {
		data.Statuses = make(map[string]*domain.IssueStatus)
	}
	if data.Meta.NextIssueID < 1 {
		data.Meta.NextIssueID = 1
	}

	return &data, nil
}

func (s *Store) write(data *storeData) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store data: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
