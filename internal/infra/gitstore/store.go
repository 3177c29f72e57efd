// Package gitstore stores the board in git refs, one YAML blob per issue.
package gitstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"gopkg.in/yaml.v3"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/infra/crypto"
	"github.com/runoshun/kanban-sync/internal/infra/executor"
)

// Store implements domain.Store using git plumbing (refs and blobs).
//
// Data structure:
//
//	refs/<namespace>/
//	  initialized   → marker blob
//	  meta          → blob (nextIssueID)
//	  issues/<id>   → blob (issue YAML)
//	  statuses/<id> → blob (column YAML)
//
// Refs live outside refs/heads, so the board never shows up in branches but
// can be pushed and fetched with an explicit refspec.
type Store struct {
	repo      *git.Repository
	encryptor *crypto.Encryptor
	executor  domain.CommandExecutor // runs git for Push and Fetch
	repoPath  string                 // path to the repository, used by Push and Fetch
	namespace string // e.g., "kanban"
	mu        sync.RWMutex
}

// Ensure Store implements domain.Store.
var _ domain.Store = (*Store)(nil)

// meta contains store metadata.
type meta struct {
	NextIssueID domain.IssueID `yaml:"nextIssueID"`
}

// New opens the repository at repoPath. If secret is non-empty, blobs are
// encrypted with a key parsed by crypto.ParseKey.
func New(repoPath, namespace, secret string) (*Store, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open git repository: %w", err)
	}

	var encryptor *crypto.Encryptor
	if secret != "" {
		key, err := crypto.ParseKey(secret, namespace)
		if err != nil {
			return nil, err
		}
		encryptor, err = crypto.NewEncryptor(key)
		if err != nil {
			return nil, fmt.Errorf("create encryptor: %w", err)
		}
	}

	s := NewWithRepo(repo, namespace, encryptor)
	s.repoPath = repoPath
	return s, nil
}

// NewWithRepo creates a Store on an open repository. encryptor may be nil.
func NewWithRepo(repo *git.Repository, namespace string, encryptor *crypto.Encryptor) *Store {
	if namespace == "" {
		namespace = domain.DefaultNamespace
	}
	return &Store{
		repo:      repo,
		namespace: namespace,
		encryptor: encryptor,
		executor:  executor.NewClient(),
	}
}

// SetExecutor replaces the command executor used by Push and Fetch.
func (s *Store) SetExecutor(e domain.CommandExecutor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executor = e
}

func (s *Store) refPrefix() string {
	return "refs/" + s.namespace + "/"
}

func (s *Store) issuePrefix() string  { return s.refPrefix() + "issues/" }
func (s *Store) statusPrefix() string { return s.refPrefix() + "statuses/" }

func (s *Store) issueRef(id domain.IssueID) plumbing.ReferenceName {
	return plumbing.ReferenceName(s.issuePrefix() + strconv.FormatInt(int64(id), 10))
}

func (s *Store) statusRef(id domain.IssueStatusID) plumbing.ReferenceName {
	return plumbing.ReferenceName(s.statusPrefix() + strconv.FormatInt(int64(id), 10))
}

func (s *Store) metaRef() plumbing.ReferenceName {
	return plumbing.ReferenceName(s.refPrefix() + "meta")
}

func (s *Store) initializedRef() plumbing.ReferenceName {
	return plumbing.ReferenceName(s.refPrefix() + "initialized")
}

// GetIssue retrieves an issue by ID.
func (s *Store) GetIssue(id domain.IssueID) (*domain.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireInitialized(); err != nil {
		return nil, err
	}

	var issue domain.Issue
	found, err := s.readRef(s.issueRef(id), &issue)
	if err != nil || !found {
		return nil, err
	}
	issue.ID = id
	return &issue, nil
}

// ListIssues returns all issues sorted by list position, ties by ID.
func (s *Store) ListIssues() ([]domain.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireInitialized(); err != nil {
		return nil, err
	}

	var issues []domain.Issue
	err := s.forEachRef(s.issuePrefix(), func(id int32, ref *plumbing.Reference) error {
		var issue domain.Issue
		if err := s.decodeBlob(ref.Hash(), &issue); err != nil {
			return fmt.Errorf("issue %d: %w", id, err)
		}
		issue.ID = domain.IssueID(id)
		issues = append(issues, issue)
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
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeRef(s.issueRef(issue.ID), issue); err != nil {
		return err
	}

	m, err := s.loadMeta()
	if err != nil {
		return err
	}
	if issue.ID >= m.NextIssueID {
		m.NextIssueID = issue.ID + 1
		return s.saveMeta(m)
	}
	return nil
}

// UpdateIssue applies fn to an issue while holding the store lock.
func (s *Store) UpdateIssue(id domain.IssueID, fn func(*domain.Issue) error) (*domain.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitialized(); err != nil {
		return nil, err
	}

	var issue domain.Issue
	found, err := s.readRef(s.issueRef(id), &issue)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", domain.ErrIssueNotFound, id)
	}
	issue.ID = id
	if err := fn(&issue); err != nil {
		return nil, err
	}
	issue.ID = id
	if err := s.writeRef(s.issueRef(id), &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// DeleteIssue removes an issue.
func (s *Store) DeleteIssue(id domain.IssueID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeRef(s.issueRef(id), domain.ErrIssueNotFound)
}

// NextIssueID reserves and returns the next issue ID.
func (s *Store) NextIssueID() (domain.IssueID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadMeta()
	if err != nil {
		return 0, err
	}

	id := m.NextIssueID
	m.NextIssueID++

	if err := s.saveMeta(m); err != nil {
		return 0, err
	}
	return id, nil
}

// ListStatuses returns all columns sorted by position.
func (s *Store) ListStatuses() ([]domain.IssueStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireInitialized(); err != nil {
		return nil, err
	}

	var statuses []domain.IssueStatus
	err := s.forEachRef(s.statusPrefix(), func(id int32, ref *plumbing.Reference) error {
		var st domain.IssueStatus
		if err := s.decodeBlob(ref.Hash(), &st); err != nil {
			return fmt.Errorf("status %d: %w", id, err)
		}
		st.ID = domain.IssueStatusID(id)
		statuses = append(statuses, st)
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
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeRef(s.statusRef(status.ID), status)
}

// DeleteStatus removes a column.
func (s *Store) DeleteStatus(id domain.IssueStatusID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeRef(s.statusRef(id), domain.ErrStatusNotFound)
}

// Initialize writes the columns and the initialized marker. It is a no-op on
// an initialized store.
func (s *Store) Initialize(statuses []domain.IssueStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.repo.Reference(s.initializedRef(), true)
	if err == nil {
		return nil
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("check initialized ref: %w", err)
	}

	for i := range statuses {
		if err := s.writeRef(s.statusRef(statuses[i].ID), &statuses[i]); err != nil {
			return err
		}
	}

	m, err := s.loadMeta()
	if err != nil {
		return fmt.Errorf("load meta: %w", err)
	}
	if err := s.saveMeta(m); err != nil {
		return err
	}

	hash, err := s.writeBlob([]byte("initialized"))
	if err != nil {
		return err
	}
	if err := s.repo.Storer.SetReference(plumbing.NewHashReference(s.initializedRef(), hash)); err != nil {
		return fmt.Errorf("set initialized ref: %w", err)
	}
	return nil
}

// IsInitialized reports whether the initialized marker exists.
func (s *Store) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.requireInitialized() == nil
}

func (s *Store) requireInitialized() error {
	_, err := s.repo.Reference(s.initializedRef(), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return domain.ErrNotInitialized
	}
	if err != nil {
		return fmt.Errorf("check initialized ref: %w", err)
	}
	return nil
}

// forEachRef calls fn for every ref below prefix whose last element is an id.
func (s *Store) forEachRef(prefix string, fn func(id int32, ref *plumbing.Reference) error) error {
	refs, err := s.repo.References()
	if err != nil {
		return fmt.Errorf("list refs: %w", err)
	}

	return refs.ForEach(func(ref *plumbing.Reference) error {
		idStr, ok := strings.CutPrefix(ref.Name().String(), prefix)
		if !ok {
			return nil
		}
		id, err := strconv.ParseInt(idStr, 10, 32)
		if err != nil {
			return nil // Skip invalid refs
		}
		return fn(int32(id), ref)
	})
}

func (s *Store) readRef(name plumbing.ReferenceName, v any) (bool, error) {
	ref, err := s.repo.Reference(name, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get ref %s: %w", name, err)
	}
	if err := s.decodeBlob(ref.Hash(), v); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) writeRef(name plumbing.ReferenceName, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	hash, err := s.writeBlob(data)
	if err != nil {
		return err
	}

	if err := s.repo.Storer.SetReference(plumbing.NewHashReference(name, hash)); err != nil {
		return fmt.Errorf("set ref %s: %w", name, err)
	}
	return nil
}

func (s *Store) removeRef(name plumbing.ReferenceName, notFound error) error {
	if _, err := s.repo.Reference(name, true); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return fmt.Errorf("%w: %s", notFound, name)
		}
		return fmt.Errorf("get ref %s: %w", name, err)
	}
	if err := s.repo.Storer.RemoveReference(name); err != nil {
		return fmt.Errorf("remove ref %s: %w", name, err)
	}
	return nil
}

func (s *Store) loadMeta() (*meta, error) {
	m := &meta{}
	found, err := s.readRef(s.metaRef(), m)
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	if !found || m.NextIssueID < 1 {
		m.NextIssueID = s.calculateNextIssueID()
	}
	return m, nil
}

// calculateNextIssueID returns one past the highest stored issue ID.
func (s *Store) calculateNextIssueID() domain.IssueID {
	var maxID domain.IssueID
	_ = s.forEachRef(s.issuePrefix(), func(id int32, _ *plumbing.Reference) error {
		maxID = max(maxID, domain.IssueID(id))
		return nil
	})
	return maxID + 1
}

func (s *Store) saveMeta(m *meta) error {
	return s.writeRef(s.metaRef(), m)
}

func (s *Store) decodeBlob(hash plumbing.Hash, v any) error {
	data, err := s.readBlob(hash)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode blob %s: %w", hash, err)
	}
	return nil
}

func (s *Store) writeBlob(data []byte) (plumbing.Hash, error) {
	blobData := data
	if s.encryptor != nil {
		encrypted, err := s.encryptor.Encrypt(data)
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("encrypt data: %w", err)
		}
		blobData = encrypted
	}

	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(blobData)))

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("create blob writer: %w", err)
	}
	if _, err := writer.Write(blobData); err != nil {
		_ = writer.Close()
		return plumbing.ZeroHash, fmt.Errorf("write blob: %w", err)
	}
	_ = writer.Close()

	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("store blob: %w", err)
	}
	return hash, nil
}

func (s *Store) readBlob(hash plumbing.Hash) ([]byte, error) {
	blob, err := s.repo.BlobObject(hash)
	if err != nil {
		return nil, fmt.Errorf("get blob: %w", err)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read blob data: %w", err)
	}

	if s.encryptor != nil {
		decrypted, err := s.encryptor.Decrypt(data)
		if err != nil {
			return nil, fmt.Errorf("decrypt data: %w", err)
		}
		return decrypted, nil
	}
	return data, nil
}

// === Remote sync operations ===

// Refspec returns the refspec covering the board refs.
func (s *Store) Refspec() string {
	return fmt.Sprintf("refs/%s/*:refs/%s/*", s.namespace, s.namespace)
}

// Push pushes the board refs to remote.
func (s *Store) Push(ctx context.Context, remote string) error {
	return s.remoteCmd(ctx, "push", remote)
}

// Fetch fetches the board refs from remote, overwriting local ones.
func (s *Store) Fetch(ctx context.Context, remote string) error {
	return s.remoteCmd(ctx, "fetch", remote)
}

// The git CLI is used for transport so the user's credential helpers apply.
func (s *Store) remoteCmd(ctx context.Context, verb, remote string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repoPath == "" {
		return errors.New("repository path unknown")
	}
	if remote == "" {
		remote = "origin"
	}

	refspec := s.Refspec()
	if verb == "fetch" {
		refspec = "+" + refspec
	}
	output, err := s.executor.Execute(ctx, &domain.ExecCommand{
		Program: "git",
		Args:    []string{"-C", s.repoPath, verb, remote, refspec},
	})
	if err != nil {
		return fmt.Errorf("%s failed: %s: %w", verb, strings.TrimSpace(string(output)), err)
	}
	return nil
}
