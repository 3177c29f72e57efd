// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/runoshun/kanban-sync/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// MockIssueRepository is a test double for domain.Store.
// Fields are ordered to minimize memory padding.
type MockIssueRepository struct {
	Issues      map[domain.IssueID]*domain.Issue
	Statuses    map[domain.IssueStatusID]*domain.IssueStatus
	SaveErr     error
	GetErr      error
	ListErr     error
	DeleteErr   error
	NextIDErr   error
	NextIDN     domain.IssueID
	mu          sync.Mutex
	Initialized bool
}

var _ domain.Store = (*MockIssueRepository)(nil)

// NewMockIssueRepository creates a new MockIssueRepository with initialized maps.
func NewMockIssueRepository() *MockIssueRepository {
	return &MockIssueRepository{
		Issues:      make(map[domain.IssueID]*domain.Issue),
		Statuses:    make(map[domain.IssueStatusID]*domain.IssueStatus),
		NextIDN:     1,
		Initialized: true,
	}
}

// Seed stores copies of the given issues and statuses.
func (m *MockIssueRepository) Seed(issues []domain.Issue, statuses []domain.IssueStatus) {
	for i := range issues {
		issue := issues[i]
		m.Issues[issue.ID] = &issue
		if issue.ID >= m.NextIDN {
			m.NextIDN = issue.ID + 1
		}
	}
	for i := range statuses {
		status := statuses[i]
		m.Statuses[status.ID] = &status
	}
}

// GetIssue retrieves an issue by ID.
func (m *MockIssueRepository) GetIssue(id domain.IssueID) (*domain.Issue, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	issue, ok := m.Issues[id]
	if !ok {
		return nil, nil
	}
	cp := *issue
	return &cp, nil
}

// ListIssues returns all issues sorted by list position, ties by id.
func (m *MockIssueRepository) ListIssues() ([]domain.Issue, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	issues := make([]domain.Issue, 0, len(m.Issues))
	for _, issue := range m.Issues {
		issues = append(issues, *issue)
	}
	slices.SortFunc(issues, func(a, b domain.Issue) int { return cmp.Compare(a.ID, b.ID) })
	domain.SortIssues(issues)
	return issues, nil
}

// SaveIssue saves an issue.
func (m *MockIssueRepository) SaveIssue(issue *domain.Issue) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	cp := *issue
	m.Issues[issue.ID] = &cp
	return nil
}

// UpdateIssue applies fn to a copy of the stored issue under a lock.
func (m *MockIssueRepository) UpdateIssue(id domain.IssueID, fn func(*domain.Issue) error) (*domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	stored, ok := m.Issues[id]
	if !ok {
		return nil, domain.ErrIssueNotFound
	}
	issue := *stored
	if err := fn(&issue); err != nil {
		return nil, err
	}
	m.Issues[id] = &issue
	cp := issue
	return &cp, nil
}

// DeleteIssue removes an issue by ID.
func (m *MockIssueRepository) DeleteIssue(id domain.IssueID) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.Issues[id]; !ok {
		return domain.ErrIssueNotFound
	}
	delete(m.Issues, id)
	return nil
}

// NextIssueID returns the next available issue ID.
func (m *MockIssueRepository) NextIssueID() (domain.IssueID, error) {
	if m.NextIDErr != nil {
		return 0, m.NextIDErr
	}
	id := m.NextIDN
	m.NextIDN++
	return id, nil
}

// ListStatuses returns all statuses sorted by position.
func (m *MockIssueRepository) ListStatuses() ([]domain.IssueStatus, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	statuses := make([]domain.IssueStatus, 0, len(m.Statuses))
	for _, s := range m.Statuses {
		statuses = append(statuses, *s)
	}
	domain.SortStatuses(statuses)
	return statuses, nil
}

// SaveStatus saves a status.
func (m *MockIssueRepository) SaveStatus(status *domain.IssueStatus) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	cp := *status
	m.Statuses[status.ID] = &cp
	return nil
}

// DeleteStatus removes a status by ID.
func (m *MockIssueRepository) DeleteStatus(id domain.IssueStatusID) error {
	if _, ok := m.Statuses[id]; !ok {
		return domain.ErrStatusNotFound
	}
	delete(m.Statuses, id)
	return nil
}

// Initialize seeds statuses and marks the store initialized.
func (m *MockIssueRepository) Initialize(statuses []domain.IssueStatus) error {
	if m.Initialized {
		return nil
	}
	m.Seed(nil, statuses)
	m.Initialized = true
	return nil
}

// IsInitialized returns the configured value.
func (m *MockIssueRepository) IsInitialized() bool {
	return m.Initialized
}

// ErrTransportClosed is returned by MockTransport when Err is not set.
var ErrTransportClosed = errors.New("transport closed")

// MockTransport records written frames. After FailAfter successful writes
// (when positive) every write fails with Err or ErrTransportClosed.
type MockTransport struct {
	Err       error
	Frames    [][]byte
	FailAfter int
	Fail      bool
	mu        sync.Mutex
}

// WriteFrame records the frame or fails.
func (m *MockTransport) WriteFrame(frame []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail || (m.FailAfter > 0 && len(m.Frames) >= m.FailAfter) {
		if m.Err != nil {
			return m.Err
		}
		return ErrTransportClosed
	}
	m.Frames = append(m.Frames, append([]byte(nil), frame...))
	return nil
}

// Written returns a copy of the recorded frames.
func (m *MockTransport) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.Frames...)
}

// LogEntry is one line captured by MockLogger.
type LogEntry struct {
	Level    string
	Category string
	Msg      string
}

// String formats the entry like the file logger.
func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] [%s] %s", e.Level, e.Category, e.Msg)
}

// MockLogger captures log lines in memory.
type MockLogger struct {
	Entries []LogEntry
	mu      sync.Mutex
}

var _ domain.Logger = (*MockLogger)(nil)

func (m *MockLogger) add(level, category, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, LogEntry{Level: level, Category: category, Msg: msg})
}

// Debug records a debug line.
func (m *MockLogger) Debug(category, msg string) { m.add("DEBUG", category, msg) }

// Info records an info line.
func (m *MockLogger) Info(category, msg string) { m.add("INFO", category, msg) }

// Warn records a warn line.
func (m *MockLogger) Warn(category, msg string) { m.add("WARN", category, msg) }

// Error records an error line.
func (m *MockLogger) Error(category, msg string) { m.add("ERROR", category, msg) }

// Count returns how many entries have the given level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockConfigManager is a test double for domain.ConfigManager.
// Fields are ordered to minimize memory padding.
type MockConfigManager struct {
	InitBoardErr     error
	InitGlobalErr    error
	BoardConfigInfo  domain.ConfigInfo
	GlobalConfigInfo domain.ConfigInfo
	InitBoardCalled  bool
	InitGlobalCalled bool
}

var _ domain.ConfigManager = (*MockConfigManager)(nil)

// NewMockConfigManager creates a new MockConfigManager.
func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{}
}

// GetBoardConfigInfo returns the configured board config info.
func (m *MockConfigManager) GetBoardConfigInfo() domain.ConfigInfo {
	return m.BoardConfigInfo
}

// GetGlobalConfigInfo returns the configured global config info.
func (m *MockConfigManager) GetGlobalConfigInfo() domain.ConfigInfo {
	return m.GlobalConfigInfo
}

// InitBoardConfig records the call.
func (m *MockConfigManager) InitBoardConfig(_ *domain.Config) error {
	m.InitBoardCalled = true
	return m.InitBoardErr
}

// InitGlobalConfig records the call.
func (m *MockConfigManager) InitGlobalConfig(_ *domain.Config) error {
	m.InitGlobalCalled = true
	return m.InitGlobalErr
}

// MockNotifier records change notices.
type MockNotifier struct {
	Err     error
	Changes []domain.ChangeKind
	mu      sync.Mutex
}

var _ domain.ChangeNotifier = (*MockNotifier)(nil)

// Notify records kind.
func (m *MockNotifier) Notify(_ context.Context, kind domain.ChangeKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Changes = append(m.Changes, kind)
	return m.Err
}

// Count returns the number of recorded notices.
func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Changes)
}

// MockStoreInitializer is a test double for domain.StoreInitializer.
type MockStoreInitializer struct {
	InitErr     error
	Seeded      []domain.IssueStatus
	Initialized bool
}

var _ domain.StoreInitializer = (*MockStoreInitializer)(nil)

// Initialize records the seeded columns.
func (m *MockStoreInitializer) Initialize(statuses []domain.IssueStatus) error {
	if m.InitErr != nil {
		return m.InitErr
	}
	m.Seeded = statuses
	m.Initialized = true
	return nil
}

// IsInitialized returns the configured value.
func (m *MockStoreInitializer) IsInitialized() bool {
	return m.Initialized
}

// MockCommandExecutor records executed commands.
type MockCommandExecutor struct {
	ExecuteErr    error
	ExecuteOutput []byte
	Commands      []domain.ExecCommand
	mu            sync.Mutex
}

var _ domain.CommandExecutor = (*MockCommandExecutor)(nil)

// NewMockCommandExecutor creates a new MockCommandExecutor.
func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{}
}

// Execute records cmd and returns the configured output and error.
func (m *MockCommandExecutor) Execute(_ context.Context, cmd *domain.ExecCommand) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = append(m.Commands, *cmd)
	return m.ExecuteOutput, m.ExecuteErr
}
