package domain

import (
	"context"
	"time"
)

// StoreInitializer initializes the data store.
type StoreInitializer interface {
	// Initialize creates the store and seeds the given columns if it doesn't exist.
	Initialize(statuses []IssueStatus) error

	// IsInitialized reports whether the store exists.
	IsInitialized() bool
}

// IssueRepository manages issue and column persistence.
type IssueRepository interface {
	// GetIssue retrieves an issue by ID. Returns nil if not found.
	GetIssue(id IssueID) (*Issue, error)

	// ListIssues returns every issue sorted by list position.
	ListIssues() ([]Issue, error)

	// SaveIssue creates or updates an issue.
	SaveIssue(issue *Issue) error

	// UpdateIssue applies fn to the stored issue and saves the result as one
	// atomic read-modify-write. Nothing is written if fn fails.
	// Returns ErrIssueNotFound if the issue does not exist.
	UpdateIssue(id IssueID, fn func(*Issue) error) (*Issue, error)

	// DeleteIssue removes an issue by ID.
	DeleteIssue(id IssueID) error

	// NextIssueID returns the next available issue ID.
	NextIssueID() (IssueID, error)

	// ListStatuses returns every column sorted by position.
	ListStatuses() ([]IssueStatus, error)

	// SaveStatus creates or updates a column.
	SaveStatus(status *IssueStatus) error

	// DeleteStatus removes a column by ID.
	DeleteStatus(id IssueStatusID) error
}

// Store combines repository and initialization.
type Store interface {
	IssueRepository
	StoreInitializer
}

// ChangeKind names what changed in the store.
type ChangeKind string

// Change kinds.
const (
	ChangeIssues   ChangeKind = "issues"
	ChangeStatuses ChangeKind = "statuses"
)

// ChangeNotifier tells other processes sharing the store that it changed.
type ChangeNotifier interface {
	Notify(ctx context.Context, kind ChangeKind) error
}

// Logger writes leveled, categorized log lines.
type Logger interface {
	Debug(category, msg string)
	Info(category, msg string)
	Warn(category, msg string)
	Error(category, msg string)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, string) {}
func (NopLogger) Info(string, string)  {}
func (NopLogger) Warn(string, string)  {}
func (NopLogger) Error(string, string) {}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (board + global).
	Load() (*Config, error)

	// LoadGlobal returns only the global configuration.
	LoadGlobal() (*Config, error)
}

// ConfigManager manages configuration files.
type ConfigManager interface {
	// GetBoardConfigInfo returns information about the board config file.
	GetBoardConfigInfo() ConfigInfo

	// GetGlobalConfigInfo returns information about the global config file.
	GetGlobalConfigInfo() ConfigInfo

	// InitBoardConfig creates the board config file from the template.
	InitBoardConfig(cfg *Config) error

	// InitGlobalConfig creates the global config file from the template.
	InitGlobalConfig(cfg *Config) error
}

// ConfigInfo holds information about a config file.
type ConfigInfo struct {
	Path    string // File path
	Content string // File content (empty if not exists)
	Exists  bool   // Whether the file exists
}

// ExecCommand is an external command to run.
type ExecCommand struct {
	Program string
	Dir     string
	Args    []string
}

// CommandExecutor runs external commands.
type CommandExecutor interface {
	// Execute runs cmd and returns its combined output.
	Execute(ctx context.Context, cmd *ExecCommand) ([]byte, error)
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
