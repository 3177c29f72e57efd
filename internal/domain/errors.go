package domain

import "errors"

// Domain errors.
var (
	ErrIssueNotFound      = errors.New("issue not found")
	ErrStatusNotFound     = errors.New("issue status not found")
	ErrInvalidField       = errors.New("invalid issue field")
	ErrInvalidPayload     = errors.New("payload does not match field")
	ErrNotInitialized     = errors.New("board not initialized (run 'kanban init' first)")
	ErrAlreadyInitialized = errors.New("board already initialized")
	ErrConfigExists       = errors.New("config file already exists")
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrUnknownStore       = errors.New("unknown store type")
	ErrStatusNotEmpty     = errors.New("issue status still has issues")
	ErrEmptyName          = errors.New("name cannot be empty")
)
