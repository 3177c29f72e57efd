// Package sqlitestore provides a SQLite implementation of domain.Store.
package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/runoshun/kanban-sync/internal/domain"
)

// Store implements domain.Store on a single SQLite database file.
type Store struct {
	db *sql.DB
}

// Ensure Store implements domain.Store.
var _ domain.Store = (*Store)(nil)

const (
	metaInitialized = "initialized"
	metaNextIssueID = "next_issue_id"
)

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS statuses (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS issues (
			id INTEGER PRIMARY KEY,
			status_id INTEGER NOT NULL,
			list_position INTEGER NOT NULL,
			reporter_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			assignee_ids TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS issues_by_column ON issues(status_id, list_position);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// IsInitialized reports whether Initialize has run.
func (s *Store) IsInitialized() bool {
	return s.requireInitialized() == nil
}

func (s *Store) requireInitialized() error {
	var v string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaInitialized).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotInitialized
	}
	if err != nil {
		return fmt.Errorf("read meta: %w", err)
	}
	return nil
}

// Initialize seeds the columns once.
func (s *Store) Initialize(statuses []domain.IssueStatus) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT OR IGNORE INTO meta(key, value) VALUES (?, ?)`, metaInitialized, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("mark initialized: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	for _, st := range statuses {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO statuses(id, name, position) VALUES (?, ?, ?)`, st.ID, st.Name, st.Position); err != nil {
			return fmt.Errorf("seed status %d: %w", st.ID, err)
		}
	}
	if _, err := tx.Exec(`INSERT OR IGNORE INTO meta(key, value) VALUES (?, '1')`, metaNextIssueID); err != nil {
		return fmt.Errorf("init meta: %w", err)
	}
	return tx.Commit()
}

const issueColumns = `id, status_id, list_position, reporter_id, title, description, assignee_ids, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (domain.Issue, error) {
	var (
		issue            domain.Issue
		assignees        string
		created, updated string
	)
	if err := row.Scan(&issue.ID, &issue.IssueStatusID, &issue.ListPosition, &issue.ReporterID,
		&issue.Title, &issue.Description, &assignees, &created, &updated); err != nil {
		return issue, err
	}
	if err := json.Unmarshal([]byte(assignees), &issue.AssigneeIDs); err != nil {
		return issue, fmt.Errorf("decode assignees of issue %d: %w", issue.ID, err)
	}
	if len(issue.AssigneeIDs) == 0 {
		issue.AssigneeIDs = nil
	}
	var err error
	if issue.CreatedAt, err = parseTime(created); err != nil {
		return issue, err
	}
	if issue.UpdatedAt, err = parseTime(updated); err != nil {
		return issue, err
	}
	return issue, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// GetIssue retrieves an issue by ID.
func (s *Store) GetIssue(id domain.IssueID) (*domain.Issue, error) {
	if err := s.requireInitialized(); err != nil {
		return nil, err
	}
	issue, err := scanIssue(s.db.QueryRow(`SELECT `+issueColumns+` FROM issues WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get issue %d: %w", id, err)
	}
	return &issue, nil
}

// ListIssues returns all issues sorted by list position, ties by ID.
func (s *Store) ListIssues() ([]domain.Issue, error) {
	if err := s.requireInitialized(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT ` + issueColumns + ` FROM issues ORDER BY list_position, id`)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// SaveIssue creates or updates an issue.
func (s *Store) SaveIssue(issue *domain.Issue) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := putIssue(tx, issue); err != nil {
		return err
	}

	next, err := nextIssueID(tx)
	if err != nil {
		return err
	}
	if issue.ID >= next {
		if err := setNextIssueID(tx, issue.ID+1); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpdateIssue reads, modifies and rewrites an issue in one transaction.
func (s *Store) UpdateIssue(id domain.IssueID, fn func(*domain.Issue) error) (*domain.Issue, error) {
	if err := s.requireInitialized(); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	issue, err := scanIssue(tx.QueryRow(`SELECT `+issueColumns+` FROM issues WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrIssueNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get issue %d: %w", id, err)
	}

	if err := fn(&issue); err != nil {
		return nil, err
	}
	issue.ID = id
	if err := putIssue(tx, &issue); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &issue, nil
}

func putIssue(tx *sql.Tx, issue *domain.Issue) error {
	assignees := issue.AssigneeIDs
	if assignees == nil {
		assignees = []domain.UserID{}
	}
	enc, err := json.Marshal(assignees)
	if err != nil {
		return fmt.Errorf("encode assignees: %w", err)
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO issues(`+issueColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, issue.IssueStatusID, issue.ListPosition, issue.ReporterID,
		issue.Title, issue.Description, string(enc),
		formatTime(issue.CreatedAt), formatTime(issue.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save issue %d: %w", issue.ID, err)
	}
	return nil
}

// DeleteIssue removes an issue.
func (s *Store) DeleteIssue(id domain.IssueID) error {
	res, err := s.db.Exec(`DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete issue %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", domain.ErrIssueNotFound, id)
	}
	return nil
}

// NextIssueID reserves and returns the next issue ID.
func (s *Store) NextIssueID() (domain.IssueID, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := nextIssueID(tx)
	if err != nil {
		return 0, err
	}
	if err := setNextIssueID(tx, id+1); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

func nextIssueID(tx *sql.Tx) (domain.IssueID, error) {
	var v string
	err := tx.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaNextIssueID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		var maxID sql.NullInt64
		if err := tx.QueryRow(`SELECT MAX(id) FROM issues`).Scan(&maxID); err != nil {
			return 0, fmt.Errorf("max issue id: %w", err)
		}
		return domain.IssueID(maxID.Int64 + 1), nil
	}
	if err != nil {
		return 0, fmt.Errorf("read next issue id: %w", err)
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse next issue id %q: %w", v, err)
	}
	return domain.IssueID(n), nil
}

func setNextIssueID(tx *sql.Tx, id domain.IssueID) error {
	_, err := tx.Exec(`INSERT INTO meta(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, metaNextIssueID, strconv.FormatInt(int64(id), 10))
	if err != nil {
		return fmt.Errorf("write next issue id: %w", err)
	}
	return nil
}

// ListStatuses returns all columns sorted by position.
func (s *Store) ListStatuses() ([]domain.IssueStatus, error) {
	if err := s.requireInitialized(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT id, name, position FROM statuses ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var statuses []domain.IssueStatus
	for rows.Next() {
		var st domain.IssueStatus
		if err := rows.Scan(&st.ID, &st.Name, &st.Position); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}

// SaveStatus creates or updates a column.
func (s *Store) SaveStatus(status *domain.IssueStatus) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO statuses(id, name, position) VALUES (?, ?, ?)`,
		status.ID, status.Name, status.Position)
	if err != nil {
		return fmt.Errorf("save status %d: %w", status.ID, err)
	}
	return nil
}

// DeleteStatus removes a column.
func (s *Store) DeleteStatus(id domain.IssueStatusID) error {
	res, err := s.db.Exec(`DELETE FROM statuses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete status %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", domain.ErrStatusNotFound, id)
	}
	return nil
}
