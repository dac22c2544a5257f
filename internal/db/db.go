package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the catalog database connection
type DB struct {
	*sql.DB
}

// IssueRecord is the catalog row of an archived issue
type IssueRecord struct {
	Repository  string
	Number      int
	Title       string
	State       string
	Author      string
	PullRequest bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
	Labels      []LabelRecord
}

// LabelRecord is a label attached to an archived issue
type LabelRecord struct {
	Name  string
	Color string
}

// PersonRecord is the catalog row of an archived user profile
type PersonRecord struct {
	Login     string
	Name      string
	AvatarURL string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Open connects to the catalog and makes sure the schema exists
func Open(dbPath string) (*DB, error) {
	db, err := New(dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Initialize creates the database schema if it doesn't exist
func (db *DB) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS people (
		login TEXT PRIMARY KEY,
		name TEXT,
		avatar_url TEXT
	);

	CREATE TABLE IF NOT EXISTS issues (
		repository TEXT NOT NULL,
		number INTEGER NOT NULL,
		title TEXT NOT NULL,
		state TEXT NOT NULL,
		author TEXT,
		is_pull_request BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP,
		PRIMARY KEY (repository, number)
	);

	CREATE INDEX IF NOT EXISTS issues_created ON issues (repository, created_at, number);

	CREATE TABLE IF NOT EXISTS issue_labels (
		repository TEXT NOT NULL,
		number INTEGER NOT NULL,
		name TEXT NOT NULL,
		color TEXT NOT NULL,
		PRIMARY KEY (repository, number, name)
	);

	CREATE TABLE IF NOT EXISTS sync_metadata (
		repository TEXT PRIMARY KEY,
		last_sync_time TIMESTAMP NOT NULL
	);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SaveIssue saves an issue and replaces its labels
func (db *DB) SaveIssue(issue IssueRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	query := `
	INSERT INTO issues (repository, number, title, state, author, is_pull_request, created_at, updated_at, closed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(repository, number) DO UPDATE SET
		title = excluded.title,
		state = excluded.state,
		author = excluded.author,
		is_pull_request = excluded.is_pull_request,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		closed_at = excluded.closed_at
	`

	var closedAt interface{}
	if issue.ClosedAt != nil {
		closedAt = issue.ClosedAt.UTC()
	}

	_, err = tx.Exec(
		query,
		issue.Repository,
		issue.Number,
		issue.Title,
		issue.State,
		issue.Author,
		issue.PullRequest,
		issue.CreatedAt.UTC(),
		issue.UpdatedAt.UTC(),
		closedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save issue #%d: %w", issue.Number, err)
	}

	// Labels are replaced as a whole, removed labels must disappear
	_, err = tx.Exec(`DELETE FROM issue_labels WHERE repository = ? AND number = ?`, issue.Repository, issue.Number)
	if err != nil {
		return fmt.Errorf("failed to clear labels of issue #%d: %w", issue.Number, err)
	}
	for _, label := range issue.Labels {
		_, err = tx.Exec(
			`INSERT INTO issue_labels (repository, number, name, color) VALUES (?, ?, ?, ?)
			ON CONFLICT(repository, number, name) DO UPDATE SET color = excluded.color`,
			issue.Repository, issue.Number, label.Name, label.Color,
		)
		if err != nil {
			return fmt.Errorf("failed to save label %s of issue #%d: %w", label.Name, issue.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit issue #%d: %w", issue.Number, err)
	}
	return nil
}

// SavePerson saves a user profile to the database
func (db *DB) SavePerson(person PersonRecord) error {
	query := `
	INSERT INTO people (login, name, avatar_url)
	VALUES (?, ?, ?)
	ON CONFLICT(login) DO UPDATE SET
		name = excluded.name,
		avatar_url = excluded.avatar_url
	`

	_, err := db.Exec(query, person.Login, person.Name, person.AvatarURL)
	if err != nil {
		return fmt.Errorf("failed to save person %s: %w", person.Login, err)
	}

	return nil
}

// IssueNumbers lists the issues of a repository by creation time
func (db *DB) IssueNumbers(repository string, desc bool) ([]int, error) {
	query := `SELECT number FROM issues WHERE repository = ? ORDER BY created_at ASC, number ASC`
	if desc {
		query = `SELECT number FROM issues WHERE repository = ? ORDER BY created_at DESC, number DESC`
	}

	rows, err := db.Query(query, repository)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan issue number: %w", err)
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// GetIssue loads a single issue row, nil if it is not in the catalog
func (db *DB) GetIssue(repository string, number int) (*IssueRecord, error) {
	query := `
	SELECT title, state, author, is_pull_request, created_at, updated_at, closed_at
	FROM issues WHERE repository = ? AND number = ?
	`

	issue := IssueRecord{Repository: repository, Number: number}
	var (
		author   sql.NullString
		closedAt sql.NullTime
	)
	err := db.QueryRow(query, repository, number).Scan(
		&issue.Title,
		&issue.State,
		&author,
		&issue.PullRequest,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&closedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get issue #%d: %w", number, err)
	}
	issue.Author = author.String
	if closedAt.Valid {
		t := closedAt.Time
		issue.ClosedAt = &t
	}

	rows, err := db.Query(`SELECT name, color FROM issue_labels WHERE repository = ? AND number = ? ORDER BY name`, repository, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get labels of issue #%d: %w", number, err)
	}
	defer rows.Close()
	for rows.Next() {
		var label LabelRecord
		if err := rows.Scan(&label.Name, &label.Color); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		issue.Labels = append(issue.Labels, label)
	}

	return &issue, rows.Err()
}

// PersonLogins lists every stored person in alphabetical order
func (db *DB) PersonLogins() ([]string, error) {
	rows, err := db.Query(`SELECT login FROM people ORDER BY login`)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	var logins []string
	for rows.Next() {
		var login string
		if err := rows.Scan(&login); err != nil {
			return nil, fmt.Errorf("failed to scan login: %w", err)
		}
		logins = append(logins, login)
	}
	return logins, rows.Err()
}

// ClearRepository removes every issue row of a repository
func (db *DB) ClearRepository(repository string) error {
	for _, query := range []string{
		`DELETE FROM issue_labels WHERE repository = ?`,
		`DELETE FROM issues WHERE repository = ?`,
		`DELETE FROM sync_metadata WHERE repository = ?`,
	} {
		if _, err := db.Exec(query, repository); err != nil {
			return fmt.Errorf("failed to clear %s: %w", repository, err)
		}
	}
	return nil
}

// GetLastSyncTime gets the last sync time for a repository
func (db *DB) GetLastSyncTime(repoFullName string) (time.Time, error) {
	var lastSyncTime time.Time
	query := `SELECT last_sync_time FROM sync_metadata WHERE repository = ?`

	err := db.QueryRow(query, repoFullName).Scan(&lastSyncTime)
	if err != nil {
		if err == sql.ErrNoRows {
			// If no sync metadata exists, return zero time
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get last sync time: %w", err)
	}

	return lastSyncTime.UTC(), nil
}

// UpdateLastSyncTime updates the last sync time for a repository
func (db *DB) UpdateLastSyncTime(repoFullName string, syncTime time.Time) error {
	query := `
	INSERT INTO sync_metadata (repository, last_sync_time)
	VALUES (?, ?)
	ON CONFLICT(repository) DO UPDATE SET
		last_sync_time = excluded.last_sync_time
	`

	_, err := db.Exec(query, repoFullName, syncTime.UTC())
	if err != nil {
		return fmt.Errorf("failed to update last sync time: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
