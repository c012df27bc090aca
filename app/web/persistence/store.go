package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// ErrNotFound is returned when a task with the requested id doesn't exist
var ErrNotFound = errors.New("task not found")

// Task is a single to-do item
type Task struct {
	ID        int64     `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	Completed bool      `json:"completed" yaml:"completed"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// TaskPatch holds optional fields for a partial update, nil fields are left unchanged
type TaskPatch struct {
	Text      *string `json:"text,omitempty" validate:"omitnil,min=1"`
	Completed *bool   `json:"completed,omitempty"`
}

// IsEmpty returns true if the patch doesn't change anything
func (p TaskPatch) IsEmpty() bool {
	return p.Text == nil && p.Completed == nil
}

// Filter narrows down listed tasks. Zero value matches everything.
type Filter struct {
	Completed *bool  // nil for any status
	Search    string // case-insensitive substring of text
}

// Stats holds task counters over the whole collection
type Stats struct {
	Total     int `db:"total"`
	Completed int `db:"completed"`
}

// dialect is the SQL flavor of the underlying database
type dialect string

const (
	dialectSQLite   dialect = "sqlite"
	dialectPostgres dialect = "postgres"
)

// taskRow is the database representation of Task, timestamps are unix milliseconds
type taskRow struct {
	ID        int64  `db:"id"`
	Text      string `db:"text"`
	Completed bool   `db:"completed"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r taskRow) toTask() Task {
	return Task{
		ID:        r.ID,
		Text:      r.Text,
		Completed: r.Completed,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(r.UpdatedAt).UTC(),
	}
}

const taskColumns = "id, text, completed, created_at, updated_at"

// SQLStore implements task persistence on top of sqlx
type SQLStore struct {
	db      *sqlx.DB
	dialect dialect
	now     func() time.Time
}

// NewSQLStore opens the database, applies connection settings and creates the schema.
// DSN starting with postgres:// or postgresql:// selects PostgreSQL, anything else is a SQLite path.
func NewSQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("empty database dsn")
	}

	dl, driver := dialectSQLite, "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dl, driver = dialectPostgres, "pgx"
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if dl == dialectSQLite {
		// single connection serializes writes and keeps in-memory databases alive
		db.SetMaxOpenConns(1)
		// enable WAL mode for better concurrency
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				return nil, fmt.Errorf("failed to set WAL mode: %w (also failed to close db: %v)", err, closeErr)
			}
			return nil, fmt.Errorf("failed to set WAL mode: %w", err)
		}
	}

	s := &SQLStore{db: db, dialect: dl, now: time.Now}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("%w (also failed to close db: %v)", err, closeErr)
		}
		return nil, err
	}
	return s, nil
}

// initialize creates the database schema
func (s *SQLStore) initialize(ctx context.Context) error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	tsType := "INTEGER"
	boolDefault := "0"
	if s.dialect == dialectPostgres {
		idColumn, tsType, boolDefault = "id BIGSERIAL PRIMARY KEY", "BIGINT", "FALSE"
	}

	queries := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tasks (
			%s,
			text TEXT NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT %s,
			created_at %s NOT NULL,
			updated_at %s NOT NULL
		)`, idColumn, boolDefault, tsType, tsType),
		`CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// List returns tasks matching the filter, newest first
func (s *SQLStore) List(ctx context.Context, filter Filter) ([]Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE 1=1"
	args := []any{}
	if filter.Completed != nil {
		query += " AND completed = ?"
		args = append(args, *filter.Completed)
	}
	if filter.Search != "" {
		query += ` AND LOWER(text) LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(strings.ToLower(filter.Search))+"%")
	}
	// id breaks ties for tasks created within the same millisecond
	query += " ORDER BY created_at DESC, id DESC"

	rows := []taskRow{}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}

	tasks := make([]Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toTask())
	}
	return tasks, nil
}

// Stats counts all tasks and completed tasks in one query
func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.GetContext(ctx, &st, s.db.Rebind(
		"SELECT COUNT(*) AS total, COALESCE(SUM(CASE WHEN completed = ? THEN 1 ELSE 0 END), 0) AS completed FROM tasks"), true)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count tasks: %w", err)
	}
	return st, nil
}

// Get returns a single task by id
func (s *SQLStore) Get(ctx context.Context, id int64) (Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT "+taskColumns+" FROM tasks WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("failed to get task %d: %w", id, err)
	}
	return row.toTask(), nil
}

// Create inserts a new uncompleted task. Text is stored as is, callers trim and validate it.
func (s *SQLStore) Create(ctx context.Context, text string) (Task, error) {
	ts := s.now().UnixMilli()
	var row taskRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		"INSERT INTO tasks (text, completed, created_at, updated_at) VALUES (?, ?, ?, ?) RETURNING "+taskColumns),
		text, false, ts, ts)
	if err != nil {
		return Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return row.toTask(), nil
}

// Update applies non-nil patch fields to the task and refreshes updated_at
func (s *SQLStore) Update(ctx context.Context, id int64, patch TaskPatch) (Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`UPDATE tasks SET text = COALESCE(?, text), completed = COALESCE(?, completed), updated_at = ?
		WHERE id = ? RETURNING `+taskColumns),
		patch.Text, patch.Completed, s.now().UnixMilli(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("failed to update task %d: %w", id, err)
	}
	return row.toTask(), nil
}

// Delete removes a single task
func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM tasks WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows for task %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every task in a single transaction and returns the number of deleted tasks
func (s *SQLStore) DeleteAll(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, "DELETE FROM tasks")
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return affected, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// escapeLike escapes LIKE wildcards, backslash is the escape character
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
