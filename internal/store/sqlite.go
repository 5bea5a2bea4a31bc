// SQLite-backed store: same contract as the file store, with the database
// transaction providing the mutual exclusion.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/nuvemlab/nuvem/internal/models"
)

// SQLiteStore implements Store on a single-row board table plus an
// append-only entries table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: transactions serialize writers the way the file lock
	// does for the file backend.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS board (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		prompt TEXT NOT NULL,
		public_visible INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Load returns the current board, initializing the board row on first read.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Board, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.NewBoard(), err
	}
	defer func() { _ = tx.Rollback() }()

	board, err := loadBoardTx(ctx, tx)
	if err != nil {
		return models.NewBoard(), err
	}
	if err := tx.Commit(); err != nil {
		return models.NewBoard(), err
	}
	return board, nil
}

// AppendEntry inserts one capped entry and refreshes updated_at, in one
// transaction.
func (s *SQLiteStore) AppendEntry(ctx context.Context, text string) (*models.Entry, error) {
	entry := &models.Entry{
		ID:        uuid.NewString(),
		Text:      capText(text),
		CreatedAt: time.Now().UTC(),
	}
	err := s.mutate(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entries (id, text, created_at) VALUES (?, ?, ?)`,
			entry.ID, entry.Text, entry.CreatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ClearEntries deletes every entry.
func (s *SQLiteStore) ClearEntries(ctx context.Context) error {
	return s.mutate(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM entries`)
		return err
	})
}

// SetPrompt sets the trimmed prompt; blank input restores the default.
func (s *SQLiteStore) SetPrompt(ctx context.Context, text string) error {
	return s.mutate(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE board SET prompt = ? WHERE id = 1`, promptOrDefault(text))
		return err
	})
}

// SetVisibility sets the public visibility flag.
func (s *SQLiteStore) SetVisibility(ctx context.Context, visible bool) error {
	return s.mutate(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE board SET public_visible = ? WHERE id = 1`, visible)
		return err
	})
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// mutate runs fn inside a transaction after ensuring the board row exists,
// then refreshes updated_at.
func (s *SQLiteStore) mutate(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := ensureBoardRow(ctx, tx); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE board SET updated_at = ? WHERE id = 1`, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func ensureBoardRow(ctx context.Context, tx *sql.Tx) error {
	now := time.Now().UTC()
	_, err := tx.ExecContext(ctx,
		`INSERT INTO board (id, prompt, public_visible, created_at, updated_at)
		 VALUES (1, ?, 1, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		models.DefaultPrompt, now, now)
	return err
}

func loadBoardTx(ctx context.Context, tx *sql.Tx) (*models.Board, error) {
	if err := ensureBoardRow(ctx, tx); err != nil {
		return nil, err
	}
	board := models.NewBoard()
	var visible int
	err := tx.QueryRowContext(ctx,
		`SELECT prompt, public_visible, created_at, updated_at FROM board WHERE id = 1`,
	).Scan(&board.Prompt, &visible, &board.CreatedAt, &board.UpdatedAt)
	if err != nil {
		return nil, err
	}
	board.PublicVisible = visible != 0
	board.Prompt = promptOrDefault(board.Prompt)

	rows, err := tx.QueryContext(ctx,
		`SELECT id, text, created_at FROM entries ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var entry models.Entry
		if err := rows.Scan(&entry.ID, &entry.Text, &entry.CreatedAt); err != nil {
			return nil, err
		}
		board.Entries = append(board.Entries, entry)
	}
	return board, rows.Err()
}
