// Package store owns the persisted board and serializes every mutation.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nuvemlab/nuvem/internal/models"
)

// ErrCorrupt marks persisted data that could not be decoded. Load still
// returns a usable default board alongside it; the caller chooses whether
// to surface the condition or fall back silently.
var ErrCorrupt = errors.New("board data is corrupt")

// Store provides atomic access to the shared board. Every mutating
// operation is a full load-modify-store cycle under mutual exclusion:
// two concurrent appends never lose an entry, and a clear never
// interleaves with an in-flight append.
type Store interface {
	// Load returns the current board, or a fresh default board when nothing
	// has been persisted yet. On undecodable data it returns a default board
	// together with an error wrapping ErrCorrupt.
	Load(ctx context.Context) (*models.Board, error)

	// AppendEntry appends a new timestamped entry with the given text,
	// rune-capped at models.MaxEntryLength, and returns it.
	AppendEntry(ctx context.Context, text string) (*models.Entry, error)

	// ClearEntries replaces the entry sequence with an empty one. The prompt
	// and visibility flag are untouched.
	ClearEntries(ctx context.Context) error

	// SetPrompt sets the trimmed prompt, falling back to the default prompt
	// when the input is blank.
	SetPrompt(ctx context.Context, text string) error

	// SetVisibility sets whether the public view may show the aggregate.
	SetVisibility(ctx context.Context, visible bool) error

	Close() error
}

// Backend names for the factory.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Options selects and configures a store backend.
type Options struct {
	Backend      string
	DataPath     string // JSON board file (file backend)
	DatabasePath string // SQLite database (sqlite backend)
}

// New creates the store selected by opts.Backend.
func New(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.DataPath)
	case BackendSQLite:
		return NewSQLiteStore(opts.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", opts.Backend)
	}
}

// capText truncates text to models.MaxEntryLength runes.
func capText(text string) string {
	runes := []rune(text)
	if len(runes) <= models.MaxEntryLength {
		return text
	}
	return string(runes[:models.MaxEntryLength])
}
