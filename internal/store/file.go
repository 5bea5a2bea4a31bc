// File-backed store: one JSON document guarded by a sidecar advisory lock.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/nuvemlab/nuvem/internal/models"
)

// lockRetryDelay is how often a blocked writer re-attempts the file lock.
const lockRetryDelay = 50 * time.Millisecond

// FileStore persists the board as a single indented JSON document, UTF-8,
// rewritten whole on every mutation. A `<path>.lock` sidecar advisory lock
// serializes load-modify-store cycles across processes; an in-process mutex
// serializes goroutines within this one.
type FileStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFileStore creates a file store at dataPath. Parent directories are
// created if they do not exist; the board file itself is created lazily on
// first write.
func NewFileStore(dataPath string) (*FileStore, error) {
	if dataPath == "" {
		return nil, fmt.Errorf("data path is required")
	}
	if dir := filepath.Dir(dataPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return &FileStore{
		path: dataPath,
		lock: flock.New(dataPath + ".lock"),
	}, nil
}

// Path returns the board file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the current board under the lock.
func (s *FileStore) Load(ctx context.Context) (*models.Board, error) {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.read()
}

// AppendEntry appends one capped entry in a full load-modify-store cycle.
func (s *FileStore) AppendEntry(ctx context.Context, text string) (*models.Entry, error) {
	entry := &models.Entry{
		ID:        uuid.NewString(),
		Text:      capText(text),
		CreatedAt: time.Now().UTC(),
	}
	err := s.mutate(ctx, func(board *models.Board) {
		board.Entries = append(board.Entries, *entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ClearEntries replaces the entry sequence with an empty one.
func (s *FileStore) ClearEntries(ctx context.Context) error {
	return s.mutate(ctx, func(board *models.Board) {
		board.Entries = []models.Entry{}
	})
}

// SetPrompt sets the trimmed prompt; blank input restores the default.
func (s *FileStore) SetPrompt(ctx context.Context, text string) error {
	return s.mutate(ctx, func(board *models.Board) {
		board.Prompt = promptOrDefault(text)
	})
}

// SetVisibility sets the public visibility flag.
func (s *FileStore) SetVisibility(ctx context.Context, visible bool) error {
	return s.mutate(ctx, func(board *models.Board) {
		board.PublicVisible = visible
	})
}

// Close releases the sidecar lock if held.
func (s *FileStore) Close() error {
	return s.lock.Unlock()
}

// mutate runs one load-modify-store cycle under the lock. The load step
// re-reads the latest persisted state while holding the lock, never a stale
// copy from outside it. Corrupt data degrades to a default board: the
// original deployment preferred losing an unreadable file over failing
// every subsequent write.
func (s *FileStore) mutate(ctx context.Context, fn func(*models.Board)) error {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	board, err := s.read()
	if err != nil && !IsCorrupt(err) {
		return err
	}
	fn(board)
	return s.write(board)
}

// acquire takes the in-process mutex and the advisory file lock, in that
// order, and returns a func releasing both.
func (s *FileStore) acquire(ctx context.Context) (func(), error) {
	s.mu.Lock()
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		s.mu.Unlock()
		if err == nil {
			err = fmt.Errorf("failed to acquire board lock")
		}
		return nil, fmt.Errorf("failed to lock %s: %w", s.lock.Path(), err)
	}
	return func() {
		_ = s.lock.Unlock()
		s.mu.Unlock()
	}, nil
}

// read decodes the board file. Missing file yields a fresh default board;
// undecodable content yields a default board plus an ErrCorrupt-wrapped error.
func (s *FileStore) read() (*models.Board, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewBoard(), nil
		}
		return models.NewBoard(), fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	board, err := decodeBoard(data)
	if err != nil {
		return models.NewBoard(), fmt.Errorf("%s: %w", s.path, err)
	}
	return board, nil
}

// write persists the board atomically: temp file in the same directory,
// then rename over the target.
func (s *FileStore) write(board *models.Board) error {
	board.UpdatedAt = time.Now().UTC()
	if board.CreatedAt.IsZero() {
		board.CreatedAt = board.UpdatedAt
	}
	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode board: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".board-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write board: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace board file: %w", err)
	}
	return nil
}

// IsCorrupt reports whether err wraps ErrCorrupt.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}

// boardFile is the on-disk shape, tolerant of the legacy schema that used
// `question` for the prompt, a bare string list under `words`, and epoch
// floats for timestamps. Missing keys default on read.
type boardFile struct {
	Prompt        string          `json:"prompt"`
	Question      string          `json:"question"`
	Entries       []models.Entry  `json:"entries"`
	Words         []string        `json:"words"`
	PublicVisible *bool           `json:"public_visible"`
	CreatedAt     json.RawMessage `json:"created_at"`
	UpdatedAt     json.RawMessage `json:"updated_at"`
}

func decodeBoard(data []byte) (*models.Board, error) {
	var file boardFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	board := models.NewBoard()
	board.Prompt = promptOrDefault(firstNonBlank(file.Prompt, file.Question))
	if file.PublicVisible != nil {
		board.PublicVisible = *file.PublicVisible
	}
	if t, ok := parseTimestamp(file.CreatedAt); ok {
		board.CreatedAt = t
	}
	if t, ok := parseTimestamp(file.UpdatedAt); ok {
		board.UpdatedAt = t
	}

	switch {
	case file.Entries != nil:
		board.Entries = file.Entries
	case file.Words != nil:
		// Legacy files stored pre-filtered tokens without identity or capture
		// time; entries are synthesized so the rest of the system sees one shape.
		board.Entries = make([]models.Entry, 0, len(file.Words))
		for _, word := range file.Words {
			board.Entries = append(board.Entries, models.Entry{
				ID:        uuid.NewString(),
				Text:      word,
				CreatedAt: board.UpdatedAt,
			})
		}
	}
	return board, nil
}

// parseTimestamp accepts RFC3339 strings (canonical) and Unix epoch numbers
// (legacy files written by the first deployment).
func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 {
		return time.Time{}, false
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if t, err := time.Parse(time.RFC3339, str); err == nil {
			return t, true
		}
		return time.Time{}, false
	}
	if epoch, err := strconv.ParseFloat(string(raw), 64); err == nil {
		sec := int64(epoch)
		nsec := int64((epoch - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC(), true
	}
	return time.Time{}, false
}

func promptOrDefault(text string) string {
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		return trimmed
	}
	return models.DefaultPrompt
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
