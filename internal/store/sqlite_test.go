package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nuvemlab/nuvem/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "board.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreLifecycle(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	board, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if board.Prompt != models.DefaultPrompt || len(board.Entries) != 0 || !board.PublicVisible {
		t.Errorf("unexpected fresh board: %+v", board)
	}

	if _, err := s.AppendEntry(ctx, "foco"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendEntry(ctx, "equipe"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPrompt(ctx, "Qual é a palavra?"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetVisibility(ctx, false); err != nil {
		t.Fatal(err)
	}

	board, err = s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(board.Entries) != 2 || board.Entries[0].Text != "foco" || board.Entries[1].Text != "equipe" {
		t.Errorf("entries = %+v", board.Entries)
	}
	if board.Prompt != "Qual é a palavra?" {
		t.Errorf("prompt = %q", board.Prompt)
	}
	if board.PublicVisible {
		t.Error("visibility should be off")
	}

	if err := s.ClearEntries(ctx); err != nil {
		t.Fatal(err)
	}
	board, _ = s.Load(ctx)
	if len(board.Entries) != 0 {
		t.Errorf("entries after clear = %d", len(board.Entries))
	}
	if board.Prompt != "Qual é a palavra?" {
		t.Errorf("clear changed prompt: %q", board.Prompt)
	}
}

func TestSQLiteStoreBlankPromptRestoresDefault(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	if err := s.SetPrompt(ctx, "  "); err != nil {
		t.Fatal(err)
	}
	board, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if board.Prompt != models.DefaultPrompt {
		t.Errorf("prompt = %q, want default", board.Prompt)
	}
}

func TestSQLiteStoreConcurrentAppends(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	const writers = 4
	const perWriter = 5

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := s.AppendEntry(ctx, fmt.Sprintf("palavra-%d-%d", w, i)); err != nil {
					t.Errorf("append failed: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	board, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(board.Entries) != writers*perWriter {
		t.Errorf("entries = %d, want %d", len(board.Entries), writers*perWriter)
	}
}

func TestStoreFactory(t *testing.T) {
	dir := t.TempDir()

	s, err := New(Options{Backend: BackendFile, DataPath: filepath.Join(dir, "board.json")})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("expected *FileStore, got %T", s)
	}
	_ = s.Close()

	s, err = New(Options{Backend: BackendSQLite, DatabasePath: filepath.Join(dir, "board.db")})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("expected *SQLiteStore, got %T", s)
	}
	_ = s.Close()

	if _, err := New(Options{Backend: "redis"}); err == nil {
		t.Error("unknown backend should fail")
	}
}
