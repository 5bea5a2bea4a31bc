package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nuvemlab/nuvem/internal/models"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "board.json"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFileStoreLoadFresh(t *testing.T) {
	s := newTestFileStore(t)
	board, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if board.Prompt != models.DefaultPrompt {
		t.Errorf("prompt = %q, want default", board.Prompt)
	}
	if len(board.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(board.Entries))
	}
	if !board.PublicVisible {
		t.Error("fresh board should be publicly visible")
	}
}

func TestFileStoreAppendIsMonotonic(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()
	texts := []string{"foco", "equipe", "respeito"}
	for _, text := range texts {
		if _, err := s.AppendEntry(ctx, text); err != nil {
			t.Fatal(err)
		}
	}
	board, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(board.Entries) != len(texts) {
		t.Fatalf("entries = %d, want %d", len(board.Entries), len(texts))
	}
	for i, text := range texts {
		if board.Entries[i].Text != text {
			t.Errorf("entry %d = %q, want %q (submission order)", i, board.Entries[i].Text, text)
		}
		if board.Entries[i].ID == "" {
			t.Errorf("entry %d has no id", i)
		}
	}
	if !board.UpdatedAt.After(board.CreatedAt) && !board.UpdatedAt.Equal(board.CreatedAt) {
		t.Error("updated_at should not precede created_at")
	}
}

func TestFileStoreConcurrentAppendsLoseNothing(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()
	const writers = 8
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
		t.Errorf("entries = %d, want %d (lost update)", len(board.Entries), writers*perWriter)
	}
}

func TestFileStoreClearKeepsPrompt(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()
	if err := s.SetPrompt(ctx, "Qual palavra define o projeto?"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendEntry(ctx, "foco"); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearEntries(ctx); err != nil {
		t.Fatal(err)
	}
	board, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(board.Entries) != 0 {
		t.Errorf("entries = %d after clear", len(board.Entries))
	}
	if board.Prompt != "Qual palavra define o projeto?" {
		t.Errorf("prompt changed by clear: %q", board.Prompt)
	}
}

func TestFileStoreSetPrompt(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	if err := s.SetPrompt(ctx, "  Qual é a palavra?  "); err != nil {
		t.Fatal(err)
	}
	board, _ := s.Load(ctx)
	if board.Prompt != "Qual é a palavra?" {
		t.Errorf("prompt = %q, want trimmed input", board.Prompt)
	}

	if err := s.SetPrompt(ctx, "   "); err != nil {
		t.Fatal(err)
	}
	board, _ = s.Load(ctx)
	if board.Prompt != models.DefaultPrompt {
		t.Errorf("blank prompt should restore default, got %q", board.Prompt)
	}
}

func TestFileStoreSetVisibility(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()
	if err := s.SetVisibility(ctx, false); err != nil {
		t.Fatal(err)
	}
	board, _ := s.Load(ctx)
	if board.PublicVisible {
		t.Error("visibility should be off")
	}
	if err := s.SetVisibility(ctx, true); err != nil {
		t.Fatal(err)
	}
	board, _ = s.Load(ctx)
	if !board.PublicVisible {
		t.Error("visibility should be on")
	}
}

func TestFileStoreEntryCap(t *testing.T) {
	s := newTestFileStore(t)
	long := strings.Repeat("à", models.MaxEntryLength+50)
	entry, err := s.AppendEntry(context.Background(), long)
	if err != nil {
		t.Fatal(err)
	}
	if got := len([]rune(entry.Text)); got != models.MaxEntryLength {
		t.Errorf("entry length = %d runes, want %d", got, models.MaxEntryLength)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	s := newTestFileStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	board, err := s.Load(context.Background())
	if !IsCorrupt(err) {
		t.Errorf("expected corrupt error, got %v", err)
	}
	if board == nil || board.Prompt != models.DefaultPrompt {
		t.Error("corrupt file should still yield a usable default board")
	}

	// Writes recover: the corrupt file is replaced by a fresh document.
	if _, err := s.AppendEntry(context.Background(), "recomeço"); err != nil {
		t.Fatal(err)
	}
	board, err = s.Load(context.Background())
	if err != nil {
		t.Fatalf("load after recovery: %v", err)
	}
	if len(board.Entries) != 1 || board.Entries[0].Text != "recomeço" {
		t.Errorf("unexpected board after recovery: %+v", board)
	}
}

func TestFileStoreLegacySchema(t *testing.T) {
	s := newTestFileStore(t)
	legacy := `{
  "question": "Qual palavra resume 2025?",
  "words": ["foco", "equipe"],
  "created_at": 1738450000.5,
  "updated_at": 1738460000.25
}`
	if err := os.WriteFile(s.Path(), []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}
	board, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if board.Prompt != "Qual palavra resume 2025?" {
		t.Errorf("prompt = %q", board.Prompt)
	}
	if len(board.Entries) != 2 || board.Entries[0].Text != "foco" || board.Entries[1].Text != "equipe" {
		t.Errorf("entries = %+v", board.Entries)
	}
	if board.Entries[0].ID == "" {
		t.Error("legacy entries should be assigned ids")
	}
	if !board.PublicVisible {
		t.Error("legacy files without the flag default to visible")
	}
	if board.CreatedAt.Unix() != 1738450000 {
		t.Errorf("created_at = %v", board.CreatedAt)
	}
}

func TestFileStoreMissingKeysDefault(t *testing.T) {
	s := newTestFileStore(t)
	if err := os.WriteFile(s.Path(), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	board, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if board.Prompt != models.DefaultPrompt || len(board.Entries) != 0 || !board.PublicVisible {
		t.Errorf("unexpected defaults: %+v", board)
	}
}

func TestNewFileStoreCreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "board.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.AppendEntry(context.Background(), "foco"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("board file not created: %v", err)
	}
}
