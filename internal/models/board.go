// Package models defines core data structures for the board, entries, and API payloads.
package models

import "time"

// DefaultPrompt is shown to the public when no prompt has been configured.
// The board targets Portuguese-speaking audiences, so the default is Portuguese.
const DefaultPrompt = "Digite uma palavra que represente sua percepção sobre o tema."

// MaxEntryLength is the rune cap applied to submitted entry text.
const MaxEntryLength = 200

// Board is the single shared aggregate: the prompt shown to the public,
// every submitted entry in insertion order, and the visibility flag.
type Board struct {
	Prompt        string    `json:"prompt"`
	Entries       []Entry   `json:"entries"`
	PublicVisible bool      `json:"public_visible"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Entry is one timestamped unit of submitted text. Entries are immutable
// once appended; the board only ever appends or clears them wholesale.
type Entry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBoard returns a fresh board with the default prompt, no entries,
// and public visibility enabled.
func NewBoard() *Board {
	now := time.Now().UTC()
	return &Board{
		Prompt:        DefaultPrompt,
		Entries:       []Entry{},
		PublicVisible: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SubmitRequest is the public submission payload.
type SubmitRequest struct {
	Text string `json:"text"`
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// PromptRequest is the admin prompt-update payload. A blank prompt
// restores the default.
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// VisibilityRequest is the admin visibility-toggle payload.
type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

// WordCount is one aggregated token with its frequency.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// BoardView is the public board response: the prompt plus summary numbers.
// Totals are zeroed when the cloud is hidden and the caller is not admin.
type BoardView struct {
	Prompt        string    `json:"prompt"`
	PublicVisible bool      `json:"public_visible"`
	TotalWords    int       `json:"total_words"`
	UniqueWords   int       `json:"unique_words"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CloudView is the aggregated response that drives cloud rendering.
type CloudView struct {
	Prompt      string      `json:"prompt"`
	Words       []WordCount `json:"words"`
	TotalWords  int         `json:"total_words"`
	UniqueWords int         `json:"unique_words"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// HistoryView is the admin history response. Raw holds entries as stored;
// Filtered holds the tokens that survive normalization, in entry order.
type HistoryView struct {
	View     string   `json:"view"`
	Raw      []Entry  `json:"raw,omitempty"`
	Filtered []string `json:"filtered,omitempty"`
	Total    int      `json:"total"`
}

// ReportView is the response for an admin report request.
type ReportView struct {
	Report      string    `json:"report"`
	GeneratedAt time.Time `json:"generated_at"`
}
