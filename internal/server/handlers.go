package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nuvemlab/nuvem/internal/aggregate"
	"github.com/nuvemlab/nuvem/internal/models"
	"github.com/nuvemlab/nuvem/internal/store"
	"github.com/nuvemlab/nuvem/internal/tokenizer"
	"github.com/nuvemlab/nuvem/pkg/metrics"
	"github.com/nuvemlab/nuvem/pkg/utils"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	board := s.loadBoard(r)
	freq := aggregate.Count(board.Entries)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries":        len(board.Entries),
		"total_words":    freq.Total(),
		"unique_words":   freq.Unique(),
		"public_visible": board.PublicVisible,
		"admin_enabled":  s.gate.Enabled(),
		"report_enabled": s.reporter != nil,
		"uptime":         time.Since(s.startTime).String(),
		"config": map[string]interface{}{
			"backend":   s.config.Storage.Backend,
			"top_words": s.config.Cloud.TopWords,
		},
	})
}

// handleBoard returns the public board view. Aggregate totals are zeroed
// when the cloud is hidden and the caller is not admin.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	board := s.loadBoard(r)
	view := models.BoardView{
		Prompt:        board.Prompt,
		PublicVisible: board.PublicVisible,
		UpdatedAt:     board.UpdatedAt,
	}
	if board.PublicVisible || s.isAdmin(r) {
		freq := aggregate.Count(board.Entries)
		view.TotalWords = freq.Total()
		view.UniqueWords = freq.Unique()
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.EntriesRejected.WithLabelValues("invalid").Inc()
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if len(tokenizer.Normalize(text)) == 0 {
		// Digits, punctuation, stopwords, or single letters only: nothing
		// would ever reach the cloud, so the submission is rejected.
		metrics.EntriesRejected.WithLabelValues("invalid").Inc()
		s.respondError(w, http.StatusUnprocessableEntity, "no valid words in submission")
		return
	}
	entry, err := s.store.AppendEntry(r.Context(), text)
	if err != nil {
		s.logger.Error("append entry failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to store entry")
		return
	}
	metrics.EntriesSubmitted.Inc()
	s.hub.Broadcast()
	s.logger.Debug("entry accepted",
		zap.String("id", entry.ID),
		zap.String("text", utils.Truncate(entry.Text, 40)),
	)
	s.respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleCloud(w http.ResponseWriter, r *http.Request) {
	board := s.loadBoard(r)
	if !board.PublicVisible && !s.isAdmin(r) {
		s.respondError(w, http.StatusForbidden, "cloud is hidden")
		return
	}
	limit := s.config.Cloud.TopWords
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > s.config.Cloud.MaxWords {
		limit = s.config.Cloud.MaxWords
	}
	freq := aggregate.Count(board.Entries)
	s.respondJSON(w, http.StatusOK, models.CloudView{
		Prompt:      board.Prompt,
		Words:       freq.TopN(limit),
		TotalWords:  freq.Total(),
		UniqueWords: freq.Unique(),
		GeneratedAt: time.Now().UTC(),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.gate.Enabled() {
		metrics.AdminLogins.WithLabelValues("disabled").Inc()
		s.respondError(w, http.StatusForbidden, "admin disabled: set ADMIN_PASS to enable")
		return
	}
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.gate.Check(req.Username, req.Password) {
		metrics.AdminLogins.WithLabelValues("failure").Inc()
		s.logger.Warn("admin login rejected")
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := s.gate.IssueToken()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	metrics.AdminLogins.WithLabelValues("success").Inc()
	s.respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.gate.Revoke(bearerToken(r))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (s *Server) handleSetPrompt(w http.ResponseWriter, r *http.Request) {
	var req models.PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.SetPrompt(r.Context(), req.Prompt); err != nil {
		s.logger.Error("set prompt failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to update prompt")
		return
	}
	s.hub.Broadcast()
	board := s.loadBoard(r)
	s.respondJSON(w, http.StatusOK, map[string]string{"prompt": board.Prompt})
}

func (s *Server) handleClearEntries(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearEntries(r.Context()); err != nil {
		s.logger.Error("clear entries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to clear entries")
		return
	}
	s.hub.Broadcast()
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleSetVisibility(w http.ResponseWriter, r *http.Request) {
	var req models.VisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.SetVisibility(r.Context(), req.Visible); err != nil {
		s.logger.Error("set visibility failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to update visibility")
		return
	}
	s.hub.Broadcast()
	s.respondJSON(w, http.StatusOK, map[string]bool{"visible": req.Visible})
}

// handleHistory returns the full submission history, either raw as stored
// or reduced to the tokens that survive normalization.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	board := s.loadBoard(r)
	view := r.URL.Query().Get("view")
	switch view {
	case "filtered":
		tokens := aggregate.Tokens(board.Entries)
		s.respondJSON(w, http.StatusOK, models.HistoryView{
			View: "filtered", Filtered: tokens, Total: len(tokens),
		})
	case "raw", "":
		s.respondJSON(w, http.StatusOK, models.HistoryView{
			View: "raw", Raw: board.Entries, Total: len(board.Entries),
		})
	default:
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown view %q; use raw or filtered", view))
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.reporter == nil {
		s.respondError(w, http.StatusServiceUnavailable, "report generation not configured: set GEMINI_API_KEY")
		return
	}
	board := s.loadBoard(r)
	freq := aggregate.Count(board.Entries)
	text, err := s.reporter.Generate(r.Context(), board.Prompt, board.Entries, freq.TopN(s.config.Cloud.TopWords))
	if err != nil {
		metrics.ReportsGenerated.WithLabelValues("failure").Inc()
		s.logger.Error("report generation failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	metrics.ReportsGenerated.WithLabelValues("success").Inc()
	s.respondJSON(w, http.StatusOK, models.ReportView{
		Report:      text,
		GeneratedAt: time.Now().UTC(),
	})
}

// loadBoard reads the board, logging (but not failing on) corrupt data:
// the caller still gets a usable default board.
func (s *Server) loadBoard(r *http.Request) *models.Board {
	board, err := s.store.Load(r.Context())
	if err != nil {
		if store.IsCorrupt(err) {
			s.logger.Warn("board data corrupt, serving defaults", zap.Error(err))
		} else {
			s.logger.Error("board load failed, serving defaults", zap.Error(err))
		}
	}
	return board
}

// adminOnly rejects requests without a valid admin token.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.isAdmin(r) {
			s.respondError(w, http.StatusUnauthorized, "admin token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) isAdmin(r *http.Request) bool {
	token := bearerToken(r)
	return token != "" && s.gate.Verify(token)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
