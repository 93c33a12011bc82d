package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/quietpost/quietpost/internal/ledger"
)

const defaultPeekLimit = 100

// handleFeedbackPeek returns the most recent ledger entries without
// modifying them.
// Query params:
//   - limit: max number of entries to return (default 100)
func (s *Server) handleFeedbackPeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Invalid request method.", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultPeekLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries := s.ledger.Recent(limit)

	j, err := json.Marshal(struct {
		Feedback []ledger.Entry `json:"feedback"`
		Total    int            `json:"total"`
	}{Feedback: entries, Total: s.ledger.Count()})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(j)
}
