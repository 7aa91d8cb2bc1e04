package audit

import (
	"net/http"
	"strconv"

	"github.com/streamv8/streamv8/internal/httputil"
)

type Handler struct {
	log *Logger
}

func NewHandler(log *Logger) *Handler {
	return &Handler{log: log}
}

// Tail returns the most recent audit entries, newest last. Read-only: the
// trail itself is append-only and never exposed for mutation.
func (h *Handler) Tail(w http.ResponseWriter, r *http.Request) {
	n := 100
	if raw := r.URL.Query().Get("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}
	lines, err := h.log.Tail(n)
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, lines)
}
