package history

import (
	"net/http"

	"github.com/streamv8/streamv8/internal/httputil"
	"github.com/streamv8/streamv8/internal/models"
)

// Handler serves the calling user's own history. The username resolver is
// injected by the routing layer from the authenticated session.
type Handler struct {
	repo     *Repository
	username func(*http.Request) string
}

func NewHandler(repo *Repository, username func(*http.Request) string) *Handler {
	return &Handler{repo: repo, username: username}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repo.Get(h.username(r))
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var entry models.HistoryEntry
	if err := httputil.ReadJSON(r, &entry); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if err := h.repo.Upsert(h.username(r), entry); err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Clear(h.username(r)); err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
