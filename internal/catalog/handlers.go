package catalog

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/streamv8/streamv8/internal/audit"
	"github.com/streamv8/streamv8/internal/httputil"
	"github.com/streamv8/streamv8/internal/models"
)

// Handler maps HTTP shapes onto the catalog repository. It validates
// nothing beyond decode; the repository owns the schema rules. The actor
// resolver is injected to keep this package independent of the auth gate.
type Handler struct {
	repo  *Repository
	audit *audit.Logger
	actor func(*http.Request) string
}

func NewHandler(repo *Repository, auditLog *audit.Logger, actor func(*http.Request) string) *Handler {
	return &Handler{repo: repo, audit: auditLog, actor: actor}
}

func (h *Handler) record(r *http.Request, action audit.Action, target string, details map[string]interface{}) {
	if err := h.audit.Record(h.actor(r), action, target, details); err != nil {
		log.Printf("catalog: audit write failed: %v", err)
	}
}

func (h *Handler) ListMovies(w http.ResponseWriter, r *http.Request) {
	movies, skipped, err := h.repo.ListMovies()
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"movies":  movies,
		"skipped": skipped,
	})
}

func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	movie, err := h.repo.GetMovie(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, movie)
}

func (h *Handler) SaveMovie(w http.ResponseWriter, r *http.Request) {
	var m models.Movie
	if err := httputil.ReadJSON(r, &m); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	created := m.ID == ""
	saved, err := h.repo.SaveMovie(m)
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	action := audit.ActionUpdateMovie
	if created {
		action = audit.ActionCreateMovie
	}
	h.record(r, action, saved.ID, map[string]interface{}{"title": saved.Title})
	httputil.WriteJSON(w, http.StatusOK, saved)
}

func (h *Handler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.DeleteMovie(id); err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	h.record(r, audit.ActionDeleteMovie, id, nil)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (h *Handler) ListSeries(w http.ResponseWriter, r *http.Request) {
	series, skipped, err := h.repo.ListSeries()
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"series":  series,
		"skipped": skipped,
	})
}

func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.repo.GetSeries(chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, series)
}

func (h *Handler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	var s models.Series
	if err := httputil.ReadJSON(r, &s); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	created, err := h.repo.CreateSeries(s)
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	h.record(r, audit.ActionCreateSeries, created.Slug, map[string]interface{}{"title": created.Title})
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateSeries(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	existing, err := h.repo.GetSeries(slug)
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	var s models.Series
	if err := httputil.ReadJSON(r, &s); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	// The path owns the identity; the body cannot rename or re-create.
	s.Slug = slug
	s.CreatedAt = existing.CreatedAt
	saved, err := h.repo.SaveSeries(s)
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	h.record(r, audit.ActionUpdateSeries, slug, map[string]interface{}{"title": saved.Title})
	httputil.WriteJSON(w, http.StatusOK, saved)
}

func (h *Handler) UpsertEpisode(w http.ResponseWriter, r *http.Request) {
	var input EpisodeUpsert
	// An omitted published field on the episode means visible.
	input.Episode.Published = true
	if err := httputil.ReadJSON(r, &input); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	series, err := h.repo.UpsertSeriesEpisode(input)
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	h.record(r, audit.ActionUpdateSeries, series.Slug, map[string]interface{}{
		"season":  input.SeasonNumber,
		"episode": input.Episode.EpisodeNumber,
	})
	httputil.WriteJSON(w, http.StatusOK, series)
}

func (h *Handler) DeleteSeries(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.repo.DeleteSeries(slug); err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	h.record(r, audit.ActionDeleteSeries, slug, nil)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"deleted": slug})
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.ListCategories()
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, categories)
}

func (h *Handler) SaveCategories(w http.ResponseWriter, r *http.Request) {
	var list []models.Category
	if err := httputil.ReadJSON(r, &list); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if err := h.repo.SaveCategories(list); err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	h.record(r, audit.ActionUpdateCategory, "categories", map[string]interface{}{"count": len(list)})
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"saved": len(list)})
}
