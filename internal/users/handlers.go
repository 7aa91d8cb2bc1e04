package users

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/streamv8/streamv8/internal/audit"
	"github.com/streamv8/streamv8/internal/httputil"
	"github.com/streamv8/streamv8/internal/models"
)

const minPasswordLength = 12

// Handler exposes admin account management. Password hashes never leave
// this package; responses carry the public view only.
type Handler struct {
	repo  *Repository
	audit *audit.Logger
	actor func(*http.Request) string
}

func NewHandler(repo *Repository, auditLog *audit.Logger, actor func(*http.Request) string) *Handler {
	return &Handler{repo: repo, audit: auditLog, actor: actor}
}

type publicUser struct {
	Username           string      `json:"username"`
	Role               models.Role `json:"role"`
	Active             bool        `json:"active"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
	ForcePasswordReset bool        `json:"forcePasswordReset"`
}

func public(u models.User) publicUser {
	return publicUser{
		Username:           u.Username,
		Role:               u.Role,
		Active:             u.Active,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
		ForcePasswordReset: u.ForcePasswordReset,
	}
}

func (h *Handler) record(r *http.Request, action audit.Action, target string, details map[string]interface{}) {
	if err := h.audit.Record(h.actor(r), action, target, details); err != nil {
		log.Printf("users: audit write failed: %v", err)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.All()
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	out := make([]publicUser, 0, len(all))
	for _, u := range all {
		out = append(out, public(u))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string      `json:"username"`
		Password string      `json:"password"`
		Role     models.Role `json:"role"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if len(req.Username) < 3 || !req.Role.Valid() {
		httputil.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", "username and role are required")
		return
	}
	if len(req.Password) < minPasswordLength {
		httputil.WriteError(w, http.StatusBadRequest, "WEAK_PASSWORD", "password too short")
		return
	}
	existing, err := h.repo.Find(req.Username)
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	if existing != nil {
		httputil.WriteError(w, http.StatusConflict, "CONFLICT", "username already taken")
		return
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	now := time.Now().UTC()
	u := models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.repo.Upsert(u); err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	h.record(r, audit.ActionCreateUser, u.Username, map[string]interface{}{"role": u.Role})
	httputil.WriteJSON(w, http.StatusCreated, public(u))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	var req struct {
		Password           *string      `json:"password,omitempty"`
		Active             *bool        `json:"active,omitempty"`
		ForcePasswordReset *bool        `json:"forcePasswordReset,omitempty"`
		Role               *models.Role `json:"role,omitempty"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	u, err := h.repo.Find(username)
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	if u == nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "unknown user")
		return
	}

	action := audit.ActionUpdateUser
	if req.Password != nil {
		if len(*req.Password) < minPasswordLength {
			httputil.WriteError(w, http.StatusBadRequest, "WEAK_PASSWORD", "password too short")
			return
		}
		hash, err := HashPassword(*req.Password)
		if err != nil {
			httputil.WriteCoreError(w, err)
			return
		}
		u.PasswordHash = hash
		u.ForcePasswordReset = false
		action = audit.ActionResetPassword
	}
	if req.Active != nil {
		u.Active = *req.Active
		if !u.Active {
			action = audit.ActionDisableUser
		}
	}
	if req.ForcePasswordReset != nil {
		u.ForcePasswordReset = *req.ForcePasswordReset
	}
	if req.Role != nil && req.Role.Valid() && *req.Role != u.Role {
		// Role moves the account between the two collections.
		if err := h.repo.Delete(u.Username); err != nil {
			httputil.WriteCoreError(w, err)
			return
		}
		u.Role = *req.Role
	}

	if err := h.repo.Upsert(*u); err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	h.record(r, action, u.Username, nil)
	httputil.WriteJSON(w, http.StatusOK, public(*u))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.repo.Delete(username); err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	h.record(r, audit.ActionUpdateUser, username, map[string]interface{}{"deleted": true})
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"deleted": username})
}
