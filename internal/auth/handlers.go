package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/streamv8/streamv8/internal/audit"
	"github.com/streamv8/streamv8/internal/httputil"
	"github.com/streamv8/streamv8/internal/sessions"
	"github.com/streamv8/streamv8/internal/users"
)

type Handler struct {
	users    *users.Repository
	sessions *sessions.Service
	audit    *audit.Logger
}

func NewHandler(repo *users.Repository, svc *sessions.Service, auditLog *audit.Logger) *Handler {
	return &Handler{users: repo, sessions: svc, audit: auditLog}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if req.Username == "" || len(req.Password) < 8 {
		httputil.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", "username and password are required")
		return
	}

	account, err := h.users.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) || errors.Is(err, users.ErrInactive) {
			httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
			return
		}
		httputil.WriteCoreError(w, err)
		return
	}

	sess, err := h.sessions.Create(account.Username, account.Role)
	if err != nil {
		httputil.WriteCoreError(w, err)
		return
	}
	if err := h.audit.Record(account.Username, audit.ActionLogin, account.Username, nil); err != nil {
		log.Printf("[auth] audit write failed: %v", err)
	}

	http.SetCookie(w, h.sessions.Cookie(sess.ID))
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"username":           account.Username,
		"role":               account.Role,
		"forcePasswordReset": account.ForcePasswordReset,
		"csrfToken":          sess.CSRFToken,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess != nil {
		if err := h.sessions.Invalidate(sess.ID); err != nil {
			httputil.WriteCoreError(w, err)
			return
		}
		if err := h.audit.Record(sess.Username, audit.ActionLogout, sess.Username, nil); err != nil {
			log.Printf("[auth] audit write failed: %v", err)
		}
	}
	http.SetCookie(w, h.sessions.ClearCookie())
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"username":  sess.Username,
		"role":      sess.Role,
		"csrfToken": sess.CSRFToken,
		"expiresAt": sess.ExpiresAt,
	})
}
