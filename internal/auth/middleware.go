package auth

import (
	"context"
	"log"
	"net/http"

	"github.com/streamv8/streamv8/internal/httputil"
	"github.com/streamv8/streamv8/internal/models"
	"github.com/streamv8/streamv8/internal/sessions"
)

type contextKey string

const ContextSession contextKey = "session"

// Gate enforces authentication, authorization, and CSRF on behalf of the
// routing layer. It never reads or writes documents itself; everything
// goes through the session service.
type Gate struct {
	sessions *sessions.Service
}

func NewGate(svc *sessions.Service) *Gate {
	return &Gate{sessions: svc}
}

// SessionLoader resolves the signed session cookie and stashes the session
// in the request context. A missing, malformed, or forged cookie leaves
// the request anonymous and clears the cookie; the request still proceeds.
func (g *Gate) SessionLoader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessions.CookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		id := g.sessions.ParseCookie(cookie.Value)
		if id == "" {
			http.SetCookie(w, g.sessions.ClearCookie())
			next.ServeHTTP(w, r)
			return
		}
		sess, err := g.sessions.Get(id)
		if err != nil {
			log.Printf("[auth] session lookup failed: %v", err)
			next.ServeHTTP(w, r)
			return
		}
		if sess == nil {
			http.SetCookie(w, g.sessions.ClearCookie())
			next.ServeHTTP(w, r)
			return
		}
		if err := g.sessions.Touch(sess.ID); err != nil {
			log.Printf("[auth] session touch failed: %v", err)
		}
		ctx := context.WithValue(r.Context(), ContextSession, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromContext(r.Context()) == nil {
			httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole admits sessions holding the requested role. Admin satisfies
// every role check: the role set is a hierarchy, not flat labels.
func (g *Gate) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil {
				httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}
			if sess.Role != role && sess.Role != models.RoleAdmin {
				httputil.WriteError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCsrf checks the per-session secret on state-changing requests.
// The token arrives in the X-CSRF-Token header or a csrfToken form field.
func (g *Gate) RequireCsrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		token := r.Header.Get("X-CSRF-Token")
		if token == "" {
			token = r.FormValue("csrfToken")
		}
		if sess == nil || token == "" {
			httputil.WriteError(w, http.StatusBadRequest, "CSRF", "missing CSRF token")
			return
		}
		if !g.sessions.VerifyCsrf(sess, token) {
			httputil.WriteError(w, http.StatusBadRequest, "CSRF", "invalid CSRF token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func SessionFromContext(ctx context.Context) *sessions.Session {
	if v, ok := ctx.Value(ContextSession).(*sessions.Session); ok {
		return v
	}
	return nil
}
