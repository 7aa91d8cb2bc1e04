package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/streamv8/streamv8/internal/audit"
	"github.com/streamv8/streamv8/internal/auth"
	"github.com/streamv8/streamv8/internal/catalog"
	"github.com/streamv8/streamv8/internal/config"
	"github.com/streamv8/streamv8/internal/history"
	"github.com/streamv8/streamv8/internal/models"
	"github.com/streamv8/streamv8/internal/sessions"
	"github.com/streamv8/streamv8/internal/store"
	"github.com/streamv8/streamv8/internal/users"
)

// Server is the thin routing layer over the core: it validates request
// shapes, runs the auth gate, and delegates every operation to the
// repositories. No durability or concurrency reasoning lives here.
type Server struct {
	cfg          *config.Config
	gate         *auth.Gate
	loginLimiter *auth.RateLimiter
	adminLimiter *auth.RateLimiter
	authH        *auth.Handler
	catalogH *catalog.Handler
	historyH *history.Handler
	usersH   *users.Handler
	auditH   *audit.Handler
	router   chi.Router
}

func NewServer(cfg *config.Config, st *store.Store) *Server {
	sessionSvc := sessions.NewService(st, cfg)
	auditLog := audit.NewLogger(st, cfg)
	userRepo := users.NewRepository(st, cfg)
	catalogRepo := catalog.NewRepository(st, cfg)
	historyRepo := history.NewRepository(st, cfg)

	actor := func(r *http.Request) string {
		if sess := auth.SessionFromContext(r.Context()); sess != nil {
			return sess.Username
		}
		return "anonymous"
	}

	s := &Server{
		cfg:          cfg,
		gate:         auth.NewGate(sessionSvc),
		loginLimiter: auth.NewLoginLimiter(),
		adminLimiter: auth.NewAdminLimiter(),
		authH:        auth.NewHandler(userRepo, sessionSvc, auditLog),
		catalogH:     catalog.NewHandler(catalogRepo, auditLog, actor),
		historyH:     history.NewHandler(historyRepo, actor),
		usersH:       users.NewHandler(userRepo, auditLog, actor),
		auditH:       audit.NewHandler(auditLog),
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.gate.SessionLoader)

	r.Route("/api", func(r chi.Router) {
		r.With(s.loginLimiter.Middleware).Post("/login", s.authH.Login)
		r.Post("/logout", s.authH.Logout)
		r.Get("/me", s.authH.Me)

		r.Get("/movies", s.catalogH.ListMovies)
		r.Get("/movies/{id}", s.catalogH.GetMovie)
		r.Get("/series", s.catalogH.ListSeries)
		r.Get("/series/{slug}", s.catalogH.GetSeries)
		r.Get("/categories", s.catalogH.ListCategories)

		r.Group(func(r chi.Router) {
			r.Use(s.gate.RequireAuth)
			r.Get("/history", s.historyH.Get)
			r.With(s.gate.RequireCsrf).Post("/history", s.historyH.Upsert)
			r.With(s.gate.RequireCsrf).Delete("/history", s.historyH.Clear)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.gate.RequireRole(models.RoleAdmin))
			r.Use(s.gate.RequireCsrf)
			r.Use(s.adminLimiter.Middleware)
			r.Post("/movies", s.catalogH.SaveMovie)
			r.Delete("/movies/{id}", s.catalogH.DeleteMovie)
			r.Post("/series", s.catalogH.CreateSeries)
			r.Put("/series/{slug}", s.catalogH.UpdateSeries)
			r.Post("/series/episodes", s.catalogH.UpsertEpisode)
			r.Delete("/series/{slug}", s.catalogH.DeleteSeries)
			r.Put("/categories", s.catalogH.SaveCategories)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.gate.RequireRole(models.RoleAdmin))
			r.Get("/audit", s.auditH.Tail)
			r.Get("/users", s.usersH.List)
			r.Group(func(r chi.Router) {
				r.Use(s.gate.RequireCsrf)
				r.Use(s.adminLimiter.Middleware)
				r.Post("/users", s.usersH.Create)
				r.Patch("/users/{username}", s.usersH.Update)
				r.Delete("/users/{username}", s.usersH.Delete)
			})
		})
	})

	return r
}
