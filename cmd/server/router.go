package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/schedr/schedr-api/internal/api"
	"github.com/schedr/schedr-api/internal/api/middleware"
	"github.com/schedr/schedr-api/internal/config"
)

// routerDeps bundles everything the router needs.
type routerDeps struct {
	cfg             *config.Config
	logger          *slog.Logger
	authMiddleware  *middleware.AuthMiddleware
	authHandler     *api.AuthHandler
	userHandler     *api.UserHandler
	catalogHandler  *api.CatalogHandler
	scheduleHandler *api.ScheduleHandler
	shareHandler    *api.ShareHandler
}

// newRouter assembles the HTTP surface: API routes under /api and the
// builder UI served as static files from the configured directory.
func newRouter(deps routerDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewTraceMiddleware(deps.logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/auth/register", deps.authHandler.Register)
		r.Post("/auth/login", deps.authHandler.Login)
		r.Get("/shared/{token}", deps.shareHandler.Get)

		// Session required
		r.Group(func(r chi.Router) {
			r.Use(deps.authMiddleware.Authenticate)

			r.Post("/auth/logout", deps.authHandler.Logout)
			r.Post("/auth/logout-all", deps.authHandler.LogoutAll)

			r.Get("/users/me", deps.userHandler.Me)
			r.Patch("/users/me", deps.userHandler.UpdateMe)
			r.Delete("/users/me", deps.userHandler.DeleteMe)
			r.Put("/users/me/password", deps.userHandler.ChangePassword)

			r.Get("/terms", deps.catalogHandler.ListTerms)
			r.Get("/terms/{termID}/courses", deps.catalogHandler.ListCourses)
			r.Get("/courses/{id}", deps.catalogHandler.GetCourse)
			r.Post("/catalog/imports", deps.catalogHandler.StageImport)
			r.Get("/catalog/imports/{id}", deps.catalogHandler.GetImport)

			r.Post("/schedules", deps.scheduleHandler.Create)
			r.Get("/schedules", deps.scheduleHandler.List)
			r.Get("/schedules/{id}", deps.scheduleHandler.Get)
			r.Patch("/schedules/{id}", deps.scheduleHandler.Update)
			r.Delete("/schedules/{id}", deps.scheduleHandler.Delete)
			r.Post("/schedules/{id}/sections", deps.scheduleHandler.AddSection)
			r.Delete("/schedules/{id}/sections/{sectionID}", deps.scheduleHandler.RemoveSection)
			r.Post("/schedules/{id}/clear", deps.scheduleHandler.Clear)
			r.Get("/schedules/{id}/conflicts", deps.scheduleHandler.Conflicts)
			r.Post("/schedules/{id}/share", deps.scheduleHandler.Share)
		})
	})

	if deps.cfg.Server.StaticDir != "" {
		r.NotFound(staticHandler(deps.cfg.Server.StaticDir, deps.logger))
	}

	return r
}

// staticHandler serves the builder UI bundle. Unknown paths fall back to
// index.html so client-side routing works after a page reload.
func staticHandler(dir string, logger *slog.Logger) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	indexPath := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		requested := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		if _, err := os.Stat(indexPath); err != nil {
			logger.Debug("static index not found", "path", indexPath)
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, indexPath)
	}
}
