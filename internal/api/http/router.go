// Package http exposes the QTI toolkit and project store over a chi router.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mind-engage/mindengage-qti/internal/auth"
	"github.com/mind-engage/mindengage-qti/internal/config"
	"github.com/mind-engage/mindengage-qti/internal/metrics"
	"github.com/mind-engage/mindengage-qti/internal/project"
	"github.com/mind-engage/mindengage-qti/internal/qti/edit"
	"github.com/mind-engage/mindengage-qti/internal/rbac"
	"github.com/mind-engage/mindengage-qti/internal/scoring"
	"github.com/mind-engage/mindengage-qti/internal/storage"
)

// Server carries the dependencies shared by every handler.
type Server struct {
	Config   config.Config
	Projects project.Store
	Blobs    storage.BlobStore
	Auth     *auth.AuthService
	Scorer   *scoring.Engine
	Log      *slog.Logger
	// Ready reports backing-store health for /readyz; nil means always ready.
	Ready func(r *http.Request) error
}

func (s *Server) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s *Server) scorer() *scoring.Engine {
	if s.Scorer != nil {
		return s.Scorer
	}
	return scoring.Default
}

func NewRouter(s *Server) chi.Router {
	if s.Log != nil {
		edit.SetLogger(s.Log)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.Ready != nil {
			if err := s.Ready(r); err != nil {
				http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", metrics.Handler())
	if s.Auth != nil {
		r.Post("/auth/login", auth.LoginHandler(s.Auth))
	}

	r.Group(func(pr chi.Router) {
		secured := s.Config.RequireAuth && s.Auth != nil
		if secured {
			pr.Use(auth.JWTMiddleware(s.Auth))
		}
		// JWT → role in context → RBAC
		need := func(perm string) chi.Router {
			if !secured {
				return pr
			}
			return pr.With(rbac.Require(perm))
		}

		need("qti:read").Post("/qti/detect", s.detect)
		need("qti:read").Post("/qti/parse", s.parse)
		need("qti:read").Post("/qti/format", s.format)
		need("qti:read").Post("/qti/convert", s.convert)
		need("qti:read").Post("/qti/score", s.score)
		need("qti:read").Get("/qti/templates/{version}", s.template)
		need("qti:write").Post("/qti/items/insert", s.insertItem)
		need("qti:write").Post("/qti/items/reorder", s.reorderItems)
		need("qti:write").Post("/qti/items/correct-response", s.correctResponse)
		need("qti:write").Post("/qti/import", s.importPackage)

		need("project:read").Get("/projects", s.listProjects)
		need("project:write").Post("/projects", s.createProject)
		need("project:read").Get("/projects/{id}", s.getProject)
		need("project:write").Put("/projects/{id}", s.updateProject)
		need("project:delete").Delete("/projects/{id}", s.deleteProject)
		need("project:read").Get("/projects/{id}/export", s.exportProject)

		if s.Blobs != nil {
			MountAssets(need("project:read"), s.Blobs)
		}
	})
	return r
}

// decode reads a JSON body capped at the configured upload size.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	limit := s.Config.MaxUploadBytes
	if limit <= 0 {
		limit = 20 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
