// Package apiserver exposes the portfolio content API over HTTP. Public
// read endpoints and the contact form live under /api; everything under
// /api/admin requires authentication.
package apiserver

import (
	"log/slog"
	"net/http"
	"strings"

	portfolio "github.com/arkadas/portfolio-api"
)

const (
	contactWindowSubmissions = 100
	maxRestoreBytes          = 64 << 20
	maxUploadBytes           = 16 << 20
)

type Server struct {
	mux        *http.ServeMux
	db         *portfolio.Portfolio
	log        *slog.Logger
	auth       AuthFunc
	mailer     ContactMailer
	uploadsDir string
	corsOrigin map[string]bool
	keep       int
}

func New(db *portfolio.Portfolio, opts ...Option) *Server {
	s := &Server{
		mux:        http.NewServeMux(),
		db:         db,
		log:        slog.Default(),
		auth:       denyAll,
		corsOrigin: map[string]bool{"http://localhost:3000": true},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/projects", s.handleListProjects)
	s.mux.HandleFunc("GET /api/experience", s.handleListExperience)
	s.mux.HandleFunc("GET /api/skills", s.handleListSkills)
	s.mux.HandleFunc("GET /api/about", s.handleGetAbout)
	s.mux.HandleFunc("POST /api/contact", s.handleContact)

	s.mux.HandleFunc("POST /api/admin/projects", s.handleCreateProject)
	s.mux.HandleFunc("PUT /api/admin/projects/{id}", s.handleUpdateProject)
	s.mux.HandleFunc("DELETE /api/admin/projects/{id}", s.handleDeleteProject)

	s.mux.HandleFunc("POST /api/admin/experience", s.handleCreateExperience)
	s.mux.HandleFunc("PUT /api/admin/experience/{id}", s.handleUpdateExperience)
	s.mux.HandleFunc("DELETE /api/admin/experience/{id}", s.handleDeleteExperience)

	s.mux.HandleFunc("POST /api/admin/skills", s.handleCreateSkill)
	s.mux.HandleFunc("PUT /api/admin/skills/{id}", s.handleUpdateSkill)
	s.mux.HandleFunc("DELETE /api/admin/skills/{id}", s.handleDeleteSkill)

	s.mux.HandleFunc("POST /api/admin/about", s.handleUpsertAbout)

	s.mux.HandleFunc("GET /api/admin/contacts", s.handleListSubmissions)
	s.mux.HandleFunc("DELETE /api/admin/contacts/{id}", s.handleDeleteSubmission)

	s.mux.HandleFunc("GET /api/admin/verify", s.handleVerify)

	s.mux.HandleFunc("GET /api/admin/backup", s.handleCreateBackup)
	s.mux.HandleFunc("GET /api/admin/backups", s.handleListBackups)
	s.mux.HandleFunc("GET /api/admin/backup/download/{filename}", s.handleDownloadBackup)
	s.mux.HandleFunc("POST /api/admin/restore", s.handleRestore)
	s.mux.HandleFunc("POST /api/admin/seed", s.handleSeed)

	s.mux.HandleFunc("POST /api/admin/upload", s.handleUpload)
	if s.uploadsDir != "" {
		s.mux.Handle("GET /uploads/", http.StripPrefix("/uploads/",
			http.FileServer(http.Dir(s.uploadsDir))))
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" {
		w.Header().Set("Vary", "Origin")
		if s.corsOrigin[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")
			// Cache preflight responses for 24 hours.
			w.Header().Set("Access-Control-Max-Age", "86400")
		}
	}

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if strings.HasPrefix(r.URL.Path, "/api/admin/") {
		if err := s.auth(r); err != nil {
			s.log.Warn("authentication failed", "path", r.URL.Path, "error", err)
			w.Header().Set("WWW-Authenticate", `Basic realm="portfolio admin"`)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
	}

	s.mux.ServeHTTP(w, r)
}
