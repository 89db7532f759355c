package apiserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/arkadas/portfolio-api/internal/mailer"
)

// ContactMailer is the slice of the mailer the contact handler needs.
type ContactMailer interface {
	Enabled() bool
	SendContact(ctx context.Context, msg mailer.ContactMessage) error
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.log = logger
		}
	}
}

func WithAuth(auth AuthFunc) Option {
	return func(s *Server) {
		if auth != nil {
			s.auth = auth
		}
	}
}

// WithMailer enables contact notifications.
func WithMailer(m ContactMailer) Option {
	return func(s *Server) {
		s.mailer = m
	}
}

// WithUploadsDir enables image upload and the /uploads/ static mount.
func WithUploadsDir(dir string) Option {
	return func(s *Server) {
		s.uploadsDir = dir
	}
}

// WithCORSOrigins replaces the allowed CORS origin set.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) == 0 {
			return
		}
		s.corsOrigin = make(map[string]bool, len(origins))
		for _, o := range origins {
			s.corsOrigin[o] = true
		}
	}
}

// WithRetention prunes old backups down to keep after each admin-triggered
// backup. Zero disables pruning.
func WithRetention(keep int) Option {
	return func(s *Server) {
		s.keep = keep
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// decodeJSON reads a bounded JSON request body into dst, rejecting unknown
// fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// clientIP prefers X-Forwarded-For so throttling still keys on the real
// client behind a reverse proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
