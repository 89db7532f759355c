package apiserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arkadas/portfolio-api/internal/mailer"
	"github.com/arkadas/portfolio-api/internal/store"
	"github.com/arkadas/portfolio-api/pkg/model"
)

type healthResponse struct {
	Status    string       `json:"status"`
	Message   string       `json:"message"`
	Database  model.Health `json:"database"`
	Timestamp time.Time    `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Message: "API is running", Timestamp: time.Now().UTC()}

	if err := s.db.Ready(); err != nil {
		resp.Status = "unhealthy"
		resp.Database = model.Health{Healthy: false, Status: "unavailable", Message: err.Error()}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Database = s.db.Store().VerifyIntegrity(r.Context())
	if resp.Database.Healthy {
		resp.Status = "healthy"
	} else {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	filter := store.ProjectFilter{FeaturedOnly: r.URL.Query().Get("featured") == "true"}
	projects, err := s.db.Store().ListProjects(r.Context(), filter)
	if err != nil {
		s.log.Error("failed to list projects", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch projects")
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleListExperience(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	entries, err := s.db.Store().ListExperience(r.Context())
	if err != nil {
		s.log.Error("failed to list experience", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch experience")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	skills, err := s.db.Store().ListSkills(r.Context())
	if err != nil {
		s.log.Error("failed to list skills", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch skills")
		return
	}
	writeJSON(w, http.StatusOK, skills)
}

func (s *Server) handleGetAbout(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	about, err := s.db.Store().GetAbout(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		// No record yet; the frontend treats {} as "nothing to show".
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	if err != nil {
		s.log.Error("failed to get about", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch about information")
		return
	}
	writeJSON(w, http.StatusOK, about)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ip := clientIP(r)
	count, err := s.db.Store().CountRecentByIP(r.Context(), ip, time.Hour)
	if err != nil {
		s.log.Error("failed to check submission rate", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process contact form")
		return
	}
	if count >= contactWindowSubmissions {
		writeError(w, http.StatusTooManyRequests,
			"Too many contact submissions. Please try again later.")
		return
	}

	id, err := s.db.Store().CreateSubmission(r.Context(), model.ContactSubmission{
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		IPAddress: ip,
	})
	if err != nil {
		s.log.Error("failed to save contact submission", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process contact form")
		return
	}
	s.log.Info("contact submission saved", "id", id, "from", req.Email)

	if s.mailer != nil && s.mailer.Enabled() {
		go s.notifyContact(id, req)
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "Thank you for your message! I'll get back to you soon.",
		Success: true,
	})
}

// notifyContact runs after the submission is durable; a delivery failure
// leaves email_sent false so the admin can follow up by hand.
func (s *Server) notifyContact(id int64, req contactRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	err := s.mailer.SendContact(ctx, mailer.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		s.log.Warn("contact notification not delivered", "id", id, "error", err)
		return
	}
	if _, err := s.db.Store().MarkEmailSent(ctx, id); err != nil {
		s.log.Warn("failed to mark submission as notified", "id", id, "error", err)
	}
}

// ready translates lifecycle state into a 503 and reports whether the
// handler may proceed.
func (s *Server) ready(w http.ResponseWriter) bool {
	if err := s.db.Ready(); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return false
	}
	return true
}
