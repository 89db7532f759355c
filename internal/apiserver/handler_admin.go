package apiserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/arkadas/portfolio-api/internal/store"
	"github.com/arkadas/portfolio-api/pkg/model"
)

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	var req projectCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.db.Store().CreateProject(r.Context(), req.record())
	if err != nil {
		s.log.Error("failed to create project", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}
	created, err := s.db.Store().GetProject(r.Context(), id)
	if err != nil {
		s.log.Error("failed to read back project", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}
	s.log.Info("project created", "id", id, "title", created.Title)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	var patch model.ProjectPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.IsZero() {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	if err := validateProjectPatch(patch); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.db.Store().UpdateProject(r.Context(), id, patch)
	if err != nil {
		s.log.Error("failed to update project", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update project")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	project, err := s.db.Store().GetProject(r.Context(), id)
	if err != nil {
		s.log.Error("failed to read back project", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update project")
		return
	}
	s.log.Info("project updated", "id", id)
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "Project", func(ctx context.Context, id int64) (bool, error) {
		return s.db.Store().DeleteProject(ctx, id)
	})
}

func (s *Server) handleCreateExperience(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	var req experienceCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.db.Store().CreateExperience(r.Context(), req.record())
	if err != nil {
		s.log.Error("failed to create experience", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create experience")
		return
	}
	created, err := s.db.Store().GetExperience(r.Context(), id)
	if err != nil {
		s.log.Error("failed to read back experience", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create experience")
		return
	}
	s.log.Info("experience created", "id", id, "company", created.Company)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExperience(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid experience id")
		return
	}
	var patch model.ExperiencePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.IsZero() {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	if err := validateExperiencePatch(patch); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.db.Store().UpdateExperience(r.Context(), id, patch)
	if err != nil {
		s.log.Error("failed to update experience", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update experience")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "Experience not found")
		return
	}
	entry, err := s.db.Store().GetExperience(r.Context(), id)
	if err != nil {
		s.log.Error("failed to read back experience", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update experience")
		return
	}
	s.log.Info("experience updated", "id", id)
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteExperience(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "Experience", func(ctx context.Context, id int64) (bool, error) {
		return s.db.Store().DeleteExperience(ctx, id)
	})
}

func (s *Server) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	var req skillCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.db.Store().CreateSkill(r.Context(), model.Skill{Name: req.Name, Category: req.Category})
	if errors.Is(err, store.ErrSkillExists) {
		writeError(w, http.StatusBadRequest, "Skill already exists")
		return
	}
	if err != nil {
		s.log.Error("failed to create skill", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create skill")
		return
	}
	created, err := s.db.Store().GetSkill(r.Context(), id)
	if err != nil {
		s.log.Error("failed to read back skill", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create skill")
		return
	}
	s.log.Info("skill created", "id", id, "name", created.Name)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateSkill(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid skill id")
		return
	}
	var patch model.SkillPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.IsZero() {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	if err := validateSkillPatch(patch); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.db.Store().UpdateSkill(r.Context(), id, patch)
	if errors.Is(err, store.ErrSkillExists) {
		writeError(w, http.StatusBadRequest, "Skill already exists")
		return
	}
	if err != nil {
		s.log.Error("failed to update skill", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update skill")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "Skill not found")
		return
	}
	skill, err := s.db.Store().GetSkill(r.Context(), id)
	if err != nil {
		s.log.Error("failed to read back skill", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update skill")
		return
	}
	s.log.Info("skill updated", "id", id)
	writeJSON(w, http.StatusOK, skill)
}

func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "Skill", func(ctx context.Context, id int64) (bool, error) {
		return s.db.Store().DeleteSkill(ctx, id)
	})
}

func (s *Server) handleUpsertAbout(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	var req aboutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if _, err := s.db.Store().UpsertAbout(r.Context(), model.About{
		Bio:            req.Bio,
		CurrentCompany: req.CurrentCompany,
		CurrentRole:    req.CurrentRole,
	}); err != nil {
		s.log.Error("failed to upsert about", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update about section")
		return
	}
	about, err := s.db.Store().GetAbout(r.Context())
	if err != nil {
		s.log.Error("failed to read back about", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update about section")
		return
	}
	s.log.Info("about section updated")
	writeJSON(w, http.StatusOK, about)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	submissions, err := s.db.Store().ListSubmissions(r.Context())
	if err != nil {
		s.log.Error("failed to list submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch contact submissions")
		return
	}
	writeJSON(w, http.StatusOK, submissions)
}

func (s *Server) handleDeleteSubmission(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "Contact submission", func(ctx context.Context, id int64) (bool, error) {
		return s.db.Store().DeleteSubmission(ctx, id)
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	user, _, _ := r.BasicAuth()
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"username":      user,
	})
}

// deleteByID shares the id-parse, delete, 404-vs-200 shape of every delete
// endpoint.
func (s *Server) deleteByID(w http.ResponseWriter, r *http.Request, kind string,
	del func(ctx context.Context, id int64) (bool, error)) {
	if !s.ready(w) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	deleted, err := del(r.Context(), id)
	if err != nil {
		s.log.Error("delete failed", "kind", kind, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete "+strings.ToLower(kind))
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, kind+" not found")
		return
	}
	s.log.Info("record deleted", "kind", kind, "id", id)
	writeJSON(w, http.StatusOK, messageResponse{Message: kind + " deleted successfully", Success: true})
}
