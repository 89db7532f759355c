package apiserver

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/arkadas/portfolio-api/internal/backup"
	"github.com/arkadas/portfolio-api/internal/seed"
)

func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	res, err := s.db.Backups().Create(r.Context())
	if err != nil {
		s.log.Error("backup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create backup")
		return
	}

	if s.keep > 0 {
		if _, _, err := s.db.Backups().Prune(s.keep); err != nil {
			s.log.Warn("backup retention sweep failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Backup created successfully",
		"filename":     res.Filename,
		"size_bytes":   res.SizeBytes,
		"download_url": "/api/admin/backup/download/" + res.Filename,
	})
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	list, err := s.db.Backups().List()
	if err != nil {
		s.log.Error("failed to list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list backups")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "backups": list})
}

func (s *Server) handleDownloadBackup(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	filename := r.PathValue("filename")
	path, err := s.db.Backups().Path(filename)
	if errors.Is(err, backup.ErrBackupNotFound) {
		writeError(w, http.StatusNotFound, "Backup file not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	s.log.Info("backup downloaded", "filename", filename)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeFile(w, r, path)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	if err := r.ParseMultipartForm(maxRestoreBytes); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(header.Filename, ".json") && !strings.HasSuffix(header.Filename, ".json.xz") {
		writeError(w, http.StatusBadRequest, "Only .json and .json.xz files are allowed")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(file, maxRestoreBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	if len(payload) == 0 {
		writeError(w, http.StatusBadRequest, "Uploaded file is empty")
		return
	}

	res, err := s.db.Backups().RestoreFromBytes(r.Context(), payload)
	if err != nil {
		s.log.Error("restore failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to restore database: "+err.Error())
		return
	}

	s.log.Info("database restored", "filename", header.Filename, "bytes", res.BytesApplied)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "Database restored successfully",
		"backup_created":  res.SafetyBackup,
		"integrity_check": res.IntegrityCheck,
		"bytes_written":   res.BytesApplied,
	})
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	res, err := seed.Apply(r.Context(), s.db.Store(), s.log)
	if err != nil {
		s.log.Error("seeding failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to seed database")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Database seeded successfully",
		"counts":  res,
	})
}
