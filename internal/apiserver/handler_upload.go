package apiserver

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// handleUpload stores a project image under a random name and returns the
// public /uploads/ URL for it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploadsDir == "" {
		writeError(w, http.StatusNotFound, "uploads are not configured")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExt[ext] {
		writeError(w, http.StatusBadRequest, "unsupported image type")
		return
	}

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		s.log.Error("failed to create uploads dir", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store image")
		return
	}

	name := uuid.NewString() + ext
	dst, err := os.OpenFile(filepath.Join(s.uploadsDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		s.log.Error("failed to create upload file", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store image")
		return
	}
	defer dst.Close()

	if _, err := dst.ReadFrom(file); err != nil {
		s.log.Error("failed to write upload", "filename", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store image")
		return
	}

	s.log.Info("image uploaded", "filename", name, "original", header.Filename)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"filename": name,
		"url":      "/uploads/" + name,
	})
}
