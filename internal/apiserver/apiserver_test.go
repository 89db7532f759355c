package apiserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	portfolio "github.com/arkadas/portfolio-api"
	"github.com/arkadas/portfolio-api/internal/apiserver"
	"github.com/arkadas/portfolio-api/internal/store"
	"github.com/arkadas/portfolio-api/pkg/model"
)

const (
	adminUser = "admin"
	adminPass = "secret"
)

func newTestServer(t *testing.T, opts ...apiserver.Option) (*apiserver.Server, *portfolio.Portfolio) {
	t.Helper()

	db, err := portfolio.New(portfolio.Config{
		DataDir:   t.TempDir(),
		BackupDir: t.TempDir(),
	})
	require.NoError(t, err)
	require.NoError(t, db.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Close(ctx)
	})

	opts = append([]apiserver.Option{
		apiserver.WithAuth(apiserver.BasicAuth(adminUser, adminPass)),
	}, opts...)
	return apiserver.New(db, opts...), db
}

func doJSON(t *testing.T, srv http.Handler, method, path string, body any, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.SetBasicAuth(adminUser, adminPass)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestAdminRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	req = httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil)
	req.SetBasicAuth(adminUser, "wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/admin/verify", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["authenticated"])
	assert.Equal(t, adminUser, resp["username"])
}

func TestAdminEndpointsBeforeStart(t *testing.T) {
	db, err := portfolio.New(portfolio.Config{
		DataDir:   t.TempDir(),
		BackupDir: t.TempDir(),
	})
	require.NoError(t, err)
	srv := apiserver.New(db, apiserver.WithAuth(apiserver.BasicAuth(adminUser, adminPass)))

	// every handler touching the store answers 503 until Start, including
	// the backup listing and download paths
	for _, path := range []string{
		"/api/admin/backup",
		"/api/admin/backups",
		"/api/admin/backup/download/portfolio_backup_20260101_000000.json",
	} {
		rec := doJSON(t, srv, http.MethodGet, path, nil, true)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/health", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status   string       `json:"status"`
		Database model.Health `json:"database"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.True(t, resp.Database.Healthy)
}

func TestProjectCRUDOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/admin/projects", map[string]any{
		"title":        "My Project",
		"description":  "something worth showing",
		"technologies": []string{"Go"},
		"is_featured":  true,
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "My Project", created.Title)

	rec = doJSON(t, srv, http.MethodGet, "/api/projects?featured=true", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = doJSON(t, srv, http.MethodPut, "/api/admin/projects/1", map[string]any{
		"title": "Renamed",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated model.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "something worth showing", updated.Description)

	rec = doJSON(t, srv, http.MethodPut, "/api/admin/projects/1", map[string]any{}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty patch is rejected")

	rec = doJSON(t, srv, http.MethodDelete, "/api/admin/projects/1", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/admin/projects/1", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/admin/projects", map[string]any{
		"title":        "",
		"description":  "d",
		"technologies": []string{"Go"},
	}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/admin/projects", map[string]any{
		"title":        "ok",
		"description":  "d",
		"technologies": []string{},
	}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/admin/projects", map[string]any{
		"title":        strings.Repeat("x", 201),
		"description":  "d",
		"technologies": []string{"Go"},
	}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSkillConflict(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/admin/skills", map[string]any{
		"name": "Go", "category": "Backend",
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/admin/skills", map[string]any{
		"name": "go", "category": "Other",
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestAboutUpsertAndFetch(t *testing.T) {
	srv, _ := newTestServer(t)

	// empty object before any record exists
	rec := doJSON(t, srv, http.MethodGet, "/api/about", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "{}", rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/api/admin/about", map[string]any{
		"bio": "a perfectly fine bio",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/about", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var about model.About
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &about))
	assert.Equal(t, "a perfectly fine bio", about.Bio)
}

func TestContactSubmission(t *testing.T) {
	srv, db := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/contact", map[string]any{
		"name":    "Alice",
		"email":   "alice@example.com",
		"subject": "hi",
		"message": "this is a long enough message",
	}, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Thank you")

	subs, err := db.Store().ListSubmissions(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "alice@example.com", subs[0].Email)
	assert.NotEmpty(t, subs[0].IPAddress)
}

func TestContactHoneypot(t *testing.T) {
	srv, db := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/contact", map[string]any{
		"name":     "Bot",
		"email":    "bot@example.com",
		"message":  "this is a long enough message",
		"honeypot": "gotcha",
	}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	subs, err := db.Store().ListSubmissions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, subs, "honeypot submissions are never stored")
}

func TestContactValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	for name, body := range map[string]map[string]any{
		"short name":    {"name": "A", "email": "a@example.com", "message": "long enough message here"},
		"bad email":     {"name": "Alice", "email": "nope", "message": "long enough message here"},
		"short message": {"name": "Alice", "email": "a@example.com", "message": "short"},
	} {
		rec := doJSON(t, srv, http.MethodPost, "/api/contact", body, false)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, name)
	}
}

func TestBackupEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/admin/backup", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		Filename    string `json:"filename"`
		DownloadURL string `json:"download_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Filename)

	rec = doJSON(t, srv, http.MethodGet, "/api/admin/backups", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.Filename)

	rec = doJSON(t, srv, http.MethodGet, created.DownloadURL, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)

	rec = doJSON(t, srv, http.MethodGet, "/api/admin/backup/download/nope.json", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRestoreUpload(t *testing.T) {
	srv, db := newTestServer(t)
	ctx := context.Background()

	id, err := db.Store().CreateProject(ctx, model.Project{
		Title: "restore me", Description: "d", Technologies: []string{"Go"},
	})
	require.NoError(t, err)

	dump, err := db.Store().Dump(ctx)
	require.NoError(t, err)
	payload, err := json.Marshal(dump)
	require.NoError(t, err)

	deleted, err := db.Store().DeleteProject(ctx, id)
	require.NoError(t, err)
	require.True(t, deleted)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "backup.json")
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/restore", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetBasicAuth(adminUser, adminPass)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := db.Store().GetProject(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "restore me", got.Title)
}

func TestRestoreRejectsWrongExtension(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "backup.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("{}"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/restore", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetBasicAuth(adminUser, adminPass)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSeedEndpoint(t *testing.T) {
	srv, db := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/admin/seed", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	projects, err := db.Store().ListProjects(context.Background(), store.ProjectFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, projects)

	skills, err := db.Store().ListSkills(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, skills)

	// seeding twice must not duplicate skills
	rec = doJSON(t, srv, http.MethodPost, "/api/admin/seed", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	again, err := db.Store().ListSkills(context.Background())
	require.NoError(t, err)
	assert.Len(t, again, len(skills))
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, apiserver.WithCORSOrigins([]string{"https://portfolio.example.com"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "https://portfolio.example.com")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://portfolio.example.com",
		rec.Header().Get("Access-Control-Allow-Origin"))

	// unlisted origins get no CORS grant
	req = httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
