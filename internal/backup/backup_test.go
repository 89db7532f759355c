package backup_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadas/portfolio-api/internal/backup"
	"github.com/arkadas/portfolio-api/internal/store"
	"github.com/arkadas/portfolio-api/internal/store/badgerstore"
	"github.com/arkadas/portfolio-api/pkg/model"
)

func newManager(t *testing.T, compress bool) (*backup.Manager, store.Store, string) {
	t.Helper()
	st, err := badgerstore.Open(badgerstore.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	dir := t.TempDir()
	m := backup.NewManager(st, backup.Config{Dir: dir, Compress: compress})
	return m, st, dir
}

func TestCreateAndListBackups(t *testing.T) {
	m, st, _ := newManager(t, false)
	ctx := context.Background()

	_, err := st.CreateProject(ctx, model.Project{
		Title: "snapshot me", Description: "d", Technologies: []string{"Go"},
	})
	require.NoError(t, err)

	res, err := m.Create(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Filename, "portfolio_backup_"))
	assert.True(t, strings.HasSuffix(res.Filename, ".json"))
	assert.Greater(t, res.SizeBytes, int64(0))

	list, err := m.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, res.Filename, list[0].Filename)
	assert.Equal(t, res.SizeBytes, list[0].SizeBytes)
}

func TestListMissingDirIsEmpty(t *testing.T) {
	st, err := badgerstore.Open(badgerstore.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	m := backup.NewManager(st, backup.Config{Dir: filepath.Join(t.TempDir(), "nope")})
	list, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

// Create, delete, restore, and the record is back with its old identifier.
func TestBackupRestoreRoundtrip(t *testing.T) {
	m, st, _ := newManager(t, false)
	ctx := context.Background()

	id, err := st.CreateProject(ctx, model.Project{
		Title: "survivor", Description: "d", Technologies: []string{"Go"},
	})
	require.NoError(t, err)

	res, err := m.Create(ctx)
	require.NoError(t, err)

	deleted, err := st.DeleteProject(ctx, id)
	require.NoError(t, err)
	require.True(t, deleted)

	restored, err := m.Restore(ctx, res.Filename)
	require.NoError(t, err)
	assert.Equal(t, "passed", restored.IntegrityCheck)
	assert.NotEmpty(t, restored.SafetyBackup, "a safety backup precedes the restore")

	got, err := st.GetProject(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "survivor", got.Title)
}

func TestCompressedBackupRoundtrip(t *testing.T) {
	m, st, dir := newManager(t, true)
	ctx := context.Background()

	id, err := st.CreateProject(ctx, model.Project{
		Title: "compressed", Description: "d", Technologies: []string{"Go"},
	})
	require.NoError(t, err)

	res, err := m.Create(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.Filename, ".json.xz"))

	payload, err := os.ReadFile(filepath.Join(dir, res.Filename))
	require.NoError(t, err)

	deleted, err := st.DeleteProject(ctx, id)
	require.NoError(t, err)
	require.True(t, deleted)

	// uploads go through RestoreFromBytes, which sniffs the compression
	restored, err := m.RestoreFromBytes(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, "passed", restored.IntegrityCheck)

	got, err := st.GetProject(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "compressed", got.Title)
}

func TestRestoreRejectsInvalidPayloadWithoutMutating(t *testing.T) {
	m, st, _ := newManager(t, false)
	ctx := context.Background()

	id, err := st.CreateProject(ctx, model.Project{
		Title: "untouched", Description: "d", Technologies: []string{"Go"},
	})
	require.NoError(t, err)

	_, err = m.RestoreFromBytes(ctx, []byte("{not json"))
	require.Error(t, err)

	_, err = m.RestoreFromBytes(ctx, []byte(`{"version": 99, "collections": {}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backup version")

	got, err := st.GetProject(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "untouched", got.Title)
}

func TestRestoreUnknownFile(t *testing.T) {
	m, _, _ := newManager(t, false)
	_, err := m.Restore(context.Background(), "portfolio_backup_20200101_000000.json")
	assert.ErrorIs(t, err, backup.ErrBackupNotFound)
}

func TestPathRejectsTraversal(t *testing.T) {
	m, _, _ := newManager(t, false)
	for _, name := range []string{"../etc/passwd", "a/b.json", `a\b.json`, "..", ""} {
		_, err := m.Path(name)
		assert.Error(t, err, "name %q must be rejected", name)
	}
}

func TestPrune(t *testing.T) {
	m, _, dir := newManager(t, false)

	// fabricate backup files with distinct mod times via names; List sorts
	// by mod time then name, so same-mtime files order by name descending
	names := []string{
		"portfolio_backup_20240101_000000.json",
		"portfolio_backup_20240102_000000.json",
		"portfolio_backup_20240103_000000.json",
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o600))
	}

	deleted, kept, err := m.Prune(2)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 2, kept)

	list, err := m.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, names[2], list[0].Filename)
	assert.Equal(t, names[1], list[1].Filename)
}
