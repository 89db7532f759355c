package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadas/portfolio-api/pkg/model"
)

func TestLifecycle(t *testing.T) {
	p, err := New(Config{DataDir: t.TempDir(), BackupDir: t.TempDir()})
	require.NoError(t, err)

	assert.ErrorIs(t, p.Ready(), ErrNotStarted)

	ctx := context.Background()
	require.NoError(t, p.Start(ctx))
	require.NoError(t, p.Start(ctx), "Start is idempotent")
	require.NoError(t, p.Ready())
	require.NotNil(t, p.Store())
	require.NotNil(t, p.Backups())

	id, err := p.Store().CreateProject(ctx, model.Project{
		Title: "t", Description: "d", Technologies: []string{"Go"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, p.Close(closeCtx))
	require.NoError(t, p.Close(closeCtx), "Close is idempotent")
	assert.ErrorIs(t, p.Ready(), ErrClosed)
	assert.Nil(t, p.Store())
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{DataDir: t.TempDir(), Backend: "mongodb"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestSQLiteBackend(t *testing.T) {
	p, err := New(Config{DataDir: t.TempDir(), BackupDir: t.TempDir(), Backend: "sqlite"})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, p.Start(ctx))
	t.Cleanup(func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = p.Close(closeCtx)
	})

	id, err := p.Store().CreateProject(ctx, model.Project{
		Title: "t", Description: "d", Technologies: []string{"Go"},
	})
	require.NoError(t, err)

	// a full backup/restore cycle works through the handle's manager
	res, err := p.Backups().Create(ctx)
	require.NoError(t, err)
	_, err = p.Store().DeleteProject(ctx, id)
	require.NoError(t, err)
	_, err = p.Backups().Restore(ctx, res.Filename)
	require.NoError(t, err)

	got, err := p.Store().GetProject(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
}

func TestCloseWithExpiredContext(t *testing.T) {
	p, err := New(Config{
		DataDir:            t.TempDir(),
		BackupDir:          t.TempDir(),
		CheckpointInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// an already-expired context must not leave the loop racing a nil store
	_ = p.Close(ctx)
	assert.Nil(t, p.Store())
	time.Sleep(30 * time.Millisecond)
}

func TestPeriodicCheckpoint(t *testing.T) {
	p, err := New(Config{
		DataDir:            t.TempDir(),
		BackupDir:          t.TempDir(),
		CheckpointInterval: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, p.Start(ctx))

	// let a few ticks fire, then shut down cleanly
	time.Sleep(80 * time.Millisecond)

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, p.Close(closeCtx))
}
