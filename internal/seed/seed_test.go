package seed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadas/portfolio-api/internal/seed"
	"github.com/arkadas/portfolio-api/internal/store"
	"github.com/arkadas/portfolio-api/internal/store/badgerstore"
)

func TestApplyAndEmpty(t *testing.T) {
	st, err := badgerstore.Open(badgerstore.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	ctx := context.Background()

	empty, err := seed.Empty(ctx, st)
	require.NoError(t, err)
	assert.True(t, empty)

	res, err := seed.Apply(ctx, st, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Projects)
	assert.Equal(t, 3, res.Experience)
	assert.Equal(t, 23, res.Skills)
	assert.Equal(t, 1, res.About)

	empty, err = seed.Empty(ctx, st)
	require.NoError(t, err)
	assert.False(t, empty)

	about, err := st.GetAbout(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Tech Solutions Inc.", about.CurrentCompany)
}

func TestApplyIsIdempotentForSkills(t *testing.T) {
	st, err := badgerstore.Open(badgerstore.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	ctx := context.Background()

	_, err = seed.Apply(ctx, st, nil)
	require.NoError(t, err)

	res, err := seed.Apply(ctx, st, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Skills, "existing skills are skipped")

	skills, err := st.ListSkills(ctx)
	require.NoError(t, err)
	assert.Len(t, skills, 23)

	projects, err := st.ListProjects(ctx, store.ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, projects, 12, "projects are duplicated; callers gate on Empty")
}
