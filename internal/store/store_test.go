package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadas/portfolio-api/internal/store"
	"github.com/arkadas/portfolio-api/internal/store/badgerstore"
	"github.com/arkadas/portfolio-api/internal/store/sqlitestore"
	"github.com/arkadas/portfolio-api/pkg/model"
)

// runBackends runs fn against a fresh instance of every backend so the
// contract holds regardless of which one a deployment picks.
func runBackends(t *testing.T, fn func(t *testing.T, st store.Store)) {
	t.Helper()

	t.Run("badger", func(t *testing.T) {
		st, err := badgerstore.Open(badgerstore.Config{Dir: t.TempDir()})
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		fn(t, st)
	})

	t.Run("sqlite", func(t *testing.T) {
		st, err := sqlitestore.Open(sqlitestore.Config{
			Path: filepath.Join(t.TempDir(), "portfolio.db"),
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		fn(t, st)
	})
}

func sampleProject(title string) model.Project {
	return model.Project{
		Title:        title,
		Description:  "a test project",
		Technologies: []string{"Go", "BadgerDB"},
		GithubURL:    "https://github.com/example/" + title,
		IsFeatured:   true,
		DisplayOrder: 1,
	}
}

func TestProjectLifecycle(t *testing.T) {
	runBackends(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()

		id, err := st.CreateProject(ctx, sampleProject("alpha"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)

		got, err := st.GetProject(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "alpha", got.Title)
		assert.Equal(t, []string{"Go", "BadgerDB"}, got.Technologies)
		assert.True(t, got.IsFeatured)
		assert.False(t, got.CreatedAt.IsZero())
		assert.NotNil(t, got.ImageURLs)

		newTitle := "alpha v2"
		updated, err := st.UpdateProject(ctx, id, model.ProjectPatch{Title: &newTitle})
		require.NoError(t, err)
		assert.True(t, updated)

		got, err = st.GetProject(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "alpha v2", got.Title)
		// untouched fields survive partial updates
		assert.Equal(t, "a test project", got.Description)

		deleted, err := st.DeleteProject(ctx, id)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = st.GetProject(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound)

		deleted, err = st.DeleteProject(ctx, id)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestUpdateAbsentAndEmptyPatch(t *testing.T) {
	runBackends(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()

		updated, err := st.UpdateProject(ctx, 42, model.ProjectPatch{Title: ptr("x")})
		require.NoError(t, err)
		assert.False(t, updated)

		id, err := st.CreateProject(ctx, sampleProject("beta"))
		require.NoError(t, err)

		updated, err = st.UpdateProject(ctx, id, model.ProjectPatch{})
		require.NoError(t, err)
		assert.False(t, updated, "all-nil patch must be a no-op")
	})
}

func TestLegacyImageURLFolding(t *testing.T) {
	runBackends(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()

		p := sampleProject("legacy")
		p.ImageURL = "/uploads/old.png"
		id, err := st.CreateProject(ctx, p)
		require.NoError(t, err)

		got, err := st.GetProject(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"/uploads/old.png"}, got.ImageURLs)
	})
}

func TestProjectOrderingAndFeaturedFilter(t *testing.T) {
	runBackends(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()

		mk := func(title string, order int, featured bool) {
			p := sampleProject(title)
			p.DisplayOrder = order
			p.IsFeatured = featured
			_, err := st.CreateProject(ctx, p)
			require.NoError(t, err)
		}
		mk("third", 3, false)
		mk("first", 1, true)
		mk("second", 2, false)

		all, err := st.ListProjects(ctx, store.ProjectFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "first", all[0].Title)
		assert.Equal(t, "second", all[1].Title)
		assert.Equal(t, "third", all[2].Title)

		featured, err := st.ListProjects(ctx, store.ProjectFilter{FeaturedOnly: true})
		require.NoError(t, err)
		require.Len(t, featured, 1)
		assert.Equal(t, "first", featured[0].Title)
	})
}

func TestSkillUniqueness(t *testing.T) {
	runBackends(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()

		id, err := st.CreateSkill(ctx, model.Skill{Name: "Go", Category: "Backend"})
		require.NoError(t, err)

		_, err = st.CreateSkill(ctx, model.Skill{Name: "go", Category: "Other"})
		assert.ErrorIs(t, err, store.ErrSkillExists, "names are unique case-insensitively")

		skills, err := st.ListSkills(ctx)
		require.NoError(t, err)
		assert.Len(t, skills, 1, "the failed create must not leave a record behind")

		// renaming onto another existing name conflicts too
		_, err = st.CreateSkill(ctx, model.Skill{Name: "Rust", Category: "Backend"})
		require.NoError(t, err)
		_, err = st.UpdateSkill(ctx, id, model.SkillPatch{Name: ptr("rust")})
		assert.ErrorIs(t, err, store.ErrSkillExists)

		// renaming to a fresh name frees the old one
		updated, err := st.UpdateSkill(ctx, id, model.SkillPatch{Name: ptr("Zig")})
		require.NoError(t, err)
		assert.True(t, updated)
		_, err = st.CreateSkill(ctx, model.Skill{Name: "Go", Category: "Backend"})
		require.NoError(t, err)
	})
}

func TestSkillOrdering(t *testing.T) {
	runBackends(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()

		for _, s := range []model.Skill{
			{Name: "React", Category: "Frontend"},
			{Name: "Python", Category: "Backend"},
			{Name: "angular", Category: "Frontend"},
			{Name: "Go", Category: "Backend"},
		} {
			_, err := st.CreateSkill(ctx, s)
			require.NoError(t, err)
		}

		skills, err := st.ListSkills(ctx)
		require.NoError(t, err)
		require.Len(t, skills, 4)
		names := []string{skills[0].Name, skills[1].Name, skills[2].Name, skills[3].Name}
		assert.Equal(t, []string{"Go", "Python", "angular", "React"}, names)
	})
}

func TestAboutUpsert(t *testing.T) {
	runBackends(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()

		_, err := st.GetAbout(ctx)
		assert.ErrorIs(t, err, store.ErrNotFound)

		id1, err := st.UpsertAbout(ctx, model.About{Bio: "first bio"})
		require.NoError(t, err)

		id2, err := st.UpsertAbout(ctx, model.About{Bio: "second bio", CurrentRole: "Engineer"})
		require.NoError(t, err)
		assert.Equal(t, id1, id2, "upsert keeps the single record's id")

		about, err := st.GetAbout(ctx)
		require.NoError(t, err)
		assert.Equal(t, "second bio", about.Bio)
		assert.Equal(t, "Engineer", about.CurrentRole)
	})
}

func TestSubmissions(t *testing.T) {
	runBackends(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()

		id, err := st.CreateSubmission(ctx, model.ContactSubmission{
			Name:      "Alice",
			Email:     "alice@example.com",
			Message:   "hello there, this is a message",
			IPAddress: "10.0.0.1",
			EmailSent: true, // must be ignored on create
		})
		require.NoError(t, err)

		subs, err := st.ListSubmissions(ctx)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.False(t, subs[0].EmailSent)
		assert.Nil(t, subs[0].EmailSentAt)

		marked, err := st.MarkEmailSent(ctx, id)
		require.NoError(t, err)
		assert.True(t, marked)

		subs, err = st.ListSubmissions(ctx)
		require.NoError(t, err)
		assert.True(t, subs[0].EmailSent)
		require.NotNil(t, subs[0].EmailSentAt)

		marked, err = st.MarkEmailSent(ctx, 99)
		require.NoError(t, err)
		assert.False(t, marked)
	})
}

func TestCountRecentByIP(t *testing.T) {
	runBackends(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := st.CreateSubmission(ctx, model.ContactSubmission{
				Name: "Bob", Email: "bob@example.com",
				Message: "a sufficiently long message", IPAddress: "10.0.0.2",
			})
			require.NoError(t, err)
		}
		_, err := st.CreateSubmission(ctx, model.ContactSubmission{
			Name: "Eve", Email: "eve@example.com",
			Message: "a sufficiently long message", IPAddress: "10.0.0.3",
		})
		require.NoError(t, err)

		count, err := st.CountRecentByIP(ctx, "10.0.0.2", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		count, err = st.CountRecentByIP(ctx, "10.0.0.9", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestCountRecentByIPIgnoresOldSubmissions(t *testing.T) {
	runBackends(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()

		// Load preserves timestamps, so it can plant a submission outside
		// the window.
		old := time.Now().UTC().Add(-2 * time.Hour)
		recent := time.Now().UTC()
		err := st.Load(ctx, &model.Dump{
			Version:   model.DumpVersion,
			CreatedAt: recent,
			Collections: model.Collections{
				Submissions: []model.ContactSubmission{
					{ID: 1, Name: "Old", Email: "o@example.com", Message: "old enough message", IPAddress: "10.0.0.4", CreatedAt: old},
					{ID: 2, Name: "New", Email: "n@example.com", Message: "new enough message", IPAddress: "10.0.0.4", CreatedAt: recent},
				},
				Counters: []model.Counter{{Name: model.SeqSubmissions, Seq: 2}},
			},
		})
		require.NoError(t, err)

		count, err := st.CountRecentByIP(ctx, "10.0.0.4", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestDumpLoadRoundtrip(t *testing.T) {
	runBackends(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()

		projectID, err := st.CreateProject(ctx, sampleProject("keeper"))
		require.NoError(t, err)
		_, err = st.CreateSkill(ctx, model.Skill{Name: "Go", Category: "Backend"})
		require.NoError(t, err)
		_, err = st.UpsertAbout(ctx, model.About{Bio: "a bio"})
		require.NoError(t, err)

		dump, err := st.Dump(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.DumpVersion, dump.Version)
		require.Len(t, dump.Collections.Projects, 1)
		require.Len(t, dump.Collections.Skills, 1)
		require.Len(t, dump.Collections.About, 1)
		assert.NotEmpty(t, dump.Collections.Counters)

		// wipe by loading an empty dump, then bring everything back
		require.NoError(t, st.Load(ctx, &model.Dump{Version: model.DumpVersion}))
		_, err = st.GetProject(ctx, projectID)
		assert.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, st.Load(ctx, dump))

		got, err := st.GetProject(ctx, projectID)
		require.NoError(t, err)
		assert.Equal(t, "keeper", got.Title)

		// sequences continue after the restored counters
		nextID, err := st.CreateProject(ctx, sampleProject("later"))
		require.NoError(t, err)
		assert.Equal(t, projectID+1, nextID)

		// the unique-name index must be rebuilt too
		_, err = st.CreateSkill(ctx, model.Skill{Name: "go", Category: "Other"})
		assert.ErrorIs(t, err, store.ErrSkillExists)
	})
}

func TestVerifyIntegrity(t *testing.T) {
	runBackends(t, func(t *testing.T, st store.Store) {
		health := st.VerifyIntegrity(context.Background())
		assert.True(t, health.Healthy)
		assert.Equal(t, "ok", health.Status)
	})
}

func TestCheckpointAndDrain(t *testing.T) {
	runBackends(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()

		id, err := st.CreateProject(ctx, sampleProject("durable"))
		require.NoError(t, err)
		require.NoError(t, st.Checkpoint(ctx))

		// a drained store must serve the next call transparently
		require.NoError(t, st.Drain())
		got, err := st.GetProject(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "durable", got.Title)
	})
}

func TestConcurrentCreates(t *testing.T) {
	runBackends(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()
		const writers = 16

		ids := make([]int64, writers)
		errs := make([]error, writers)
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ids[i], errs[i] = st.CreateProject(ctx, sampleProject(fmt.Sprintf("writer-%02d", i)))
			}(i)
		}
		wg.Wait()

		// every writer gets its own identifier, none fails
		seen := map[int64]bool{}
		for i := 0; i < writers; i++ {
			require.NoError(t, errs[i])
			require.False(t, seen[ids[i]], "id %d assigned twice", ids[i])
			seen[ids[i]] = true
		}

		list, err := st.ListProjects(ctx, store.ProjectFilter{})
		require.NoError(t, err)
		assert.Len(t, list, writers)
	})
}

func ptr[T any](v T) *T { return &v }
