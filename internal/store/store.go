// Package store defines the storage contract shared by the document and
// relational backends, plus helpers both backends use.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/arkadas/portfolio-api/pkg/model"
)

var (
	// ErrNotFound is returned by Get operations for an absent identifier.
	ErrNotFound = errors.New("portfolio: record not found")
	// ErrSkillExists is returned when a skill name collides with an
	// existing one. Callers translate it into a user-facing conflict.
	ErrSkillExists = errors.New("portfolio: skill already exists")
	// ErrConnectivity is returned when the backend stays unreachable
	// after bounded retries.
	ErrConnectivity = errors.New("portfolio: store unreachable")
)

// ProjectFilter narrows ListProjects.
type ProjectFilter struct {
	FeaturedOnly bool
}

// Store is durable CRUD for the five record kinds plus the maintenance
// primitives the backup manager drives (checkpoint, drain, WAL-artifact
// cleanup, dump/load, integrity probe).
//
// Every operation is atomic at the single-record level and safe for
// concurrent callers. Restore-time maintenance calls are serialized by the
// backup manager, not by the backends.
type Store interface {
	CreateProject(ctx context.Context, p model.Project) (int64, error)
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	ListProjects(ctx context.Context, f ProjectFilter) ([]model.Project, error)
	UpdateProject(ctx context.Context, id int64, patch model.ProjectPatch) (bool, error)
	DeleteProject(ctx context.Context, id int64) (bool, error)

	CreateExperience(ctx context.Context, e model.Experience) (int64, error)
	GetExperience(ctx context.Context, id int64) (*model.Experience, error)
	ListExperience(ctx context.Context) ([]model.Experience, error)
	UpdateExperience(ctx context.Context, id int64, patch model.ExperiencePatch) (bool, error)
	DeleteExperience(ctx context.Context, id int64) (bool, error)

	CreateSkill(ctx context.Context, s model.Skill) (int64, error)
	GetSkill(ctx context.Context, id int64) (*model.Skill, error)
	ListSkills(ctx context.Context) ([]model.Skill, error)
	UpdateSkill(ctx context.Context, id int64, patch model.SkillPatch) (bool, error)
	DeleteSkill(ctx context.Context, id int64) (bool, error)

	// UpsertAbout creates the single About record on first call and
	// updates it in place afterwards, refreshing UpdatedAt either way.
	UpsertAbout(ctx context.Context, a model.About) (int64, error)
	GetAbout(ctx context.Context) (*model.About, error)

	CreateSubmission(ctx context.Context, s model.ContactSubmission) (int64, error)
	ListSubmissions(ctx context.Context) ([]model.ContactSubmission, error)
	DeleteSubmission(ctx context.Context, id int64) (bool, error)
	// MarkEmailSent flips email_sent and stamps email_sent_at. It is the
	// only mutation submissions support.
	MarkEmailSent(ctx context.Context, id int64) (bool, error)
	// CountRecentByIP counts submissions from ip created within the
	// trailing window. Pure read.
	CountRecentByIP(ctx context.Context, ip string, window time.Duration) (int, error)

	// Dump exports every collection and the sequence counters.
	Dump(ctx context.Context) (*model.Dump, error)
	// Load clears every collection and bulk-inserts the dump, counters
	// included. Records keep their identifiers and timestamps.
	Load(ctx context.Context, d *model.Dump) error

	// VerifyIntegrity answers "can the store serve a trivial read" without
	// mutating state.
	VerifyIntegrity(ctx context.Context) model.Health
	// Checkpoint flushes write-ahead or buffered state to the durable
	// files. Callers treat failure as non-fatal.
	Checkpoint(ctx context.Context) error
	// Drain closes pooled connections so no stale reader holds the old
	// state open during replacement. Backends reopen lazily.
	Drain() error
	// CleanWALArtifacts removes transient journal/shadow files belonging
	// to the drained state. No-op for backends without them.
	CleanWALArtifacts() error

	Close() error
}
