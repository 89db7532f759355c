// Package backup creates point-in-time snapshots of the store and restores
// from them. A restore runs a fixed sequence: safety backup, checkpoint,
// drain, WAL-artifact cleanup, load, re-checkpoint, integrity check. The
// sequence is serialized against concurrent restores by a manager-wide
// lock; the caller keeps ordinary write traffic away for the duration.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ulikunitz/xz"

	"github.com/arkadas/portfolio-api/internal/store"
	"github.com/arkadas/portfolio-api/pkg/model"
)

const (
	filePrefix = "portfolio_backup_"
	extPlain   = ".json"
	extXZ      = ".json.xz"
	// Timestamps embedded in filenames have one-second resolution.
	// Collisions within the same second overwrite; last write wins.
	timestampLayout = "20060102_150405"
)

var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

var (
	// ErrBackupNotFound is returned for a restore naming an absent file.
	ErrBackupNotFound = errors.New("portfolio: backup file not found")
	// ErrIntegrityCheck is returned when the store fails its health probe
	// after a restore. The restore is not rolled back; the safety backup
	// in the result is the manual recovery path.
	ErrIntegrityCheck = errors.New("portfolio: integrity check failed after restore")
)

// Manager owns the backup directory and drives snapshot and restore
// sequences against a store.
type Manager struct {
	store         store.Store
	dir           string
	compress      bool
	minimumFreeGB uint
	log           *slog.Logger

	// restoreMu serializes the drain-through-verify window of a restore.
	restoreMu sync.Mutex
}

// Config configures a Manager.
type Config struct {
	// Dir is the backup directory; created on first use.
	Dir string
	// Compress writes .json.xz payloads instead of plain .json.
	Compress bool
	// MinimumFreeGB is a free-space threshold checked before writing a
	// snapshot. Zero disables the check.
	MinimumFreeGB uint
	// Logger is an optional structured logger. If nil, slog.Default is used.
	Logger *slog.Logger
}

// NewManager builds a Manager for st. It performs no I/O.
func NewManager(st store.Store, config Config) *Manager {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Manager{
		store:         st,
		dir:           config.Dir,
		compress:      config.Compress,
		minimumFreeGB: config.MinimumFreeGB,
		log:           config.Logger,
	}
}

// Info describes one backup file.
type Info struct {
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateResult reports a successful snapshot.
type CreateResult struct {
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Timestamp string `json:"timestamp"`
}

// RestoreResult reports a completed restore. SafetyBackup is empty when the
// pre-restore snapshot could not be taken; IntegrityCheck is "passed" on
// success.
type RestoreResult struct {
	SafetyBackup   string `json:"safety_backup,omitempty"`
	IntegrityCheck string `json:"integrity_check"`
	BytesApplied   int    `json:"bytes_applied"`
}

func (m *Manager) ext() string {
	if m.compress {
		return extXZ
	}
	return extPlain
}

// Create snapshots the full store state into a new timestamped file.
func (m *Manager) Create(ctx context.Context) (CreateResult, error) {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return CreateResult{}, fmt.Errorf("mkdir %s: %w", m.dir, err)
	}
	if err := store.CheckFreeSpace(m.dir, m.minimumFreeGB); err != nil {
		return CreateResult{}, err
	}

	// Best effort: a failed checkpoint narrows the snapshot's durability
	// window but does not invalidate the dump.
	if err := m.store.Checkpoint(ctx); err != nil {
		m.log.Warn("checkpoint before backup failed", "error", err)
	}

	dump, err := m.store.Dump(ctx)
	if err != nil {
		return CreateResult{}, fmt.Errorf("dump store: %w", err)
	}

	payload, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return CreateResult{}, fmt.Errorf("encode dump: %w", err)
	}
	if m.compress {
		var buf bytes.Buffer
		w, err := xz.NewWriter(&buf)
		if err != nil {
			return CreateResult{}, fmt.Errorf("xz writer: %w", err)
		}
		if _, err := w.Write(payload); err != nil {
			return CreateResult{}, fmt.Errorf("compress dump: %w", err)
		}
		if err := w.Close(); err != nil {
			return CreateResult{}, fmt.Errorf("compress dump: %w", err)
		}
		payload = buf.Bytes()
	}

	timestamp := time.Now().UTC().Format(timestampLayout)
	filename := filePrefix + timestamp + m.ext()
	path := filepath.Join(m.dir, filename)
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return CreateResult{}, fmt.Errorf("write %s: %w", filename, err)
	}

	m.log.Info("backup created",
		"filename", filename, "size", humanize.IBytes(uint64(len(payload))))
	return CreateResult{
		Filename:  filename,
		Path:      path,
		SizeBytes: int64(len(payload)),
		Timestamp: timestamp,
	}, nil
}

// List enumerates backup files newest first. A missing directory yields an
// empty slice, not an error.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	list := []Info{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) {
			continue
		}
		if !strings.HasSuffix(name, extPlain) && !strings.HasSuffix(name, extXZ) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			m.log.Warn("stat backup failed", "filename", name, "error", err)
			continue
		}
		list = append(list, Info{
			Filename:  name,
			SizeBytes: fi.Size(),
			CreatedAt: fi.ModTime(),
		})
	}

	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].Filename > list[j].Filename
	})
	return list, nil
}

// Path resolves filename inside the backup directory, rejecting names that
// could escape it. Used by the API layer for downloads.
func (m *Manager) Path(filename string) (string, error) {
	if filename == "" || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return "", fmt.Errorf("invalid backup filename %q", filename)
	}
	p := filepath.Join(m.dir, filename)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrBackupNotFound, filename)
	} else if err != nil {
		return "", fmt.Errorf("stat backup %s: %w", filename, err)
	}
	return p, nil
}

// Restore replaces the store's state with the named backup file.
func (m *Manager) Restore(ctx context.Context, filename string) (RestoreResult, error) {
	path, err := m.Path(filename)
	if err != nil {
		return RestoreResult{}, err
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return RestoreResult{}, fmt.Errorf("read backup %s: %w", filename, err)
	}
	return m.RestoreFromBytes(ctx, payload)
}

// RestoreFromBytes replaces the store's state with an uploaded payload.
// Compressed payloads are detected by their magic bytes and decompressed
// transparently.
func (m *Manager) RestoreFromBytes(ctx context.Context, payload []byte) (RestoreResult, error) {
	raw := payload
	if bytes.HasPrefix(raw, xzMagic) {
		r, err := xz.NewReader(bytes.NewReader(raw))
		if err != nil {
			return RestoreResult{}, fmt.Errorf("open compressed backup: %w", err)
		}
		raw, err = io.ReadAll(r)
		if err != nil {
			return RestoreResult{}, fmt.Errorf("decompress backup: %w", err)
		}
	}

	// Decode before touching any state so an invalid payload cannot leave
	// the store half-replaced.
	var dump model.Dump
	if err := json.Unmarshal(raw, &dump); err != nil {
		return RestoreResult{}, fmt.Errorf("decode backup payload: %w", err)
	}
	if dump.Version != model.DumpVersion {
		return RestoreResult{}, fmt.Errorf("unsupported backup version %d", dump.Version)
	}

	res := RestoreResult{BytesApplied: len(payload)}

	// Losing the safety net must not block an otherwise-valid restore,
	// but the caller learns from the result that no safety backup exists.
	if safety, err := m.Create(ctx); err != nil {
		m.log.Warn("safety backup before restore failed, proceeding without one", "error", err)
	} else {
		res.SafetyBackup = safety.Filename
	}

	m.restoreMu.Lock()
	defer m.restoreMu.Unlock()

	if err := m.store.Checkpoint(ctx); err != nil {
		m.log.Warn("checkpoint before restore failed", "error", err)
	}
	if err := m.store.Drain(); err != nil {
		m.log.Error("restore aborted: drain failed", "error", err)
		return res, fmt.Errorf("drain store: %w", err)
	}
	if err := m.store.CleanWALArtifacts(); err != nil {
		m.log.Error("restore aborted: WAL cleanup failed", "error", err)
		return res, fmt.Errorf("clean WAL artifacts: %w", err)
	}
	if err := m.store.Load(ctx, &dump); err != nil {
		m.log.Error("restore aborted: load failed", "error", err)
		return res, fmt.Errorf("load backup: %w", err)
	}
	if err := m.store.Checkpoint(ctx); err != nil {
		m.log.Warn("checkpoint after restore failed", "error", err)
	}

	if health := m.store.VerifyIntegrity(ctx); !health.Healthy {
		m.log.Error("restored store failed integrity check",
			"message", health.Message, "safety_backup", res.SafetyBackup)
		return res, fmt.Errorf("%w: %s", ErrIntegrityCheck, health.Message)
	}

	res.IntegrityCheck = "passed"
	m.log.Info("store restored", "bytes", len(payload), "safety_backup", res.SafetyBackup)
	return res, nil
}

// Prune applies a retention policy: keep the newest keep backups, delete
// the rest. Individual deletion failures are logged and skipped.
func (m *Manager) Prune(keep int) (deleted, kept int, err error) {
	if keep < 0 {
		keep = 0
	}
	list, err := m.List()
	if err != nil {
		return 0, 0, err
	}
	for i, info := range list {
		if i < keep {
			kept++
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, info.Filename)); err != nil {
			m.log.Warn("prune: delete failed", "filename", info.Filename, "error", err)
			kept++
			continue
		}
		deleted++
	}
	if deleted > 0 {
		m.log.Info("old backups pruned", "deleted", deleted, "kept", kept)
	}
	return deleted, kept, nil
}
