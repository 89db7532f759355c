// Package portfolio is the main handle of the portfolio content service. It
// owns the record store, the backup manager, and the lifecycle of background
// maintenance.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arkadas/portfolio-api/internal/backup"
	"github.com/arkadas/portfolio-api/internal/store"
	"github.com/arkadas/portfolio-api/internal/store/badgerstore"
	"github.com/arkadas/portfolio-api/internal/store/sqlitestore"
)

var (
	ErrNotStarted = errors.New("portfolio: service not started")
	ErrClosed     = errors.New("portfolio: service closed")
)

// Config configures a Portfolio instance.
type Config struct {
	// DataDir is the storage root. The backend keeps its files beneath it.
	DataDir string
	// BackupDir receives snapshot files.
	BackupDir string
	// Backend selects the store implementation, "badger" or "sqlite".
	Backend string
	// MinimumFreeGB is a free-space threshold checked before opening the
	// store and before writing a backup. Zero disables the check.
	MinimumFreeGB uint
	// CompressBackups writes xz-compressed snapshots.
	CompressBackups bool
	// CheckpointInterval is the period of the background checkpoint loop.
	// Zero disables it.
	CheckpointInterval time.Duration
	// Logger is an optional structured logger. If nil, a stderr logger is used.
	Logger *slog.Logger
}

// Portfolio is the service handle. New constructs it, Start opens the store
// and launches maintenance, Close releases everything. Accessors return the
// live subsystems; Ready gates request handling on lifecycle state.
type Portfolio struct {
	log    *slog.Logger
	config Config

	mu      sync.RWMutex
	store   store.Store
	backups *backup.Manager

	started   atomic.Bool
	closed    atomic.Bool
	startOnce sync.Once
	closeOnce sync.Once
	stop      chan struct{}
	loopDone  chan struct{}
}

func defaultLogger() *slog.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(h)
}

// New constructs a handle. New does not perform heavy I/O or start
// background goroutines. Call Start to open the store.
func New(conf Config) (*Portfolio, error) {
	if conf.DataDir == "" {
		return nil, fmt.Errorf("data directory must be provided in config")
	}
	if conf.BackupDir == "" {
		conf.BackupDir = filepath.Join(conf.DataDir, "backups")
	}
	if conf.Backend == "" {
		conf.Backend = "badger"
	}
	if conf.Backend != "badger" && conf.Backend != "sqlite" {
		return nil, fmt.Errorf("unknown storage backend %q", conf.Backend)
	}
	if conf.Logger == nil {
		conf.Logger = defaultLogger()
	}
	return &Portfolio{
		log:      conf.Logger,
		config:   conf,
		stop:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}, nil
}

// Start opens the store backend and launches the periodic checkpoint loop.
// Start is safe to call multiple times; only the first call has effect.
func (p *Portfolio) Start(ctx context.Context) error {
	var startErr error
	p.startOnce.Do(func() {
		if err := os.MkdirAll(p.config.DataDir, 0o700); err != nil {
			startErr = fmt.Errorf("mkdir %s: %w", p.config.DataDir, err)
			return
		}

		st, err := p.openStore()
		if err != nil {
			startErr = err
			return
		}

		p.mu.Lock()
		p.store = st
		p.backups = backup.NewManager(st, backup.Config{
			Dir:           p.config.BackupDir,
			Compress:      p.config.CompressBackups,
			MinimumFreeGB: p.config.MinimumFreeGB,
			Logger:        p.log,
		})
		p.mu.Unlock()

		if p.config.CheckpointInterval > 0 {
			go p.checkpointLoop()
		} else {
			close(p.loopDone)
		}

		p.started.Store(true)
		p.log.Info("portfolio service started",
			"backend", p.config.Backend, "path", p.config.DataDir)
	})
	return startErr
}

func (p *Portfolio) openStore() (store.Store, error) {
	switch p.config.Backend {
	case "sqlite":
		return sqlitestore.Open(sqlitestore.Config{
			Path:          filepath.Join(p.config.DataDir, "portfolio.db"),
			MinimumFreeGB: p.config.MinimumFreeGB,
			Logger:        p.log,
		})
	default:
		return badgerstore.Open(badgerstore.Config{
			Dir:           filepath.Join(p.config.DataDir, "badger"),
			MinimumFreeGB: p.config.MinimumFreeGB,
			Logger:        p.log,
		})
	}
}

// checkpointLoop flushes durable state on a fixed period so an unclean stop
// loses at most one interval of buffered writes.
func (p *Portfolio) checkpointLoop() {
	defer close(p.loopDone)
	ticker := time.NewTicker(p.config.CheckpointInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// Close may have released the store already if its shutdown
			// context expired before this loop observed the stop signal.
			st := p.Store()
			if st == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := st.Checkpoint(ctx); err != nil {
				p.log.Error("periodic checkpoint failed", "error", err)
			}
			cancel()
		case <-p.stop:
			return
		}
	}
}

// Run starts the service, blocks until ctx is canceled, then performs a
// bounded graceful shutdown. It is a convenience for services.
func (p *Portfolio) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return p.Close(shutdownCtx)
}

// Close stops background maintenance and closes the store. Close is
// idempotent and safe to call multiple times.
func (p *Portfolio) Close(ctx context.Context) error {
	var closeErr error
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.stop)

		if p.started.Load() {
			select {
			case <-p.loopDone:
			case <-ctx.Done():
				closeErr = errors.Join(closeErr, ctx.Err())
			}

			checkpointCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := p.Store().Checkpoint(checkpointCtx); err != nil {
				p.log.Warn("final checkpoint failed", "error", err)
			}
			cancel()
		}

		p.mu.Lock()
		st := p.store
		p.store = nil
		p.mu.Unlock()
		if st != nil {
			if err := st.Close(); err != nil {
				closeErr = errors.Join(closeErr, fmt.Errorf("close store: %w", err))
			}
		}

		p.log.Info("portfolio service closed")
	})
	return closeErr
}

// Ready reports whether the service can handle requests.
func (p *Portfolio) Ready() error {
	if p.closed.Load() {
		return ErrClosed
	}
	if !p.started.Load() {
		return ErrNotStarted
	}
	return nil
}

// Store returns the live record store, or nil before Start and after Close.
// Callers gate on Ready first.
func (p *Portfolio) Store() store.Store {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.store
}

// Backups returns the backup manager, or nil before Start.
func (p *Portfolio) Backups() *backup.Manager {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.backups
}
