// Package badgerstore implements the store contract on BadgerDB. Records
// are JSON documents under per-kind key prefixes; identifier sequences are
// counter keys incremented inside the same transaction as the insert.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/arkadas/portfolio-api/internal/store"
	"github.com/arkadas/portfolio-api/pkg/model"
)

const (
	prefixProject    = "project:"
	prefixExperience = "experience:"
	prefixSkill      = "skill:"
	prefixAbout      = "about:"
	prefixSubmission = "submission:"
	prefixSeq        = "seq:"
	// Skill names are unique; the index maps the lowercased name to the id.
	prefixSkillName = "skillname:"
)

// Config configures a BadgerStore.
type Config struct {
	// Dir is the Badger data directory.
	Dir string
	// MinimumFreeGB is a free-space threshold checked before opening.
	MinimumFreeGB uint
	// Logger is an optional structured logger. If nil, slog.Default is used.
	Logger *slog.Logger
}

// BadgerStore is the document backend.
type BadgerStore struct {
	db  *badger.DB
	log *slog.Logger
}

var _ store.Store = (*BadgerStore)(nil)

// Open opens (or creates) the Badger directory, retrying with backoff
// before reporting a connectivity error.
func Open(config Config) (*BadgerStore, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if err := os.MkdirAll(config.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", config.Dir, err)
	}
	if err := store.CheckFreeSpace(config.Dir, config.MinimumFreeGB); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(config.Dir)
	opts.Logger = nil

	var db *badger.DB
	err := store.OpenWithRetry(config.Logger, config.Dir, func() error {
		var openErr error
		db, openErr = badger.Open(opts)
		return openErr
	})
	if err != nil {
		return nil, err
	}

	return &BadgerStore{db: db, log: config.Logger}, nil
}

// update runs fn in a read-write transaction, retrying when Badger's
// optimistic concurrency control aborts the commit. Sequence keys are hot:
// every create of a kind touches the same seq: counter, so concurrent
// creates conflict routinely and must retry rather than surface the abort.
// fn must therefore be safe to re-run from scratch.
func (s *BadgerStore) update(fn func(txn *badger.Txn) error) error {
	const maxAttempts = 25
	for attempt := 1; ; attempt++ {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if attempt == maxAttempts {
			return fmt.Errorf("write transaction after %d attempts: %w", attempt, err)
		}
		time.Sleep(time.Duration(attempt) * time.Millisecond)
	}
}

// nextSeq increments the counter for name inside txn and returns the new
// value. Running inside the insert transaction keeps assignment atomic.
func nextSeq(txn *badger.Txn, name string) (int64, error) {
	key := []byte(prefixSeq + name)
	var current int64
	item, err := txn.Get(key)
	switch {
	case err == badger.ErrKeyNotFound:
		current = 0
	case err != nil:
		return 0, fmt.Errorf("read sequence %s: %w", name, err)
	default:
		if err := item.Value(func(val []byte) error {
			n, perr := strconv.ParseInt(string(val), 10, 64)
			if perr != nil {
				return perr
			}
			current = n
			return nil
		}); err != nil {
			return 0, fmt.Errorf("parse sequence %s: %w", name, err)
		}
	}

	next := current + 1
	if err := txn.Set(key, []byte(strconv.FormatInt(next, 10))); err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", name, err)
	}
	return next, nil
}

func putJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

// getJSON reads key into out. It returns store.ErrNotFound for an absent key.
func getJSON(txn *badger.Txn, key string, out any) error {
	item, err := txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func recordKey(prefix string, id int64) string {
	return fmt.Sprintf("%s%020d", prefix, id)
}

// iterate decodes every value under prefix and hands it to fn.
func (s *BadgerStore) iterate(prefix string, fn func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				return fn(val)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// VerifyIntegrity answers a trivial read: count the project collection.
func (s *BadgerStore) VerifyIntegrity(ctx context.Context) model.Health {
	count := 0
	err := s.iterate(prefixProject, func([]byte) error {
		count++
		return nil
	})
	if err != nil {
		s.log.Error("integrity probe failed", "error", err)
		return model.Health{Healthy: false, Status: "error", Message: err.Error()}
	}
	return model.Health{Healthy: true, Status: "ok", Message: "store is healthy"}
}

// Checkpoint forces buffered writes to the value log and memtables to disk.
func (s *BadgerStore) Checkpoint(ctx context.Context) error {
	if err := s.db.Sync(); err != nil {
		return fmt.Errorf("sync badger: %w", err)
	}
	return nil
}

// Drain is a no-op: Badger is an embedded single handle with no connection
// pool to close.
func (s *BadgerStore) Drain() error { return nil }

// CleanWALArtifacts is a no-op: Badger manages its own value log and has no
// sidecar journal files to remove.
func (s *BadgerStore) CleanWALArtifacts() error { return nil }

func (s *BadgerStore) Close() error {
	if err := s.db.Sync(); err != nil {
		s.log.Warn("sync on close failed", "error", err)
	}
	return s.db.Close()
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
