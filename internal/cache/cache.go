// Package cache keeps the last fetched copy of each table in a badger
// database so the next start can render without waiting for the backend.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"

	"ssot/internal/model"
	"ssot/internal/source"
	"ssot/internal/util/logx"
)

type Config struct {
	// Dir holds the database. Ignored when InMemory is set.
	Dir      string
	InMemory bool
}

// DefaultDir returns a directory under the user cache dir.
func DefaultDir() string {
	dir, _ := os.UserCacheDir()
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "ssot", "snapshots")
}

type badgerLogger struct{}

func (badgerLogger) Errorf(f string, a ...interface{})   { logx.Errorf("badger: "+f, a...) }
func (badgerLogger) Warningf(f string, a ...interface{}) { logx.Warnf("badger: "+f, a...) }
func (badgerLogger) Infof(f string, a ...interface{})    { logx.Debugf("badger: "+f, a...) }
func (badgerLogger) Debugf(f string, a ...interface{})   {}

type entry struct {
	SavedAt time.Time     `json:"savedAt"`
	Data    model.Dataset `json:"data"`
}

// Snapshots stores one dataset per resource type.
type Snapshots struct {
	db *badger.DB
}

func Open(cfg Config) (*Snapshots, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, errors.New("cache: dir is required")
		}
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache: create %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(badgerLogger{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open: %w", err)
	}
	return &Snapshots{db: db}, nil
}

func (s *Snapshots) Close() error { return s.db.Close() }

func key(rt model.ResourceType) []byte { return []byte("snapshot/" + string(rt)) }

// Load returns the stored dataset for rt, if any.
func (s *Snapshots) Load(rt model.ResourceType) (model.Dataset, time.Time, bool, error) {
	var e entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(rt))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error { return json.Unmarshal(v, &e) })
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.Dataset{}, time.Time{}, false, nil
	}
	if err != nil {
		return model.Dataset{}, time.Time{}, false, fmt.Errorf("cache: load %s: %w", rt, err)
	}
	return e.Data, e.SavedAt, true, nil
}

func (s *Snapshots) Save(rt model.ResourceType, ds model.Dataset) error {
	b, err := json.Marshal(entry{SavedAt: time.Now().UTC(), Data: ds})
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error { return txn.Set(key(rt), b) }); err != nil {
		return fmt.Errorf("cache: save %s: %w", rt, err)
	}
	return nil
}

func (s *Snapshots) Drop(rt model.ResourceType) error {
	return s.db.Update(func(txn *badger.Txn) error { return txn.Delete(key(rt)) })
}

// Fetcher serves the first load of a table from its snapshot when one
// exists. Reload always goes to the inner fetcher and refreshes the
// snapshot.
type Fetcher struct {
	inner source.Fetcher
	snaps *Snapshots
}

func Wrap(inner source.Fetcher, snaps *Snapshots) *Fetcher {
	return &Fetcher{inner: inner, snaps: snaps}
}

func (f *Fetcher) Fetch(ctx context.Context, rt model.ResourceType) (model.Dataset, error) {
	ds, at, ok, err := f.snaps.Load(rt)
	if err != nil {
		logx.Warnf("%v", err)
	}
	if ok {
		logx.Infof("cache: %s served from snapshot saved %s (%d rows)", rt, at.Local().Format(time.RFC3339), ds.Len())
		return ds, nil
	}
	return f.Reload(ctx, rt)
}

func (f *Fetcher) Reload(ctx context.Context, rt model.ResourceType) (model.Dataset, error) {
	ds, err := f.inner.Fetch(ctx, rt)
	if err != nil {
		return model.Dataset{}, err
	}
	if err := f.snaps.Save(rt, ds); err != nil {
		logx.Warnf("%v", err)
	}
	return ds, nil
}
