// Package backend assembles the table collaborators selected by the
// configuration: the remote API or a directory of CSV files, optionally
// behind the snapshot cache.
package backend

import (
	"fmt"

	"ssot/internal/cache"
	"ssot/internal/config"
	"ssot/internal/remote"
	"ssot/internal/source"
	"ssot/internal/store"
	"ssot/internal/util/logx"
)

// Set is what the application talks to.
type Set struct {
	Fetcher  source.Fetcher
	Reloader source.Reloader
	Updater  source.Updater
	// Local is set for the local backend.
	Local *store.Local

	snaps *cache.Snapshots
}

// Open builds the collaborators for cfg. Close releases the cache.
func Open(cfg *config.Config) (*Set, error) {
	var b source.Backend
	s := &Set{}
	switch cfg.Backend {
	case config.BackendRemote:
		c, err := remote.New(cfg.APIBase, cfg.HTTPTimeout)
		if err != nil {
			return nil, err
		}
		b = c
	case config.BackendLocal:
		l, err := store.OpenLocal(cfg.DataDir, cfg.Delim(), true)
		if err != nil {
			return nil, fmt.Errorf("data dir: %w", err)
		}
		s.Local = l
		b = l
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	s.Updater = b
	s.Fetcher = b
	s.Reloader = source.Direct(b)

	if !cfg.NoCache {
		snaps, err := cache.Open(cache.Config{Dir: cfg.CacheDir})
		if err != nil {
			// the cache is optional; run without it
			logx.Warnf("cache: disabled: %v", err)
			return s, nil
		}
		f := cache.Wrap(b, snaps)
		s.snaps = snaps
		s.Fetcher = f
		s.Reloader = f
	}
	logx.Infof("backend: %s", cfg.String())
	return s, nil
}

func (s *Set) Close() error {
	if s.snaps == nil {
		return nil
	}
	return s.snaps.Close()
}
