// Package store holds the authoritative copy of every table and applies the
// two scoped update operations to it.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ssot/internal/model"
	"ssot/internal/source"
	"ssot/internal/util/logx"
)

var (
	ErrNoMatch    = errors.New("store: no record matches the keys")
	ErrAmbiguous  = errors.New("store: keys match more than one record")
	ErrMissingKey = errors.New("store: payload is missing a key value")
)

// ChangeFunc is called with the full table after every successful update.
type ChangeFunc func(rt model.ResourceType, ds model.Dataset) error

// Store is an in-memory set of tables safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	tables   map[model.ResourceType][]model.Record
	onChange ChangeFunc
}

func New() *Store {
	return &Store{tables: map[model.ResourceType][]model.Record{}}
}

// OnChange registers a hook run after each applied update, under the write
// lock. A hook error fails the update.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Put replaces a whole table.
func (s *Store) Put(rt model.ResourceType, ds model.Dataset) {
	s.mu.Lock()
	s.tables[rt] = ds.Records()
	s.mu.Unlock()
}

// Fetch returns a snapshot of a table. Unknown tables are empty.
func (s *Store) Fetch(_ context.Context, rt model.ResourceType) (model.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.NewDataset(s.tables[rt]), nil
}

func (s *Store) Len(rt model.ResourceType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[rt])
}

func (s *Store) UpdateByKey(ctx context.Context, rt model.ResourceType, p source.Payload) (bool, error) {
	n, err := s.ApplyByKey(rt, p)
	return n > 0, err
}

func (s *Store) UpdateByCompoundKey(ctx context.Context, rt model.ResourceType, p source.Payload) (bool, error) {
	n, err := s.ApplyByCompoundKey(rt, p)
	return n > 0, err
}

// ApplyByKey writes the payload fields to every record whose key columns
// match. It returns the number of records updated.
func (s *Store) ApplyByKey(rt model.ResourceType, p source.Payload) (int, error) {
	return s.apply(rt, p, false)
}

// ApplyByCompoundKey writes the payload fields to the one record whose key
// columns all match.
func (s *Store) ApplyByCompoundKey(rt model.ResourceType, p source.Payload) (int, error) {
	return s.apply(rt, p, true)
}

func (s *Store) apply(rt model.ResourceType, p source.Payload, exactlyOne bool) (int, error) {
	if len(p.Keys) == 0 {
		return 0, ErrMissingKey
	}
	keys := p.KeyValues()
	for i, k := range p.Keys {
		if _, ok := p.Record.Lookup(k); !ok || keys[i] == "" {
			return 0, fmt.Errorf("%w: %s", ErrMissingKey, k)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.tables[rt]
	hits := []int{}
	for i, r := range recs {
		if matches(r, p.Keys, keys) {
			hits = append(hits, i)
		}
	}
	switch {
	case len(hits) == 0:
		return 0, fmt.Errorf("%w: %s %v", ErrNoMatch, rt, keys)
	case exactlyOne && len(hits) > 1:
		return 0, fmt.Errorf("%w: %s %v (%d records)", ErrAmbiguous, rt, keys, len(hits))
	}

	next := make([]model.Record, len(recs))
	copy(next, recs)
	for _, i := range hits {
		next[i] = merge(next[i], p.Record)
	}
	if s.onChange != nil {
		if err := s.onChange(rt, model.NewDataset(next)); err != nil {
			return 0, err
		}
	}
	s.tables[rt] = next
	logx.Debugf("store: %s keys=%v updated %d", rt, keys, len(hits))
	return len(hits), nil
}

func matches(r model.Record, cols, vals []string) bool {
	for i, c := range cols {
		if r.Get(c) != vals[i] {
			return false
		}
	}
	return true
}

// merge overwrites the columns r already has; payload columns r lacks are
// ignored.
func merge(r, fields model.Record) model.Record {
	out := r
	for _, c := range fields.Columns() {
		if _, ok := r.Lookup(c); !ok {
			continue
		}
		out = out.With(c, fields.Get(c))
	}
	return out
}
