// Package source defines the collaborators that fetch and update tables,
// and the errors they report.
package source

import (
	"context"
	"fmt"

	"ssot/internal/model"
)

// Payload is the body of an update: the key columns that identify the
// target record(s) and the fields to write.
type Payload struct {
	Keys   []string     `json:"keys" validate:"required,min=1,dive,required"`
	Record model.Record `json:"record"`
}

// KeyValues returns the payload's key column values in key order.
func (p Payload) KeyValues() []string {
	out := make([]string, len(p.Keys))
	for i, k := range p.Keys {
		out[i] = p.Record.Get(k)
	}
	return out
}

// Fetcher loads a whole table.
type Fetcher interface {
	Fetch(ctx context.Context, rt model.ResourceType) (model.Dataset, error)
}

// Updater applies the two scoped update operations. The bool reports whether
// the source of truth accepted the change.
type Updater interface {
	UpdateByKey(ctx context.Context, rt model.ResourceType, p Payload) (bool, error)
	UpdateByCompoundKey(ctx context.Context, rt model.ResourceType, p Payload) (bool, error)
}

// Backend is a source that can both fetch and update.
type Backend interface {
	Fetcher
	Updater
}

// LoadFailure reports a failed fetch of one table.
type LoadFailure struct {
	Resource model.ResourceType
	Err      error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("load %s: %v", e.Resource, e.Err)
}

func (e *LoadFailure) Unwrap() error { return e.Err }

// UpdateFailure reports a rejected or failed update.
type UpdateFailure struct {
	Resource model.ResourceType
	Scope    string
	Err      error
}

func (e *UpdateFailure) Error() string {
	return fmt.Sprintf("update %s (%s): %v", e.Resource, e.Scope, e.Err)
}

func (e *UpdateFailure) Unwrap() error { return e.Err }

// Status is the load state of one table. Each table carries its own.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Reloader fetches a table from the source of truth, skipping any snapshot.
type Reloader interface {
	Reload(ctx context.Context, rt model.ResourceType) (model.Dataset, error)
}

type direct struct{ f Fetcher }

func (d direct) Reload(ctx context.Context, rt model.ResourceType) (model.Dataset, error) {
	return d.f.Fetch(ctx, rt)
}

// Direct adapts a Fetcher that keeps no snapshot into a Reloader.
func Direct(f Fetcher) Reloader { return direct{f: f} }
