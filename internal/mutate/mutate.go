// Package mutate submits an edit session to the source of truth and reloads
// the affected table on success.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ssot/internal/edit"
	"ssot/internal/model"
	"ssot/internal/source"
	"ssot/internal/util/logx"
)

var (
	ErrSessionClosed  = errors.New("mutate: session is closed")
	ErrSubmitInFlight = errors.New("mutate: a submit is already in flight")
	ErrRejected       = errors.New("update rejected by source")
)

// FailureMessage is the text of the alert raised on a failed update.
const FailureMessage = "Update failed"

// Notifier raises a blocking alert to the operator.
type Notifier interface {
	Alert(msg string)
}

// LogNotifier records alerts in the application log.
type LogNotifier struct{}

func (LogNotifier) Alert(msg string) { logx.Errorf("alert: %s", msg) }

// BuildPayload converts a session into an update payload. A BY_KEY session
// already holds exactly its whitelist; a BY_COMPOUND_KEY session holds the
// full record.
func BuildPayload(s *edit.Session) source.Payload {
	return source.Payload{
		Keys:   append([]string(nil), s.KeyColumns...),
		Record: s.Working(),
	}
}

// Coordinator serialises submits and reloads after success. No retries.
type Coordinator struct {
	updater  source.Updater
	reloader source.Reloader
	notify   Notifier

	mu       sync.Mutex
	inFlight bool
}

func NewCoordinator(u source.Updater, r source.Reloader, n Notifier) *Coordinator {
	if n == nil {
		n = LogNotifier{}
	}
	return &Coordinator{updater: u, reloader: r, notify: n}
}

// InFlight reports whether a submit is running.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Submit sends the session's payload through the update operation of its
// scope. On success the session is closed and the table is reloaded in
// full; the fresh dataset is returned. On failure the session stays open,
// the operator is alerted and an *source.UpdateFailure is returned.
func (c *Coordinator) Submit(ctx context.Context, s *edit.Session) (model.Dataset, error) {
	if s.Closed() {
		return model.Dataset{}, ErrSessionClosed
	}
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return model.Dataset{}, ErrSubmitInFlight
	}
	c.inFlight = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	p := BuildPayload(s)
	var (
		ok  bool
		err error
	)
	switch s.Scope {
	case edit.ScopeByKey:
		ok, err = c.updater.UpdateByKey(ctx, s.Resource, p)
	case edit.ScopeByCompoundKey:
		ok, err = c.updater.UpdateByCompoundKey(ctx, s.Resource, p)
	default:
		err = fmt.Errorf("unknown scope %q", s.Scope)
	}
	if err == nil && !ok {
		err = ErrRejected
	}
	if err != nil {
		logx.Warnf("mutate: %s %s keys=%v failed: %v", s.Resource, s.Scope, p.KeyValues(), err)
		c.notify.Alert(FailureMessage)
		return model.Dataset{}, &source.UpdateFailure{Resource: s.Resource, Scope: string(s.Scope), Err: err}
	}

	logx.Infof("mutate: %s %s keys=%v ok", s.Resource, s.Scope, p.KeyValues())
	s.Close()
	ds, err := c.reloader.Reload(ctx, s.Resource)
	if err != nil {
		return model.Dataset{}, &source.LoadFailure{Resource: s.Resource, Err: err}
	}
	return ds, nil
}
