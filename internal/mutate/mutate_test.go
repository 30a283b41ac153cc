package mutate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ssot/internal/edit"
	"ssot/internal/model"
	"ssot/internal/source"
	"ssot/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	scope   string
	rt      model.ResourceType
	payload source.Payload
}

type fakeUpdater struct {
	ok    bool
	err   error
	calls []call
	// gate, when set, blocks the update until closed.
	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeUpdater) record(scope string, rt model.ResourceType, p source.Payload) (bool, error) {
	f.calls = append(f.calls, call{scope: scope, rt: rt, payload: p})
	if f.gate != nil {
		close(f.entered)
		<-f.gate
	}
	return f.ok, f.err
}

func (f *fakeUpdater) UpdateByKey(_ context.Context, rt model.ResourceType, p source.Payload) (bool, error) {
	return f.record("key", rt, p)
}

func (f *fakeUpdater) UpdateByCompoundKey(_ context.Context, rt model.ResourceType, p source.Payload) (bool, error) {
	return f.record("compound", rt, p)
}

type fakeReloader struct {
	ds    model.Dataset
	calls int
}

func (f *fakeReloader) Reload(context.Context, model.ResourceType) (model.Dataset, error) {
	f.calls++
	return f.ds, nil
}

type alerts []string

func (a *alerts) Alert(msg string) { *a = append(*a, msg) }

func targetingRow() model.Record {
	return model.RecordOf(
		"AGENCY_NAME", "Y",
		"RADIA_OR_PRISMA_PACKAGE_NAME", "PKG-1",
		"PLACEMENTNAME", "PL-1",
		"TACTIC", "prospecting",
		"BUY_MODEL", "CPM",
		"BRAND_SAFETY", "IAS",
		"BLS_MEASUREMENT", "no",
		"LIVE_DATE", "2024-03-01",
		"NOTES", "",
	)
}

func resolver() *edit.Resolver {
	return edit.NewResolver(edit.DefaultFamilies()[model.ResourceTargeting])
}

func TestByKeySubmitSendsExactlyWhitelist(t *testing.T) {
	s, ok := resolver().Resolve("RADIA_OR_PRISMA_PACKAGE_NAME", targetingRow())
	require.True(t, ok)
	require.NoError(t, s.Set("BUY_MODEL", "CPC"))

	up := &fakeUpdater{ok: true}
	fresh := model.NewDataset([]model.Record{targetingRow().With("BUY_MODEL", "CPC")})
	rl := &fakeReloader{ds: fresh}
	c := NewCoordinator(up, rl, &alerts{})

	ds, err := c.Submit(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, up.calls, 1)
	got := up.calls[0]
	assert.Equal(t, "key", got.scope)
	assert.Equal(t, model.ResourceTargeting, got.rt)
	assert.Equal(t, []string{"RADIA_OR_PRISMA_PACKAGE_NAME"}, got.payload.Keys)
	assert.Equal(t, edit.PackageFields, got.payload.Record.Columns())
	assert.Equal(t, "CPC", got.payload.Record.Get("BUY_MODEL"))
	assert.True(t, s.Closed())
	assert.Equal(t, 1, rl.calls)
	assert.Equal(t, "CPC", ds.At(0).Get("BUY_MODEL"))
}

func TestCompoundFailureKeepsSessionOpen(t *testing.T) {
	row := targetingRow()
	dataset := model.NewDataset([]model.Record{row})
	s, ok := resolver().Resolve("PLACEMENTNAME", row)
	require.True(t, ok)
	require.NoError(t, s.Set("NOTES", "hello"))

	up := &fakeUpdater{ok: false}
	rl := &fakeReloader{}
	var a alerts
	c := NewCoordinator(up, rl, &a)

	_, err := c.Submit(context.Background(), s)
	var uf *source.UpdateFailure
	require.True(t, errors.As(err, &uf))
	assert.Equal(t, "BY_COMPOUND_KEY", uf.Scope)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "compound", up.calls[0].scope)
	assert.Equal(t, row.Columns(), up.calls[0].payload.Record.Columns())

	assert.False(t, s.Closed())
	assert.Equal(t, "hello", s.Get("NOTES"))
	assert.Equal(t, alerts{FailureMessage}, a)
	assert.Zero(t, rl.calls)
	assert.Equal(t, "", dataset.At(0).Get("NOTES"))

	// the open session can be retried by the operator
	up.ok = true
	_, err = c.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, s.Closed())
}

func TestTransportErrorIsUpdateFailure(t *testing.T) {
	s, _ := resolver().Resolve("PLACEMENTNAME", targetingRow())
	boom := errors.New("connection refused")
	c := NewCoordinator(&fakeUpdater{err: boom}, &fakeReloader{}, &alerts{})
	_, err := c.Submit(context.Background(), s)
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.Closed())
}

func TestSubmitClosedSession(t *testing.T) {
	s, _ := resolver().Resolve("PLACEMENTNAME", targetingRow())
	s.Close()
	c := NewCoordinator(&fakeUpdater{ok: true}, &fakeReloader{}, nil)
	_, err := c.Submit(context.Background(), s)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSubmitRejectedWhileInFlight(t *testing.T) {
	up := &fakeUpdater{ok: true, entered: make(chan struct{}), gate: make(chan struct{})}
	c := NewCoordinator(up, &fakeReloader{}, &alerts{})
	first, _ := resolver().Resolve("PLACEMENTNAME", targetingRow())
	second, _ := resolver().Resolve("RADIA_OR_PRISMA_PACKAGE_NAME", targetingRow())

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), first)
		done <- err
	}()
	<-up.entered
	assert.True(t, c.InFlight())

	_, err := c.Submit(context.Background(), second)
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.False(t, second.Closed())

	close(up.gate)
	require.NoError(t, <-done)
	assert.False(t, c.InFlight())
}

func TestRoundTripThroughStore(t *testing.T) {
	st := store.New()
	st.Put(model.ResourceTargeting, model.NewDataset([]model.Record{
		targetingRow(),
		targetingRow().With("PLACEMENTNAME", "PL-2"),
	}))
	ctx := context.Background()
	ds, _ := st.Fetch(ctx, model.ResourceTargeting)

	s, ok := resolver().Resolve("RADIA_OR_PRISMA_PACKAGE_NAME", ds.At(1))
	require.True(t, ok)
	require.NoError(t, s.Set("TACTIC", "retargeting"))

	c := NewCoordinator(st, source.Direct(st), nil)
	fresh, err := c.Submit(ctx, s)
	require.NoError(t, err)
	require.Equal(t, 2, fresh.Len())
	for i := 0; i < fresh.Len(); i++ {
		assert.Equal(t, "retargeting", fresh.At(i).Get("TACTIC"))
		assert.Equal(t, "", fresh.At(i).Get("NOTES"))
	}
	// the dataset the session was opened from is untouched
	assert.Equal(t, "prospecting", ds.At(1).Get("TACTIC"))
}
