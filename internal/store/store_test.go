package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssot/internal/model"
	"ssot/internal/source"
)

func seeded() *Store {
	s := New()
	s.Put(model.ResourceTargeting, model.NewDataset([]model.Record{
		model.RecordOf("RADIA_OR_PRISMA_PACKAGE_NAME", "PKG-1", "PLACEMENTNAME", "PL-1", "TACTIC", "a", "NOTES", ""),
		model.RecordOf("RADIA_OR_PRISMA_PACKAGE_NAME", "PKG-1", "PLACEMENTNAME", "PL-2", "TACTIC", "a", "NOTES", ""),
		model.RecordOf("RADIA_OR_PRISMA_PACKAGE_NAME", "PKG-2", "PLACEMENTNAME", "PL-1", "TACTIC", "b", "NOTES", ""),
	}))
	return s
}

func TestUpdateByKeyTouchesEveryMatch(t *testing.T) {
	s := seeded()
	p := source.Payload{
		Keys:   []string{"RADIA_OR_PRISMA_PACKAGE_NAME"},
		Record: model.RecordOf("RADIA_OR_PRISMA_PACKAGE_NAME", "PKG-1", "TACTIC", "z", "UNKNOWN", "ignored"),
	}
	n, err := s.ApplyByKey(model.ResourceTargeting, p)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ds, err := s.Fetch(context.Background(), model.ResourceTargeting)
	require.NoError(t, err)
	assert.Equal(t, "z", ds.At(0).Get("TACTIC"))
	assert.Equal(t, "z", ds.At(1).Get("TACTIC"))
	assert.Equal(t, "b", ds.At(2).Get("TACTIC"))
	_, ok := ds.At(0).Lookup("UNKNOWN")
	assert.False(t, ok)
	assert.Equal(t, []string{"RADIA_OR_PRISMA_PACKAGE_NAME", "PLACEMENTNAME", "TACTIC", "NOTES"}, ds.At(0).Columns())
}

func TestUpdateByCompoundKeyExactlyOne(t *testing.T) {
	s := seeded()
	keys := []string{"RADIA_OR_PRISMA_PACKAGE_NAME", "PLACEMENTNAME"}
	ok, err := s.UpdateByCompoundKey(context.Background(), model.ResourceTargeting, source.Payload{
		Keys:   keys,
		Record: model.RecordOf("RADIA_OR_PRISMA_PACKAGE_NAME", "PKG-2", "PLACEMENTNAME", "PL-1", "TACTIC", "b", "NOTES", "moved"),
	})
	require.NoError(t, err)
	assert.True(t, ok)
	ds, _ := s.Fetch(context.Background(), model.ResourceTargeting)
	assert.Equal(t, "moved", ds.At(2).Get("NOTES"))
	assert.Equal(t, "", ds.At(0).Get("NOTES"))

	_, err = s.ApplyByCompoundKey(model.ResourceTargeting, source.Payload{
		Keys:   []string{"RADIA_OR_PRISMA_PACKAGE_NAME"},
		Record: model.RecordOf("RADIA_OR_PRISMA_PACKAGE_NAME", "PKG-1"),
	})
	assert.True(t, errors.Is(err, ErrAmbiguous))

	_, err = s.ApplyByCompoundKey(model.ResourceTargeting, source.Payload{
		Keys:   keys,
		Record: model.RecordOf("RADIA_OR_PRISMA_PACKAGE_NAME", "PKG-9", "PLACEMENTNAME", "PL-1"),
	})
	assert.True(t, errors.Is(err, ErrNoMatch))
}

func TestMissingKey(t *testing.T) {
	s := seeded()
	_, err := s.ApplyByKey(model.ResourceTargeting, source.Payload{
		Keys:   []string{"RADIA_OR_PRISMA_PACKAGE_NAME"},
		Record: model.RecordOf("TACTIC", "x"),
	})
	assert.True(t, errors.Is(err, ErrMissingKey))
	_, err = s.ApplyByKey(model.ResourceTargeting, source.Payload{Record: model.RecordOf("TACTIC", "x")})
	assert.True(t, errors.Is(err, ErrMissingKey))
}

func TestOnChangeErrorAbortsUpdate(t *testing.T) {
	s := seeded()
	boom := errors.New("disk full")
	s.OnChange(func(model.ResourceType, model.Dataset) error { return boom })
	ok, err := s.UpdateByKey(context.Background(), model.ResourceTargeting, source.Payload{
		Keys:   []string{"RADIA_OR_PRISMA_PACKAGE_NAME"},
		Record: model.RecordOf("RADIA_OR_PRISMA_PACKAGE_NAME", "PKG-2", "TACTIC", "c"),
	})
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
	ds, _ := s.Fetch(context.Background(), model.ResourceTargeting)
	assert.Equal(t, "b", ds.At(2).Get("TACTIC"))
}

func TestFetchUnknownTableIsEmpty(t *testing.T) {
	ds, err := New().Fetch(context.Background(), model.ResourceCampaign)
	require.NoError(t, err)
	assert.True(t, ds.Empty())
}

func TestLocalWriteBack(t *testing.T) {
	dir := t.TempDir()
	p := Path(dir, model.ResourceMediaPlan)
	require.NoError(t, os.WriteFile(p, []byte("CAMPAIGN_ID;PLACMENT;STATUS\nC-1;P-1;draft\nC-1;P-2;draft\n"), 0o644))

	l, err := OpenLocal(dir, 0, true)
	require.NoError(t, err)
	ctx := context.Background()
	ds, err := l.Fetch(ctx, model.ResourceMediaPlan)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	ok, err := l.UpdateByCompoundKey(ctx, model.ResourceMediaPlan, source.Payload{
		Keys:   []string{"CAMPAIGN_ID", "PLACMENT"},
		Record: model.RecordOf("CAMPAIGN_ID", "C-1", "PLACMENT", "P-2", "STATUS", "live"),
	})
	require.NoError(t, err)
	require.True(t, ok)

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "CAMPAIGN_ID;PLACMENT;STATUS\nC-1;P-1;draft\nC-1;P-2;live\n", string(b))

	fresh, err := OpenLocal(dir, 0, false)
	require.NoError(t, err)
	ds, err = fresh.Fetch(ctx, model.ResourceMediaPlan)
	require.NoError(t, err)
	assert.Equal(t, "live", ds.At(1).Get("STATUS"))
}

func TestLocalRereadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	p := Path(dir, model.ResourceCampaign)
	require.NoError(t, os.WriteFile(p, []byte("RADIA_ID,NAME\n1,a\n"), 0o644))
	l, err := OpenLocal(dir, ',', false)
	require.NoError(t, err)
	ctx := context.Background()

	ds, err := l.Fetch(ctx, model.ResourceCampaign)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())

	// in-memory edits survive while the file is unchanged
	_, err = l.ApplyByKey(model.ResourceCampaign, source.Payload{Keys: []string{"RADIA_ID"}, Record: model.RecordOf("RADIA_ID", "1", "NAME", "b")})
	require.NoError(t, err)
	ds, _ = l.Fetch(ctx, model.ResourceCampaign)
	assert.Equal(t, "b", ds.At(0).Get("NAME"))

	require.NoError(t, os.WriteFile(p, []byte("RADIA_ID,NAME\n1,a\n2,c\n"), 0o644))
	ds, err = l.Fetch(ctx, model.ResourceCampaign)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, "a", ds.At(0).Get("NAME"))
}

func TestLocalMissingFile(t *testing.T) {
	l, err := OpenLocal(t.TempDir(), 0, false)
	require.NoError(t, err)
	_, err = l.Fetch(context.Background(), model.ResourceRadiaPlan)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = OpenLocal(filepath.Join(t.TempDir(), "missing"), 0, false)
	assert.Error(t, err)
}

func TestLocalUpdateLoadsUnreadTable(t *testing.T) {
	dir := t.TempDir()
	p := Path(dir, model.ResourceMediaPlan)
	require.NoError(t, os.WriteFile(p, []byte("CAMPAIGN_ID,PLACMENT,STATUS\nC-1,P-1,draft\n"), 0o644))
	l, err := OpenLocal(dir, 0, false)
	require.NoError(t, err)

	ok, err := l.UpdateByCompoundKey(context.Background(), model.ResourceMediaPlan, source.Payload{
		Keys:   []string{"CAMPAIGN_ID", "PLACMENT"},
		Record: model.RecordOf("CAMPAIGN_ID", "C-1", "PLACMENT", "P-1", "STATUS", "live"),
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, l.Len(model.ResourceMediaPlan))
}
