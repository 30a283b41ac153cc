package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ssot/internal/demo"
	"ssot/internal/model"
	"ssot/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGrowAppendsRows(t *testing.T) {
	dir := t.TempDir()
	gen := demo.New(5)
	_, err := gen.WriteDir(dir, 3, true)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	n, err := grow(ctx, gen, store.Path(dir, model.ResourceTargeting), 100)
	require.NoError(t, err)
	require.Positive(t, n)

	l, err := store.OpenLocal(dir, 0, false)
	require.NoError(t, err)
	ds, err := l.Fetch(context.Background(), model.ResourceTargeting)
	require.NoError(t, err)
	assert.Equal(t, 3+n, ds.Len())
	assert.Equal(t, demo.TargetingColumns, ds.Columns())
}

func TestGrowMissingFile(t *testing.T) {
	_, err := grow(context.Background(), demo.New(1), store.Path(t.TempDir(), model.ResourceTargeting), 10)
	assert.Error(t, err)
}
