package logx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFilterAndRing(t *testing.T) {
	Reset()
	SetLevel(Warn)
	defer SetLevel(Info)
	Infof("hidden %d", 1)
	Warnf("shown %d", 2)
	lines := Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "WARN  shown 2")
}

func TestRingDropsOldest(t *testing.T) {
	Reset()
	for i := 0; i < maxLines+3; i++ {
		Errorf("line %d", i)
	}
	lines := Lines()
	require.Len(t, lines, maxLines)
	assert.True(t, strings.HasSuffix(lines[0], "line 3"))
}

func TestMirrorToFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "ssot.log")
	require.NoError(t, Mirror(p))
	defer func() {
		mu.Lock()
		sink = nil
		mu.Unlock()
	}()
	Errorf("mirrored %s", "line")
	Sync()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), "mirrored line")
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel(" Warning ")
	assert.True(t, ok)
	assert.Equal(t, Warn, l)
	_, ok = ParseLevel("loud")
	assert.False(t, ok)
}
