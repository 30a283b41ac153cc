package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssot/internal/detect"
)

func TestReadCSVPadsAndSkipsBlank(t *testing.T) {
	in := "AGENCY_NAME, ADVERTISER_NAME ,CAMPAIGN_ID\nX,advX,1\n\nY,advY\nZ,advZ,3,extra\n"
	ds, err := ReadCSV(strings.NewReader(in), ',')
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"AGENCY_NAME", "ADVERTISER_NAME", "CAMPAIGN_ID"}, ds.Columns())
	assert.Equal(t, "", ds.At(1).Get("CAMPAIGN_ID"))
	assert.Equal(t, []string{"Z", "advZ", "3"}, ds.At(2).Values())
}

func TestReadCSVEmpty(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(""), ',')
	require.NoError(t, err)
	assert.True(t, ds.Empty())
}

func TestReadJSONEnvelopeAndArray(t *testing.T) {
	ds, err := ReadJSON(strings.NewReader(`{"data":[{"B":"1","A":"2"}]}`))
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, []string{"B", "A"}, ds.Columns())

	ds, err = ReadJSON(strings.NewReader(`[{"A":1},{"A":2}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, "2", ds.At(1).Get("A"))
}

func TestReadNDJSONBadLine(t *testing.T) {
	_, err := ReadNDJSON(strings.NewReader("{\"A\":\"1\"}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadFileSniffsDelimiter(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "targeting.csv")
	require.NoError(t, os.WriteFile(p, []byte("\xef\xbb\xbfA;B\n1;2\n3;4\n"), 0o644))

	ds, g, err := LoadFile(Options{Path: p})
	require.NoError(t, err)
	assert.Equal(t, detect.FormatDelimited, g.Format)
	assert.Equal(t, ';', g.Delimiter)
	assert.Equal(t, []string{"A", "B"}, ds.Columns())
	assert.Equal(t, 2, ds.Len())
}

func TestLoadFileForcedDelimiter(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "campaign.csv")
	require.NoError(t, os.WriteFile(p, []byte("A|B\n1|2\n"), 0o644))
	ds, _, err := LoadFile(Options{Path: p, Delimiter: '|'})
	require.NoError(t, err)
	assert.Equal(t, "2", ds.At(0).Get("B"))
}

func TestLoadFileMissing(t *testing.T) {
	_, _, err := LoadFile(Options{Path: filepath.Join(t.TempDir(), "nope.csv")})
	assert.Error(t, err)
}

func TestFollowEmitsChange(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "targeting.csv")
	require.NoError(t, os.WriteFile(p, []byte("A,B\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, errs := Follow(ctx, p, 50*time.Millisecond)

	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	var got Change
wait:
	for {
		select {
		case c, ok := <-changes:
			require.True(t, ok, "changes closed early")
			got = c
			break wait
		case err := <-errs:
			require.NoError(t, err)
		case <-tick.C:
			f, err := os.OpenFile(p, os.O_APPEND|os.O_WRONLY, 0o644)
			require.NoError(t, err)
			_, err = f.WriteString("1,2\n")
			require.NoError(t, err)
			require.NoError(t, f.Close())
		case <-deadline:
			t.Fatal("no change observed")
		}
	}
	assert.Equal(t, p, got.Path)
	assert.GreaterOrEqual(t, got.Lines, 1)

	cancel()
	for range changes {
	}
}
