package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssot/internal/model"
)

func sample() model.Dataset {
	return model.NewDataset([]model.Record{
		model.RecordOf("CAMPAIGN_ID", "C-1", "NAME", "Spring, launch", "BUDGET", ""),
		model.RecordOf("CAMPAIGN_ID", "C-2", "NAME", "Fall", "BUDGET", "10"),
	})
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatCSV, FormatFor("out.csv"))
	assert.Equal(t, FormatCSV, FormatFor("out.txt"))
	assert.Equal(t, FormatNDJSON, FormatFor("OUT.NDJSON"))
	assert.Equal(t, FormatNDJSON, FormatFor("x.jsonl"))
}

func TestWriteCSV(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, WriteCSV(&b, sample(), nil, 0))
	assert.Equal(t, "CAMPAIGN_ID,NAME,BUDGET\nC-1,\"Spring, launch\",\nC-2,Fall,10\n", b.String())

	b.Reset()
	require.NoError(t, WriteCSV(&b, sample(), []string{"NAME", "CAMPAIGN_ID"}, ';'))
	assert.Equal(t, "NAME;CAMPAIGN_ID\nSpring, launch;C-1\nFall;C-2\n", b.String())
}

func TestWriteNDJSONKeepsOrder(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, WriteNDJSON(&b, sample()))
	assert.Equal(t,
		`{"CAMPAIGN_ID":"C-1","NAME":"Spring, launch","BUDGET":""}`+"\n"+
			`{"CAMPAIGN_ID":"C-2","NAME":"Fall","BUDGET":"10"}`+"\n",
		b.String())
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "v.ndjson")
	require.NoError(t, ToFile(p, sample(), []string{"NAME"}, 0))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "{\"NAME\":\"Spring, launch\"}\n{\"NAME\":\"Fall\"}\n", string(b))

	assert.ErrorIs(t, ToFile(filepath.Join(dir, "e.csv"), model.Dataset{}, nil, 0), ErrNoRows)
}

func TestAppendCSVSkipsHeader(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, AppendCSV(&b, sample(), []string{"BUDGET", "CAMPAIGN_ID"}, ';'))
	assert.Equal(t, ";C-1\n10;C-2\n", b.String())
}
