package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnsFromFirstRecord(t *testing.T) {
	ds := NewDataset([]Record{
		RecordOf("AGENCY_NAME", "X", "ADVERTISER_NAME", "advX", "CAMPAIGN_ID", "1"),
		RecordOf("AGENCY_NAME", "Y", "ADVERTISER_NAME", "advY", "CAMPAIGN_ID", "2"),
	})
	if diff := cmp.Diff([]string{"AGENCY_NAME", "ADVERTISER_NAME", "CAMPAIGN_ID"}, Columns(ds)); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestColumnsEmptyDataset(t *testing.T) {
	assert.Empty(t, Columns(Dataset{}))
	assert.NotNil(t, Columns(Dataset{}))
}

func TestRecordUnmarshalKeepsOrder(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"Z":"1","A":2,"M":null,"B":true}`), &r)
	require.NoError(t, err)
	assert.Equal(t, []string{"Z", "A", "M", "B"}, r.Columns())
	assert.Equal(t, "2", r.Get("A"))
	assert.Equal(t, "", r.Get("M"))
	assert.Equal(t, "true", r.Get("B"))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"Z":"1","A":"2","M":"","B":"true"}`, string(out))
}

func TestRecordWithDoesNotMutate(t *testing.T) {
	r := RecordOf("A", "1", "B", "2")
	r2 := r.With("B", "3").With("C", "4")
	assert.Equal(t, "2", r.Get("B"))
	assert.Equal(t, []string{"A", "B"}, r.Columns())
	assert.Equal(t, []string{"A", "B", "C"}, r2.Columns())
	assert.Equal(t, "3", r2.Get("B"))
}

func TestRecordProject(t *testing.T) {
	r := RecordOf("A", "1", "B", "2", "C", "3")
	p := r.Project([]string{"C", "A", "D"})
	assert.Equal(t, []string{"C", "A", "D"}, p.Columns())
	assert.Equal(t, []string{"3", "1", ""}, p.Values())
}

func TestDatasetJSONRoundTrip(t *testing.T) {
	ds := NewDataset([]Record{RecordOf("B", "1", "A", "2")})
	b, err := json.Marshal(ds)
	require.NoError(t, err)
	var got Dataset
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, 1, got.Len())
	assert.True(t, ds.At(0).Equal(got.At(0)))
}

func TestParseResource(t *testing.T) {
	r, err := ParseResource("mediaplan")
	require.NoError(t, err)
	assert.Equal(t, ResourceMediaPlan, r)
	_, err = ParseResource("nope")
	assert.Error(t, err)
}
