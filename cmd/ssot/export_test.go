package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssot/internal/edit"
	"ssot/internal/facet"
	"ssot/internal/model"
)

func engine() *facet.Engine {
	e := facet.NewEngine(edit.DefaultFamilies()[model.ResourceTargeting].Facets...)
	e.SetDataset(model.NewDataset([]model.Record{
		model.RecordOf("AGENCY_NAME", "Y", "ADVERTISER_NAME", "Acme", "CAMPAIGN_ID", "C1"),
		model.RecordOf("AGENCY_NAME", "Y", "ADVERTISER_NAME", "Bolt", "CAMPAIGN_ID", "C2"),
		model.RecordOf("AGENCY_NAME", "Z", "ADVERTISER_NAME", "Core", "CAMPAIGN_ID", "C3"),
	}))
	return e
}

func TestApplySelectionsCascades(t *testing.T) {
	e := engine()
	require.NoError(t, applySelections(e, []string{"Agency=Y"}))
	assert.Len(t, e.Visible(), 2)
	assert.Equal(t, []string{"Acme", "Bolt"}, e.Options(1))

	e = engine()
	require.NoError(t, applySelections(e, []string{"Agency=Y", "ADVERTISER_NAME=Bolt", "Agency=Z"}))
	vis := e.Visible()
	require.Len(t, vis, 1)
	assert.Equal(t, "C2", vis[0].Get("CAMPAIGN_ID"))
}

func TestApplySelectionsErrors(t *testing.T) {
	assert.ErrorContains(t, applySelections(engine(), []string{"Agency"}), "want Facet=value")
	assert.ErrorContains(t, applySelections(engine(), []string{"Region=EU"}), "unknown facet")
	assert.ErrorIs(t, applySelections(engine(), []string{"Agency=Q"}), facet.ErrUnknownOption)
}

func TestExportPath(t *testing.T) {
	assert.Equal(t, "targeting.csv", exportPath(model.ResourceTargeting, "", ""))
	assert.Equal(t, "mediaPlan.ndjson", exportPath(model.ResourceMediaPlan, "", "ndjson"))
	assert.Equal(t, "/tmp/x.csv", exportPath(model.ResourceMediaPlan, "/tmp/x.csv", "ndjson"))
}
