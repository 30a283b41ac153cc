package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ssot/internal/model"
	"ssot/internal/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api/", 5*time.Second)
	require.NoError(t, err)
	return c
}

func TestFetchKeepsColumnOrder(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/mediaPlan", r.URL.Path)
		_, err := uuid.Parse(r.Header.Get(RequestIDHeader))
		assert.NoError(t, err)
		_, _ = io.WriteString(w, `{"data":[{"PLACMENT":"P-1","CAMPAIGN_ID":"C-1","BUDGET":1200}]}`)
	})
	ds, err := c.Fetch(context.Background(), model.ResourceMediaPlan)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, []string{"PLACMENT", "CAMPAIGN_ID", "BUDGET"}, ds.Columns())
	assert.Equal(t, "1200", ds.At(0).Get("BUDGET"))
}

func TestUpdateRoutesAndBody(t *testing.T) {
	var gotPath string
	var gotBody source.Payload
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotPath = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"success":true,"updated":2}`)
	})
	p := source.Payload{
		Keys:   []string{"RADIA_OR_PRISMA_PACKAGE_NAME"},
		Record: model.RecordOf("RADIA_OR_PRISMA_PACKAGE_NAME", "PKG-1", "TACTIC", "x"),
	}
	ok, err := c.UpdateByKey(context.Background(), model.ResourceTargeting, p)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/api/targeting/by-key", gotPath)
	assert.Equal(t, p.Keys, gotBody.Keys)
	assert.True(t, p.Record.Equal(gotBody.Record))

	_, err = c.UpdateByCompoundKey(context.Background(), model.ResourceTargeting, p)
	require.NoError(t, err)
	assert.Equal(t, "/api/targeting/by-compound-key", gotPath)
}

func TestUpdateUnsuccessful(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"updated":0}`)
	})
	ok, err := c.UpdateByCompoundKey(context.Background(), model.ResourceMediaPlan, source.Payload{Keys: []string{"A"}, Record: model.RecordOf("A", "1")})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNon2xxIsError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":"keys match more than one record"}`)
	})
	_, err := c.UpdateByCompoundKey(context.Background(), model.ResourceTargeting, source.Payload{Keys: []string{"A"}, Record: model.RecordOf("A", "1")})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusConflict))
	assert.Contains(t, err.Error(), "more than one record")

	_, err = c.Fetch(context.Background(), model.ResourceCampaign)
	assert.True(t, IsStatus(err, http.StatusConflict))
}

func TestBadBody(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})
	_, err := c.Fetch(context.Background(), model.ResourceCampaign)
	assert.ErrorContains(t, err, "decode response")
}

func TestNewRejectsBadBase(t *testing.T) {
	_, err := New("localhost:3000", 0)
	assert.Error(t, err)
	_, err = New("ftp://x", 0)
	assert.Error(t, err)
}
