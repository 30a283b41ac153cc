package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssot/internal/model"
)

func rows() model.Dataset {
	return model.NewDataset([]model.Record{
		model.RecordOf("AGENCY_NAME", "X", "CONTACT", "ana@example.com"),
		model.RecordOf("AGENCY_NAME", "Y", "CONTACT", "token: abcdef123456"),
	})
}

func TestBuildPromptRedacts(t *testing.T) {
	p := BuildPrompt(Request{Resource: model.ResourceTargeting, Filters: "Agency: all", Rows: rows()})
	assert.Contains(t, p, "Table: Targeting & Analytics")
	assert.Contains(t, p, "AGENCY_NAME | CONTACT")
	assert.Contains(t, p, "[redacted-email]")
	assert.NotContains(t, p, "ana@example.com")
	assert.NotContains(t, p, "abcdef123456=")
}

func TestBuildPromptCapsRows(t *testing.T) {
	recs := make([]model.Record, 250)
	for i := range recs {
		recs[i] = model.RecordOf("A", "v")
	}
	p := BuildPrompt(Request{Resource: model.ResourceCampaign, Rows: model.NewDataset(recs)})
	assert.Contains(t, p, "Rows shown: 200 of 250")
	assert.Equal(t, 200, strings.Count(p, "\nv"))
}

func TestSummarizeDisabled(t *testing.T) {
	_, err := NewOpenAIClient("", "", "gpt-4o-mini", time.Second).Summarize(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestSummarizeAgainstFakeServer(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		content, _ := json.Marshal(Summary{Headline: "two agencies", Highlights: []string{"X and Y"}})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": string(content)}, "finish_reason": "stop"}},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL+"/v1", "gpt-4o-mini", 5*time.Second)
	req := Request{Resource: model.ResourceTargeting, Rows: rows()}
	s, err := c.Summarize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "two agencies", s.Headline)

	_, err = c.Summarize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
