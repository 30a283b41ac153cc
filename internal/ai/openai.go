package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	altai "github.com/sashabaranov/go-openai"

	"ssot/internal/model"
	"ssot/internal/util"
)

var ErrDisabled = errors.New("openai disabled")

const maxRows = 200

// Summary is the model's reading of the rows on screen.
type Summary struct {
	Headline   string   `json:"headline"`
	Highlights []string `json:"highlights"`
	Anomalies  []string `json:"anomalies"`
}

// Request describes what the operator is looking at.
type Request struct {
	Resource model.ResourceType
	Filters  string
	Columns  []string
	Rows     model.Dataset
}

type OpenAIClient struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration

	mu   sync.Mutex
	memo map[uint64]Summary
}

func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{apiKey: apiKey, baseURL: baseURL, model: model, timeout: timeout, memo: map[uint64]Summary{}}
}

func (c *OpenAIClient) Enabled() bool { return c != nil && c.apiKey != "" }

// Summarize asks the model for a short summary of the visible rows. Cell
// values are redacted before they leave the process. Identical requests are
// answered from memory.
func (c *OpenAIClient) Summarize(ctx context.Context, req Request) (Summary, error) {
	if !c.Enabled() {
		return Summary{}, ErrDisabled
	}
	prompt := BuildPrompt(req)
	key := hashPrompt(prompt)
	c.mu.Lock()
	if s, ok := c.memo[key]; ok {
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := c.callAlt(ctx, prompt)
	if err != nil {
		return Summary{}, err
	}
	var out Summary
	if err := json.Unmarshal([]byte(resp), &out); err != nil {
		return Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	c.mu.Lock()
	c.memo[key] = out
	c.mu.Unlock()
	return out, nil
}

func (c *OpenAIClient) callAlt(ctx context.Context, prompt string) (string, error) {
	cfg := altai.DefaultConfig(c.apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	cli := altai.NewClientWithConfig(cfg)
	resp, err := cli.CreateChatCompletion(ctx, altai.ChatCompletionRequest{
		Model: c.model,
		Messages: []altai.ChatCompletionMessage{
			{Role: altai.ChatMessageRoleSystem, Content: "You summarise marketing operations tables for an analyst. Return ONLY strict JSON: {headline, highlights:[string], anomalies:[string]}. No prose, no code fences."},
			{Role: altai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    0.2,
		ResponseFormat: &altai.ChatCompletionResponseFormat{Type: altai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// BuildPrompt renders the request as delimited text, capped at 200 rows.
func BuildPrompt(req Request) string {
	cols := req.Columns
	if cols == nil {
		cols = model.Columns(req.Rows)
	}
	n := req.Rows.Len()
	if n > maxRows {
		n = maxRows
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s\n", req.Resource.Title())
	if req.Filters != "" {
		fmt.Fprintf(&b, "Filters: %s\n", req.Filters)
	}
	fmt.Fprintf(&b, "Rows shown: %d of %d\n", n, req.Rows.Len())
	b.WriteString(strings.Join(cols, " | "))
	b.WriteByte('\n')
	for i := 0; i < n; i++ {
		r := req.Rows.At(i)
		for j, c := range cols {
			if j > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(util.RedactPII(r.Get(c)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func hashPrompt(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
