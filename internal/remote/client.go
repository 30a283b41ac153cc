// Package remote talks to the REST backend that owns the tables.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"ssot/internal/model"
	"ssot/internal/source"
	"ssot/internal/util/logx"
)

const RequestIDHeader = "X-Request-ID"

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

// Envelope is the body of a table fetch.
type Envelope struct {
	Data model.Dataset `json:"data"`
}

// UpdateResult is the body of an update response.
type UpdateResult struct {
	Success bool `json:"success"`
	Updated int  `json:"updated"`
}

// Client implements source.Backend over HTTP.
type Client struct {
	base *url.URL
	http *http.Client
}

// New builds a client for base, e.g. http://localhost:3000/api. A zero
// timeout means none.
func New(base string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("api base: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base %q: scheme must be http or https", base)
	}
	return &Client{base: u, http: &http.Client{Timeout: timeout}}, nil
}

func (c *Client) endpoint(parts ...string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(parts, "/")
	return u.String()
}

// Fetch performs GET {base}/{resource}.
func (c *Client) Fetch(ctx context.Context, rt model.ResourceType) (model.Dataset, error) {
	var env Envelope
	if err := c.do(ctx, http.MethodGet, c.endpoint(string(rt)), nil, &env); err != nil {
		return model.Dataset{}, err
	}
	return env.Data, nil
}

// Reload is Fetch; the client keeps no snapshot.
func (c *Client) Reload(ctx context.Context, rt model.ResourceType) (model.Dataset, error) {
	return c.Fetch(ctx, rt)
}

func (c *Client) UpdateByKey(ctx context.Context, rt model.ResourceType, p source.Payload) (bool, error) {
	return c.update(ctx, c.endpoint(string(rt), "by-key"), p)
}

func (c *Client) UpdateByCompoundKey(ctx context.Context, rt model.ResourceType, p source.Payload) (bool, error) {
	return c.update(ctx, c.endpoint(string(rt), "by-compound-key"), p)
}

func (c *Client) update(ctx context.Context, u string, p source.Payload) (bool, error) {
	var res UpdateResult
	if err := c.do(ctx, http.MethodPut, u, p, &res); err != nil {
		return false, err
	}
	return res.Success, nil
}

func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	rid := uuid.NewString()
	req.Header.Set(RequestIDHeader, rid)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()
	logx.Debugf("remote: %s %s -> %d in %s (rid=%s)", method, u, resp.StatusCode, time.Since(start).Round(time.Millisecond), rid)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(b)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(b []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(b, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(b))
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
