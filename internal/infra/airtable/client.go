// Package airtable is a minimal REST client for the remote tabular datastore,
// scoped to a single base. It covers exactly the three calls the bot needs:
// filtered lookup, record patch, and record append.
package airtable

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

	"telegram-directory-bot/internal/config"
	"telegram-directory-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// RequestError carries the remote status and body of a failed Airtable call.
// Remote failures are never retried within a single user turn; the user
// re-sending their message re-triggers the same step.
type RequestError struct {
	Op     string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("airtable %s: status %d: %s", e.Op, e.Status, e.Body)
}

type Client struct {
	baseURL string // e.g. https://api.airtable.com/v0/{baseID}
	apiKey  string
	client  *http.Client
	log     *zerolog.Logger
}

func NewClient(cfg *config.AirtableConfig, logger *zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("airtable api key empty")
	}
	if cfg.BaseID == "" {
		return nil, errors.New("airtable base id empty")
	}
	base := strings.TrimSuffix(cfg.APIURL, "/") + "/" + cfg.BaseID
	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     logger,
	}, nil
}

// record is the Airtable wire shape for a single row.
type record struct {
	ID     string         `json:"id,omitempty"`
	Fields map[string]any `json:"fields"`
}

type recordList struct {
	Records []record `json:"records"`
}

func (c *Client) get(ctx context.Context, op, table string, query url.Values, out any) error {
	u := c.baseURL + "/" + url.PathEscape(table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.do(ctx, op, http.MethodGet, u, nil, out)
}

func (c *Client) post(ctx context.Context, op, table string, in, out any) error {
	u := c.baseURL + "/" + url.PathEscape(table)
	return c.do(ctx, op, http.MethodPost, u, in, out)
}

func (c *Client) patch(ctx context.Context, op, table, recordID string, in, out any) error {
	u := c.baseURL + "/" + url.PathEscape(table) + "/" + url.PathEscape(recordID)
	return c.do(ctx, op, http.MethodPatch, u, in, out)
}

func (c *Client) do(ctx context.Context, op, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("airtable %s: marshal: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("airtable %s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.IncAirtableRequest(op, 0)
		return fmt.Errorf("airtable %s: %w", op, err)
	}
	defer resp.Body.Close()

	metrics.IncAirtableRequest(op, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &RequestError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("airtable %s: decode response: %w", op, err)
		}
	}
	return nil
}

// stringField reads a field as a string, tolerating absent fields.
func stringField(fields map[string]any, name string) string {
	v, ok := fields[name]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// formulaString quotes a value for use inside a filterByFormula expression.
func formulaString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
