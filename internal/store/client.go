package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"nbasync/ingestion/internal/metrics"
)

// Fields is one row's named column values.
type Fields map[string]interface{}

// Record is one store row: a stable opaque identifier plus its fields.
type Record struct {
	ID          string `json:"id"`
	Fields      Fields `json:"fields"`
	CreatedTime string `json:"createdTime,omitempty"`
}

// SortField names a column and direction ("asc" or "desc") for a select.
type SortField struct {
	Field     string
	Direction string
}

// SelectOptions narrows a table select. The zero value selects everything.
type SelectOptions struct {
	FilterByFormula string
	Fields          []string
	Sort            []SortField
	MaxRecords      int
}

// Client is the tabular store REST client. The store exposes
// filtered-select, create, and update per table; there are no
// transactions, so callers sequence their own lookup-then-write.
type Client struct {
	baseURL     string
	token       string
	baseID      string
	httpClient  *http.Client
	rateLimiter chan struct{} // Rate limiting semaphore
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a new store client for one base
func NewClient(baseURL, token, baseID string, timeout time.Duration) *Client {
	// The store enforces ~5 req/s per base; keep concurrency low
	rateLimiter := make(chan struct{}, 4)
	for i := 0; i < 4; i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:     baseURL,
		token:       token,
		baseID:      baseID,
		rateLimiter: rateLimiter,
		maxRetries:  3,
		retryDelay:  1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Table returns a handle for one named table in the base
func (c *Client) Table(name string) *Table {
	return &Table{client: c, name: name}
}

// Table is a handle to one store table
type Table struct {
	client *Client
	name   string
}

// Name returns the table name
func (t *Table) Name() string { return t.name }

type recordPage struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// Select fetches rows matching opts, following pagination until
// MaxRecords (or everything when MaxRecords is 0).
func (t *Table) Select(ctx context.Context, opts SelectOptions) ([]Record, error) {
	start := time.Now()

	var all []Record
	offset := ""
	for {
		q := url.Values{}
		if opts.FilterByFormula != "" {
			q.Set("filterByFormula", opts.FilterByFormula)
		}
		if opts.MaxRecords > 0 {
			q.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
		}
		for _, f := range opts.Fields {
			q.Add("fields[]", f)
		}
		for i, s := range opts.Sort {
			q.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
			q.Set(fmt.Sprintf("sort[%d][direction]", i), s.Direction)
		}
		if offset != "" {
			q.Set("offset", offset)
		}

		body, err := t.client.call(ctx, http.MethodGet, t.url("")+"?"+q.Encode(), nil)
		if err != nil {
			metrics.RecordStoreCall("select", t.name, "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("select from %s failed: %w", t.name, err)
		}

		var page recordPage
		if err := json.Unmarshal(body, &page); err != nil {
			metrics.RecordStoreCall("select", t.name, "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("malformed select response from %s: %w", t.name, err)
		}

		all = append(all, page.Records...)
		if page.Offset == "" || (opts.MaxRecords > 0 && len(all) >= opts.MaxRecords) {
			break
		}
		offset = page.Offset
	}

	if opts.MaxRecords > 0 && len(all) > opts.MaxRecords {
		all = all[:opts.MaxRecords]
	}

	metrics.RecordStoreCall("select", t.name, "success", time.Since(start).Seconds())
	return all, nil
}

// Create inserts one row and returns it with its new identifier
func (t *Table) Create(ctx context.Context, fields Fields) (Record, error) {
	start := time.Now()

	payload := map[string]interface{}{
		"records": []map[string]interface{}{{"fields": fields}},
	}

	body, err := t.client.call(ctx, http.MethodPost, t.url(""), payload)
	if err != nil {
		metrics.RecordStoreCall("create", t.name, "error", time.Since(start).Seconds())
		return Record{}, fmt.Errorf("create in %s failed: %w", t.name, err)
	}

	var page recordPage
	if err := json.Unmarshal(body, &page); err != nil {
		metrics.RecordStoreCall("create", t.name, "error", time.Since(start).Seconds())
		return Record{}, fmt.Errorf("malformed create response from %s: %w", t.name, err)
	}
	if len(page.Records) == 0 {
		metrics.RecordStoreCall("create", t.name, "error", time.Since(start).Seconds())
		return Record{}, fmt.Errorf("create in %s returned no records", t.name)
	}

	metrics.RecordStoreCall("create", t.name, "success", time.Since(start).Seconds())
	return page.Records[0], nil
}

// Update patches the given fields on one row; untouched columns keep
// their values.
func (t *Table) Update(ctx context.Context, id string, fields Fields) (Record, error) {
	start := time.Now()

	payload := map[string]interface{}{"fields": fields}

	body, err := t.client.call(ctx, http.MethodPatch, t.url(id), payload)
	if err != nil {
		metrics.RecordStoreCall("update", t.name, "error", time.Since(start).Seconds())
		return Record{}, fmt.Errorf("update %s in %s failed: %w", id, t.name, err)
	}

	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		metrics.RecordStoreCall("update", t.name, "error", time.Since(start).Seconds())
		return Record{}, fmt.Errorf("malformed update response from %s: %w", t.name, err)
	}

	metrics.RecordStoreCall("update", t.name, "success", time.Since(start).Seconds())
	return rec, nil
}

func (t *Table) url(recordID string) string {
	u := fmt.Sprintf("%s/%s/%s", t.client.baseURL, t.client.baseID, url.PathEscape(t.name))
	if recordID != "" {
		u += "/" + recordID
	}
	return u
}

// call performs one API request with retry logic and rate limiting
func (c *Client) call(ctx context.Context, method, url string, payload interface{}) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		var err error
		reqBody, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying store request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		// Rate limiting: acquire semaphore
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.rateLimiter:
		}

		body, status, err := c.do(ctx, method, url, reqBody)
		c.rateLimiter <- struct{}{}

		if err != nil {
			lastErr = fmt.Errorf("store request failed: %w", err)
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		switch status {
		case http.StatusOK:
			return body, nil

		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Rate limit or transient outage
			lastErr = fmt.Errorf("store returned retryable status %d: %s", status, string(body))
			if attempt < c.maxRetries {
				log.Warn().
					Str("url", url).
					Int("status", status).
					Int("attempt", attempt+1).
					Msg("Received retryable store error, will retry")
				continue
			}
			return nil, lastErr

		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("store authentication failed (status %d): %s", status, string(body))

		default:
			return nil, fmt.Errorf("store returned status %d: %s", status, string(body))
		}
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, method, url string, reqBody []byte) ([]byte, int, error) {
	var reader io.Reader
	if reqBody != nil {
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}
