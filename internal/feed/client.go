package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"nbasync/ingestion/internal/metrics"
)

// FetchError is returned when the scoreboard for a date could not be
// retrieved. Callers treat it as "no data for this date" and move on;
// it never aborts the rest of a run.
type FetchError struct {
	Date   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scoreboard fetch for %s failed: %v", e.Date, e.Err)
	}
	return fmt.Sprintf("scoreboard fetch for %s returned status %d", e.Date, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Scoreboard is one day's event set. A response without an "events" key
// yields an empty Events slice.
type Scoreboard struct {
	Date   string
	Events []Raw
}

// Client is the scoreboard feed API client
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter chan struct{} // Rate limiting semaphore
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a new scoreboard feed client
func NewClient(baseURL string, timeout time.Duration) *Client {
	// Create rate limiter (max 10 concurrent requests)
	rateLimiter := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:     baseURL,
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

// Scoreboard fetches the event set for a calendar date (YYYYMMDD) and
// sport path (e.g. "basketball/nba").
func (c *Client) Scoreboard(ctx context.Context, sportPath, date string) (*Scoreboard, error) {
	url := fmt.Sprintf("%s/%s/scoreboard?dates=%s", c.baseURL, sportPath, date)

	start := time.Now()
	body, err := c.get(ctx, url)
	metrics.FeedFetchDuration.WithLabelValues(sportPath).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RecordFeedFetch(sportPath, "error")
		if fe, ok := err.(*FetchError); ok {
			fe.Date = date
			return nil, fe
		}
		return nil, &FetchError{Date: date, Err: err}
	}

	var doc Raw
	if err := json.Unmarshal(body, &doc); err != nil {
		metrics.RecordFeedFetch(sportPath, "error")
		return nil, &FetchError{Date: date, Err: fmt.Errorf("malformed scoreboard response: %w", err)}
	}

	sb := &Scoreboard{Date: date, Events: doc.Slice("events")}

	metrics.RecordFeedFetch(sportPath, "success")
	log.Debug().
		Str("date", date).
		Int("events", len(sb.Events)).
		Msg("Scoreboard fetched")

	return sb, nil
}

// get performs a GET request with retry logic and rate limiting
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying feed request after backoff")

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

		body, status, err := c.do(ctx, url)
		c.rateLimiter <- struct{}{}

		if err != nil {
			lastErr = fmt.Errorf("feed request failed: %w", err)
			// Retry on network errors
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		switch status {
		case http.StatusOK:
			return body, nil

		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			lastErr = &FetchError{Status: status}
			if attempt < c.maxRetries {
				log.Warn().
					Str("url", url).
					Int("status", status).
					Int("attempt", attempt+1).
					Msg("Received retryable feed error, will retry")
				continue
			}
			return nil, lastErr

		default:
			return nil, &FetchError{Status: status}
		}
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

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
