package itunes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrRateLimited signals a 403/429 from the catalog. It is never retried:
// hammering a rate-limited endpoint only worsens the condition, and the
// signal applies to the whole session, not just one query. Callers fall back
// instead of retrying.
var ErrRateLimited = errors.New("itunes adapter: rate limited")

// fetchSearch performs one search call with bounded retry. Outcomes:
//   - success: the decoded response (an empty body decodes to zero results,
//     which is a valid "no match", not an error)
//   - ErrRateLimited on 403/429, returned immediately without retrying
//   - a wrapped error once transient failures (transport errors, other
//     non-2xx statuses, malformed JSON) exhaust the retry budget
//
// Failed attempts wait baseDelay multiplied by the attempt number before the
// next try.
func (c *Client) fetchSearch(ctx context.Context, rawURL string) (searchResponse, error) {
	var lastErr error
	attempts := c.maxRetries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, c.baseDelay*time.Duration(attempt)); err != nil {
				return searchResponse{}, err
			}
			c.logger.Warn("itunes adapter: retrying search", "attempt", attempt+1, "max", attempts, "err", lastErr)
		}

		resp, err := c.doSearch(ctx, rawURL)
		if err == nil || errors.Is(err, ErrRateLimited) {
			return resp, err
		}
		if ctx.Err() != nil {
			return searchResponse{}, fmt.Errorf("itunes adapter: search canceled: %w", ctx.Err())
		}
		lastErr = err
	}

	return searchResponse{}, fmt.Errorf("itunes adapter: search failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) doSearch(ctx context.Context, rawURL string) (searchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return searchResponse{}, fmt.Errorf("itunes adapter: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return searchResponse{}, fmt.Errorf("itunes adapter: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return searchResponse{}, ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return searchResponse{}, fmt.Errorf("itunes adapter: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return searchResponse{}, fmt.Errorf("itunes adapter: read response: %w", err)
	}
	if len(body) == 0 {
		// Empty body is a valid "no match" outcome.
		return searchResponse{Results: []catalogTrack{}}, nil
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return searchResponse{}, fmt.Errorf("itunes adapter: decode response: %w", err)
	}

	return parsed, nil
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("itunes adapter: request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
