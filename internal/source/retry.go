package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"
)

const (
	defaultMaxRetries = 3
	maxErrorBody      = 512
)

// retryableError indicates a transient failure that can be retried.
type retryableError struct {
	statusCode int
	body       string
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.statusCode, e.body)
}

// retryPolicy controls doWithRetry. The wait before attempt n is
// n*n*base plus up to half that again as jitter.
type retryPolicy struct {
	maxRetries int
	base       time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{maxRetries: defaultMaxRetries, base: time.Second}
}

func (p retryPolicy) backoff(attempt int) time.Duration {
	base := time.Duration(attempt*attempt) * p.base
	jitter := time.Duration(rand.Int64N(int64(base/2 + 1)))
	return base + jitter
}

// doWithRetry executes an HTTP request with exponential backoff retry
// for transient errors (network failures, 5xx, 429).
func doWithRetry(ctx context.Context, client *http.Client, policy retryPolicy, buildReq func() (*http.Request, error), logger *slog.Logger) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= policy.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := policy.backoff(attempt)
			logger.Warn("retrying request", "attempt", attempt+1, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := buildReq()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt < policy.maxRetries {
				logger.Warn("request failed, will retry", "error", err)
				continue
			}
			return nil, fmt.Errorf("request failed after %d retries: %w", policy.maxRetries, err)
		}

		// Retry on 5xx server errors and 429 rate-limit.
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			resp.Body.Close()
			lastErr = &retryableError{statusCode: resp.StatusCode, body: string(body)}
			if attempt < policy.maxRetries {
				logger.Warn("server error, will retry",
					"status", resp.StatusCode, "body", string(body))
				continue
			}
			return nil, fmt.Errorf("server error after %d retries: %w", policy.maxRetries, lastErr)
		}

		return resp, nil
	}

	return nil, lastErr
}
