package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"chatqa/internal/domain"
)

const maxBodyBytes = 32 << 20

// HTTPSource fetches records from a remote messages API.
type HTTPSource struct {
	url    string
	apiKey string
	client *http.Client
	retry  retryPolicy
	logger *slog.Logger
}

// HTTPConfig configures an HTTPSource. A negative MaxRetries keeps the default.
type HTTPConfig struct {
	URL        string
	APIKey     string // sent as a bearer token when set
	Timeout    time.Duration
	MaxRetries int
	Logger     *slog.Logger
}

// NewHTTPSource creates a source using the shared pooled client.
func NewHTTPSource(cfg HTTPConfig) *HTTPSource {
	return NewHTTPSourceWithClient(cfg, SharedHTTPClient(cfg.Timeout))
}

// NewHTTPSourceWithClient creates a source that sends requests through client.
func NewHTTPSourceWithClient(cfg HTTPConfig, client *http.Client) *HTTPSource {
	if client == nil {
		client = SharedHTTPClient(cfg.Timeout)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	policy := defaultRetryPolicy()
	if cfg.MaxRetries >= 0 {
		policy.maxRetries = cfg.MaxRetries
	}
	return &HTTPSource{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: client,
		retry:  policy,
		logger: cfg.Logger,
	}
}

func (s *HTTPSource) Name() string { return s.url }

// Fetch downloads and decodes the full message set.
func (s *HTTPSource) Fetch(ctx context.Context) ([]domain.Record, error) {
	body, err := s.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	records, err := DecodeRecords(body)
	if err != nil {
		return nil, err
	}
	s.logger.Info("fetched messages", "url", s.url, "count", len(records))
	return records, nil
}

// FetchRaw returns the response body of a successful request without decoding it.
func (s *HTTPSource) FetchRaw(ctx context.Context) ([]byte, error) {
	s.logger.Info("fetching messages", "url", s.url)
	resp, err := doWithRetry(ctx, s.client, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if s.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.apiKey)
		}
		return req, nil
	}, s.logger)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%d %s for url: %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), s.url, body)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}
