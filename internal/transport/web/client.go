// Package web fetches sitemaps and pages over HTTP and extracts page text.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"go.uber.org/zap"
)

// ClientConfig configures the HTTP fetcher.
type ClientConfig struct {
	Timeout      time.Duration
	UserAgent    string
	MaxRetries   int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	MaxBodyBytes int64
	Logger       *zap.Logger
}

func (c ClientConfig) normalize() ClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "linkrank/1.0"
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 250 * time.Millisecond
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = c.BaseDelay
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 10 << 20
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string { return "unexpected status " + e.Status }

// Retryable reports whether the status is worth retrying.
func (e *StatusError) Retryable() bool {
	switch e.Code {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// Document is a downloaded body with the Content-Type it was served as.
type Document struct {
	Body        []byte
	ContentType string
}

// shouldRetry retries network errors and transient statuses, never
// cancellation.
func shouldRetry(_ Document, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

// Client downloads documents with a bounded timeout and jittered retries.
type Client struct {
	http    *http.Client
	exec    failsafe.Executor[Document]
	ua      string
	maxBody int64
	logger  *zap.Logger
}

// NewClient creates a fetcher. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg ClientConfig, httpClient *http.Client) *Client {
	cfg = cfg.normalize()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	retry := retrypolicy.NewBuilder[Document]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(shouldRetry).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[Document]) {
			logger.Debug("retrying fetch",
				zap.Int("attempt", e.Attempts()),
				zap.Error(e.LastError()),
			)
		}).
		Build()

	return &Client{
		http:    httpClient,
		exec:    failsafe.With[Document](retry),
		ua:      cfg.UserAgent,
		maxBody: cfg.MaxBodyBytes,
		logger:  logger,
	}
}

// Get downloads target and returns at most MaxBodyBytes of its body.
func (c *Client) Get(ctx context.Context, target string) ([]byte, error) {
	doc, err := c.GetDocument(ctx, target)
	if err != nil {
		return nil, err
	}
	return doc.Body, nil
}

// GetDocument is Get plus the response Content-Type, which HTML
// extraction needs to pick a charset.
func (c *Client) GetDocument(ctx context.Context, target string) (Document, error) {
	doc, err := c.exec.WithContext(ctx).Get(func() (Document, error) {
		return c.once(ctx, target)
	})
	if err != nil {
		return Document{}, err //nolint:wrapcheck // last attempt's error, already descriptive
	}
	return doc, nil
}

func (c *Client) once(ctx context.Context, target string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return Document{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.ua)

	resp, err := c.http.Do(req)
	if err != nil {
		return Document{}, err //nolint:wrapcheck // *url.Error already names method and url
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return Document{}, &StatusError{Code: resp.StatusCode, Status: strings.TrimSpace(resp.Status)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return Document{}, fmt.Errorf("read body: %w", err)
	}
	return Document{Body: data, ContentType: resp.Header.Get("Content-Type")}, nil
}
