package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/logger"
)

// maxErrorBodySize bounds how much of a non-200 body is kept in a StatusError
const maxErrorBodySize = 4096

// HTTPClient defines an interface for HTTP client operations to enable mocking
//
//go:generate mockgen -source=http.go -destination=../mocks/http.go -package=mocks -mock_names=HTTPClient=MockHTTPClient
type HTTPClient interface {
	// GetBytes performs a single GET request with the given headers and returns the body.
	// A non-200 response is returned as a *StatusError.
	GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// StatusError is returned when the server answers with a non-200 status code
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// StatusCode extracts the HTTP status code from an error, or 0 when the error
// did not come from a response
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// ClassifyError wraps a GetBytes error with the matching source error:
// 429 is ErrRateLimited, 404 is ErrNotFound, 5xx and transport failures are ErrUnavailable.
// Other status codes are returned unchanged and are not retried.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		domain.IsRetryable(err) || errors.Is(err, domain.ErrNotFound) {
		return err
	}

	code := StatusCode(err)
	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case code == 0, code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	default:
		return err
	}
}

// RealHTTPClient implements HTTPClient using the standard http package
type RealHTTPClient struct {
	client *http.Client
}

// NewHTTPClient creates a new real HTTP client
func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &RealHTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetBytes performs a GET request and returns the response body.
// Retries are left to the caller so that one retry policy covers the whole fetch.
func (c *RealHTTPClient) GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logger.Debug("Vendor request failed", zap.String("url", url), zap.Duration("duration", time.Since(start)), zap.Error(err))
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	logger.Debug("Vendor request completed",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("failed to close response body", zap.Error(err), zap.String("url", url))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		if resp.StatusCode == http.StatusTooManyRequests {
			logger.Warn("rate limited by upstream", zap.String("url", url))
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}
