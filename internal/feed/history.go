package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/luki/tempdash/internal/reading"
)

// BackoffConfig controls the retry schedule of the history fetch.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used by NewHistoryClient when no schedule is given.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrCircuitOpen      = errors.New("circuit breaker open")

	errRetryable    = errors.New("retryable status")
	errNoHTTPClient = errors.New("http client not configured")
	errInvalidRetry = errors.New("invalid backoff configuration")
)

// HistoryClient performs the one-shot GET of historical readings.
type HistoryClient struct {
	url     string
	client  *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

// NewHistoryClient builds a client for url. A nil client means
// http.DefaultClient; a zero BackoffConfig means DefaultBackoff.
func NewHistoryClient(url string, client *http.Client, bo BackoffConfig) *HistoryClient {
	if client == nil {
		client = http.DefaultClient
	}
	if bo == (BackoffConfig{}) {
		bo = DefaultBackoff
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "history",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
	})
	return &HistoryClient{url: url, client: client, backoff: bo, circuit: cb}
}

// Fetch downloads and validates the full history. On any failure no
// readings are returned.
func (c *HistoryClient) Fetch(ctx context.Context) ([]reading.Reading, error) {
	body, err := c.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	readings, err := DecodeReadings(body)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	log.WithFields(log.Fields{
		"url":      c.url,
		"readings": len(readings),
	}).Info("history loaded")
	return readings, nil
}

// get executes the request with retries and exponential backoff behind the
// circuit breaker and returns the response body of the first 2xx answer.
func (c *HistoryClient) get(ctx context.Context) ([]byte, error) {
	if c.client == nil {
		return nil, errNoHTTPClient
	}
	if c.backoff.MaxRetries < 0 || c.backoff.InitialInterval <= 0 {
		return nil, errInvalidRetry
	}

	var attempt int
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			return c.do(ctx)
		})
		if err == nil {
			return result.([]byte), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		if errors.Is(err, ErrUnexpectedStatus) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		if attempt >= c.backoff.MaxRetries {
			return nil, err
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}
		log.WithFields(log.Fields{
			"url":     c.url,
			"attempt": attempt + 1,
			"delay":   delay,
		}).Warnf("history request failed: %v", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}

func (c *HistoryClient) do(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %d", errRetryable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
