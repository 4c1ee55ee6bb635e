// Package notify pushes sync outcomes to an ntfy topic so operators hear
// about imports and failures without watching logs. Disabled by default.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	enabled    bool
	priority   string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	// Circuit breaker state
	failures    int
	lastFailure time.Time
	circuitOpen bool
	mutex       sync.Mutex
	// Metrics
	totalSent   int64
	totalFailed int64
}

type PushError struct {
	Type       string
	StatusCode int
	Attempt    int
	Underlying error
}

func (e *PushError) Error() string {
	return fmt.Sprintf("notification failed [%s] attempt %d: %v", e.Type, e.Attempt, e.Underlying)
}

func (e *PushError) IsRetryable() bool {
	switch e.Type {
	case "network", "server", "timeout", "rate_limit":
		return true
	case "auth", "client":
		return false
	default:
		return e.StatusCode >= 500
	}
}

func NewClient(baseURL, topic string, enabled bool, priority string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:    baseURL,
		topic:      topic,
		enabled:    enabled,
		priority:   priority,
		maxRetries: 3,
		baseDelay:  time.Second,
		maxDelay:   30 * time.Second,
	}
}

// SyncCompleted announces a finished cycle that imported data or hit
// failures. Sends happen in the background so the scheduler never waits on
// the push service.
func (c *Client) SyncCompleted(ctx context.Context, succeeded, failed, responsesImported int) {
	if !c.enabled {
		return
	}

	var message string
	switch {
	case failed > 0 && responsesImported > 0:
		message = fmt.Sprintf("Survey sync: %d new responses imported, %d of %d spreadsheets failed",
			responsesImported, failed, succeeded+failed)
	case failed > 0:
		message = fmt.Sprintf("Survey sync: %d of %d spreadsheets failed", failed, succeeded+failed)
	default:
		message = fmt.Sprintf("Survey sync: %d new responses imported", responsesImported)
	}

	go func() {
		if err := c.send(ctx, message); err != nil {
			log.Warn().Err(err).Msg("Sync notification failed")
		}
	}()
}

func (c *Client) send(ctx context.Context, message string) error {
	if c.isCircuitOpen() {
		log.Warn().Msg("Circuit breaker open, skipping notification")
		return &PushError{Type: "circuit_open", Underlying: fmt.Errorf("circuit breaker is open")}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.post(ctx, message, attempt+1)
		if err == nil {
			c.recordSuccess()
			return nil
		}
		lastErr = err

		if pushErr, ok := err.(*PushError); ok && !pushErr.IsRetryable() {
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("Non-retryable error, giving up")
			c.recordFailure()
			return err
		}

		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Msg("Notification attempt failed")
	}

	c.recordFailure()
	return &PushError{Type: "max_retries_exceeded", Attempt: c.maxRetries + 1, Underlying: lastErr}
}

func (c *Client) post(ctx context.Context, message string, attempt int) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBufferString(message))
	if err != nil {
		return &PushError{Type: "client", Attempt: attempt, Underlying: err}
	}
	req.Header.Set("Content-Type", "text/plain")
	if c.priority != "" {
		req.Header.Set("Priority", c.priority)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &PushError{Type: "network", Attempt: attempt, Underlying: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &PushError{
			Type:       categorizeHTTPError(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Attempt:    attempt,
			Underlying: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}
	return nil
}

func (c *Client) isCircuitOpen() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.circuitOpen {
		return false
	}
	// Half-open after a cooldown: let one send through to probe.
	if time.Since(c.lastFailure) > 30*time.Second {
		c.circuitOpen = false
		c.failures = 0
		log.Info().Msg("Circuit breaker moving to half-open state")
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.totalSent++
	if c.circuitOpen {
		c.circuitOpen = false
		c.failures = 0
		log.Info().Msg("Circuit breaker closed after successful notification")
	}
}

func (c *Client) recordFailure() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.totalFailed++
	c.failures++
	c.lastFailure = time.Now()

	if c.failures >= 5 && !c.circuitOpen {
		c.circuitOpen = true
		log.Warn().Int("failures", c.failures).Msg("Circuit breaker opened due to consecutive failures")
	}
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	base := float64(c.baseDelay)
	backoff := base * math.Pow(2, float64(attempt-1))

	// jitter between 0.75x and 1.25x
	jitter := rand.Float64()*0.5 - 0.25
	backoff = backoff * (1 + jitter)

	if backoff > float64(c.maxDelay) {
		backoff = float64(c.maxDelay)
	}
	return time.Duration(backoff)
}

func categorizeHTTPError(statusCode int) string {
	switch {
	case statusCode == 401 || statusCode == 403:
		return "auth"
	case statusCode == 429:
		return "rate_limit"
	case statusCode >= 400 && statusCode < 500:
		return "client"
	case statusCode >= 500:
		return "server"
	default:
		return "unknown"
	}
}

// Metrics returns sent/failed counters for the status surface.
func (c *Client) Metrics() (sent, failed int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.totalSent, c.totalFailed
}
