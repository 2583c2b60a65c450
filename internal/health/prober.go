// Package health polls an HTTP readiness endpoint until it answers 2xx or the
// attempt budget runs out.
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"workbench/pkg/logging"
)

const (
	// DefaultInterval and DefaultMaxAttempts give a budget of about two minutes.
	DefaultInterval    = 3 * time.Second
	DefaultMaxAttempts = 40
	DefaultPath        = "/health"

	maxAttemptTimeout = 2 * time.Second
)

// Outcome reports whether the endpoint became ready and after how many attempts.
type Outcome struct {
	Ready    bool
	Attempts int
	Endpoint string
}

// TimeoutError is returned when every attempt failed.
type TimeoutError struct {
	Endpoint string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("readiness timeout: %s did not answer 2xx after %d attempts", e.Endpoint, e.Attempts)
}

// Prober checks readiness endpoints.
type Prober struct {
	client *http.Client
	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewProber returns a Prober using a dedicated client.
func NewProber() *Prober {
	return &Prober{client: &http.Client{}, sleep: sleepCtx}
}

// WaitReady polls baseURL+path every interval, at most maxAttempts times.
// The wait between attempts does not follow the final one.
func (p *Prober) WaitReady(ctx context.Context, baseURL, path string, interval time.Duration, maxAttempts int) (Outcome, error) {
	endpoint := strings.TrimRight(baseURL, "/") + path
	out := Outcome{Endpoint: endpoint}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	timeout := attemptTimeout(interval)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out.Attempts = attempt
		if p.attempt(ctx, endpoint, timeout) {
			out.Ready = true
			logging.Info("Health", "%s ready after %d attempt(s)", endpoint, attempt)
			return out, nil
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		logging.Debug("Health", "%s not ready (attempt %d/%d)", endpoint, attempt, maxAttempts)
		if attempt == maxAttempts {
			break
		}
		if err := p.sleep(ctx, interval); err != nil {
			return out, err
		}
	}
	return out, &TimeoutError{Endpoint: endpoint, Attempts: out.Attempts}
}

func (p *Prober) attempt(ctx context.Context, endpoint string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// attemptTimeout keeps each attempt strictly shorter than the poll interval.
func attemptTimeout(interval time.Duration) time.Duration {
	t := interval * 3 / 4
	if t <= 0 || t > maxAttemptTimeout {
		return maxAttemptTimeout
	}
	return t
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
