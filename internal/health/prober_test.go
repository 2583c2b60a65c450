package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitReady_TimesOutAfterExactlyMaxAttempts(t *testing.T) {
	var (
		hits   atomic.Int32
		mu     sync.Mutex
		stamps []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	interval := 40 * time.Millisecond
	out, err := NewProber().WaitReady(context.Background(), srv.URL, "/health", interval, 4)

	require.Error(t, err)
	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, srv.URL+"/health", te.Endpoint)
	assert.Contains(t, err.Error(), srv.URL+"/health")
	assert.False(t, out.Ready)
	assert.Equal(t, 4, out.Attempts)
	assert.Equal(t, int32(4), hits.Load())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, stamps, 4)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), interval)
	}
}

func TestWaitReady_NoSleepAfterFinalAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var sleeps int
	p := NewProber()
	p.sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}

	_, err := p.WaitReady(context.Background(), srv.URL, "/health", time.Second, 3)
	require.Error(t, err)
	assert.Equal(t, 2, sleeps)
}

func TestWaitReady_SucceedsOnFirst2xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewProber()
	p.sleep = func(context.Context, time.Duration) error { return nil }

	out, err := p.WaitReady(context.Background(), srv.URL+"/", "/health", time.Second, 10)
	require.NoError(t, err)
	assert.True(t, out.Ready)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, srv.URL+"/health", out.Endpoint)
	assert.Equal(t, int32(3), hits.Load())
}

func TestWaitReady_ConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewProber()
	p.sleep = func(context.Context, time.Duration) error { return nil }

	out, err := p.WaitReady(context.Background(), url, "/health", time.Second, 2)
	require.Error(t, err)
	assert.Equal(t, 2, out.Attempts)
}

func TestWaitReady_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := NewProber().WaitReady(ctx, srv.URL, "/health", time.Hour, 40)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAttemptTimeout(t *testing.T) {
	assert.Equal(t, 2*time.Second, attemptTimeout(3*time.Second))
	assert.Equal(t, 750*time.Millisecond, attemptTimeout(time.Second))
	assert.Equal(t, 2*time.Second, attemptTimeout(0))
}
