// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	RetryBaseDelay = time.Millisecond
	MaxRetryAfter = 5 * time.Millisecond
}

// scriptedServer answers with statuses in order, repeating the last one.
func scriptedServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(calls.Add(1))
		w.WriteHeader(statuses[min(n, len(statuses))-1])
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{"immediate success", []int{200}, 5, 200, 1},
		{"throttled then ok", []int{429, 429, 200}, 5, 200, 3},
		{"unavailable then ok", []int{503, 200}, 2, 200, 2},
		{"exhausted returns last throttle", []int{429}, 3, 429, 4},
		{"zero uses default retries", []int{429}, 0, 429, 6},
		{"server error not retried", []int{500, 200}, 5, 500, 1},
		{"not found not retried", []int{404, 200}, 5, 404, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, calls := scriptedServer(t, tt.statuses...)
			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			require.NoError(t, err)

			resp, err := DoWithRetry(context.Background(), ts.Client(), req, tt.maxRetries, zaptest.NewLogger(t))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestDoWithRetryStopsOnCancel(t *testing.T) {
	ts, calls := scriptedServer(t, 429)

	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	t.Cleanup(func() { RetryBaseDelay = old })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = DoWithRetry(ctx, ts.Client(), req, 5, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoWithRetryTransportError(t *testing.T) {
	ts, _ := scriptedServer(t, 200)
	url := ts.URL
	ts.Close()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	_, err = DoWithRetry(context.Background(), http.DefaultClient, req, 1, nil)
	assert.Error(t, err)
}

func TestDoWithRetryReplaysBody(t *testing.T) {
	var (
		bodies []string
		calls  atomic.Int32
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader(`{"search":"tents"}`))
	require.NoError(t, err)

	resp, err := DoWithRetry(context.Background(), ts.Client(), req, 3, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, []string{`{"search":"tents"}`, `{"search":"tents"}`}, bodies)
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"abc", 0},
		{"-1", 0},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
		{"3600", MaxRetryAfter},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, retryAfter(tt.in), "Retry-After %q", tt.in)
	}
}
