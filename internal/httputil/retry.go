// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the REST clients.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// throttled responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

// MaxRetryAfter caps how long a server-supplied Retry-After may hold a
// request.
var MaxRetryAfter = 60 * time.Second

const defaultMaxRetries = 5

// Retryable reports whether a status code signals a transient throttle.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// DoWithRetry executes an HTTP request and retries on 429 and 503 with
// exponential backoff. The delay starts at RetryBaseDelay and doubles each
// attempt unless the response carries a Retry-After header in seconds, which
// takes precedence (capped at MaxRetryAfter).
//
// When maxRetries is 0 the default (5) is used. Requests with a body must
// have GetBody set (http.NewRequest does this for bytes and strings readers)
// so the body can be replayed. If the context is cancelled during a backoff
// wait the function returns ctx.Err(). After exhausting retries the last
// throttled response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, logger *zap.Logger) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		try := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			try.Body = body
		}

		resp, err := client.Do(try)
		if err != nil {
			return nil, err
		}

		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := retryAfter(resp.Header.Get("Retry-After"))
		if backoff == 0 {
			backoff = time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		}
		logger.Warn("throttled, retrying",
			zap.String("url", req.URL.Redacted()),
			zap.Int("status", resp.StatusCode),
			zap.Duration("backoff", backoff),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// retryAfter parses a Retry-After value given in seconds. HTTP-date values
// and garbage yield zero so the caller falls back to exponential backoff.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > MaxRetryAfter {
		return MaxRetryAfter
	}
	return d
}
