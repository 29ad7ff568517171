// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the outbound clients
// (archive search, sentiment analysis, payment checkout).
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryBaseDelay controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryDelay caps both computed backoff and server-provided Retry-After.
var MaxRetryDelay = 30 * time.Second

const defaultMaxRetries = 3

// RetryPolicy retries requests the server asked us to slow down on.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt. Zero uses 3.
	MaxRetries int

	// Log receives one entry per retry. Nil disables logging.
	Log logrus.FieldLogger
}

// Retryable reports whether a response status is worth retrying: 429 Too
// Many Requests and 503 Service Unavailable.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// Do executes req and retries on retryable statuses. The delay doubles each
// attempt from RetryBaseDelay unless the server sends a Retry-After in
// seconds, which wins. Delays never exceed MaxRetryDelay.
//
// Request bodies are replayed through req.GetBody. On each retry the previous
// response body is drained and closed. If ctx is cancelled during a wait Do
// returns ctx.Err(). After exhausting retries the last response is returned
// so the caller can inspect it.
func (p RetryPolicy) Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	maxRetries := p.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}
		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := backoff(attempt, resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if p.Log != nil {
			p.Log.WithFields(logrus.Fields{
				"url":     req.URL.Redacted(),
				"status":  resp.StatusCode,
				"attempt": attempt + 1,
				"wait":    wait.String(),
			}).Warn("upstream throttled, retrying")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func backoff(attempt int, retryAfter string) time.Duration {
	d := RetryBaseDelay << attempt
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		d = time.Duration(secs) * time.Second
	}
	if d > MaxRetryDelay || d < 0 {
		d = MaxRetryDelay
	}
	return d
}
