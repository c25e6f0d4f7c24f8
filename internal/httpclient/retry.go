package httpclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/imroc/req/v3"
)

// RetryPolicy controls how resolver list downloads recover from transient
// failures.
type RetryPolicy struct {
	// Retries is the number of extra attempts after the first request.
	Retries int
	// Backoff is the base wait after a transport error; the n-th retry waits
	// n*Backoff.
	Backoff time.Duration
	// MaxWait caps any single wait, including one requested by Retry-After.
	MaxWait time.Duration
}

// DefaultRetryPolicy returns the policy used by the CLI.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Retries: 3, Backoff: time.Second, MaxWait: 30 * time.Second}
}

// retryableStatus lists responses worth asking again: throttling and
// gateway-side hiccups of list mirrors.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// AttachRetry makes client retry per policy. Canceled or expired contexts are
// never retried. logger may be nil.
func AttachRetry(client *req.Client, policy RetryPolicy, logger *slog.Logger) {
	client.SetCommonRetryCount(policy.Retries)
	client.AddCommonRetryCondition(policy.shouldRetry)
	client.SetCommonRetryInterval(policy.wait)
	if logger != nil {
		client.AddCommonRetryHook(func(resp *req.Response, err error) {
			status := 0
			if resp != nil && resp.Response != nil {
				status = resp.StatusCode
			}
			logger.Debug("retrying list download", "status", status, "error", err)
		})
	}
}

func (p RetryPolicy) shouldRetry(resp *req.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return resp != nil && resp.Response != nil && retryableStatus[resp.StatusCode]
}

func (p RetryPolicy) wait(resp *req.Response, attempt int) time.Duration {
	if resp == nil || resp.Response == nil {
		return min(time.Duration(attempt)*p.Backoff, p.MaxWait)
	}
	if d, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
		return min(d, p.MaxWait)
	}
	return min(time.Duration(attempt)*p.Backoff, p.MaxWait)
}

// retryAfter reads a Retry-After value given as seconds or an HTTP date.
func retryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(time.Until(t), 0), true
	}
	return 0, false
}
