package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/refresh"
)

// maxBodySize bounds upstream responses; F-Droid indices are large.
const maxBodySize = 64 << 20

// ClientConfig controls the shared upstream HTTP client.
type ClientConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
}

// Client performs throttled GET requests against third-party APIs and
// classifies failures into refresh error kinds.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *logrus.Logger
}

func NewClient(cfg *ClientConfig, logger *logrus.Logger) *Client {
	timeout := 15 * time.Second
	rps := 5.0
	burst := 5
	ua := ""
	if cfg != nil {
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		if cfg.RequestsPerSecond > 0 {
			rps = cfg.RequestsPerSecond
		}
		if cfg.Burst > 0 {
			burst = cfg.Burst
		}
		ua = cfg.UserAgent
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		userAgent: ua,
		logger:    logger,
	}
}

// Get fetches url and returns the response body. source names the upstream in errors.
func (c *Client) Get(ctx context.Context, source, url string, header http.Header) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: waiting for request slot: %w", source, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", source, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	// Some upstreams reject Go's default agent, so an empty one is sent unless configured.
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, refresh.Unavailable(source, err)
	}
	defer resp.Body.Close()

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"source":   source,
			"url":      url,
			"status":   resp.StatusCode,
			"duration": time.Since(start),
		}).Debug("upstream response")
	}

	if err := checkStatus(source, resp, time.Now()); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, refresh.Unavailable(source, fmt.Errorf("reading body: %w", err))
	}
	return body, nil
}

// checkStatus maps a non-2xx response to a FetchError.
func checkStatus(source string, resp *http.Response, now time.Time) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	err := fmt.Errorf("HTTP %d", resp.StatusCode)
	if isRateLimited(resp) {
		return refresh.RateLimited(source, resetHint(resp.Header, now), err)
	}
	return refresh.Unavailable(source, err)
}

// isRateLimited recognizes 429 and GitHub's 403 with an exhausted quota.
func isRateLimited(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0"
}

// resetHint reads X-RateLimit-Reset (unix seconds) or Retry-After (seconds or HTTP date).
func resetHint(h http.Header, now time.Time) time.Time {
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(secs, 0)
		}
	}
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return now.Add(time.Duration(secs) * time.Second)
		}
		if t, err := http.ParseTime(v); err == nil {
			return t
		}
	}
	return time.Time{}
}
