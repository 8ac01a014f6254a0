package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/refresh"
)

func newTestClient() *Client {
	return NewClient(&ClientConfig{Timeout: 2 * time.Second, RequestsPerSecond: 1000, Burst: 100}, nil)
}

func TestClientGet_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "", r.Header.Get("User-Agent"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	body, err := newTestClient().Get(context.Background(), "test", srv.URL, http.Header{"X-Test": []string{"yes"}})
	require.NoError(t, err)
	require.Equal(t, "hello", string(body))
}

func TestClientGet_Classification(t *testing.T) {
	reset := time.Now().Add(30 * time.Minute).Unix()

	cases := []struct {
		name      string
		status    int
		header    map[string]string
		kind      refresh.Kind
		wantReset bool
	}{
		{"too many requests", http.StatusTooManyRequests, map[string]string{"Retry-After": "120"}, refresh.KindRateLimited, true},
		{"github quota exhausted", http.StatusForbidden, map[string]string{"X-RateLimit-Remaining": "0", "X-RateLimit-Reset": strconv.FormatInt(reset, 10)}, refresh.KindRateLimited, true},
		{"plain forbidden", http.StatusForbidden, nil, refresh.KindUnavailable, false},
		{"server error", http.StatusBadGateway, nil, refresh.KindUnavailable, false},
		{"rate limited without hint", http.StatusTooManyRequests, nil, refresh.KindRateLimited, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tc.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			_, err := newTestClient().Get(context.Background(), "test", srv.URL, nil)
			require.Error(t, err)
			require.Equal(t, tc.kind, refresh.Classify(err))
			require.Equal(t, "test", refresh.SourceOf(err))
			_, ok := refresh.ResetHint(err)
			require.Equal(t, tc.wantReset, ok)
		})
	}
}

func TestClientGet_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient().Get(context.Background(), "test", url, nil)
	require.Error(t, err)
	require.Equal(t, refresh.KindUnavailable, refresh.Classify(err))
}

func TestResetHint(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	h := http.Header{}
	h.Set("X-RateLimit-Reset", "1704070800")
	require.Equal(t, time.Unix(1704070800, 0), resetHint(h, now))

	h = http.Header{}
	h.Set("Retry-After", "60")
	require.Equal(t, now.Add(time.Minute), resetHint(h, now))

	h = http.Header{}
	h.Set("Retry-After", "Mon, 01 Jan 2024 01:00:00 GMT")
	require.True(t, now.Add(time.Hour).Equal(resetHint(h, now)))

	require.True(t, resetHint(http.Header{}, now).IsZero())
}
