package refresh_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/refresh"
)

func TestClassify(t *testing.T) {
	reset := time.Unix(1700000000, 0)
	base := errors.New("boom")

	assert.Equal(t, refresh.KindUnavailable, refresh.Classify(refresh.Unavailable("github", base)))
	assert.Equal(t, refresh.KindMalformed, refresh.Classify(fmt.Errorf("assemble: %w", refresh.Malformed("weblate", base))))
	assert.Equal(t, refresh.KindRateLimited, refresh.Classify(refresh.RateLimited("github", reset, nil)))
	assert.Equal(t, refresh.KindUnknown, refresh.Classify(base))
	assert.Equal(t, refresh.KindUnknown, refresh.Classify(context.DeadlineExceeded))
}

func TestFetchErrorDetails(t *testing.T) {
	reset := time.Unix(1700000000, 0)
	err := fmt.Errorf("stats: %w", refresh.RateLimited("github", reset, errors.New("HTTP 403")))

	got, ok := refresh.ResetHint(err)
	require.True(t, ok)
	require.True(t, reset.Equal(got))
	require.Equal(t, "github", refresh.SourceOf(err))
	require.Contains(t, err.Error(), "upstream_rate_limited")
	require.Contains(t, err.Error(), "HTTP 403")

	_, ok = refresh.ResetHint(refresh.Unavailable("weblate", nil))
	require.False(t, ok)
	require.Equal(t, "unknown", refresh.SourceOf(errors.New("x")))

	inner := errors.New("inner")
	require.ErrorIs(t, refresh.Malformed("fdroid", inner), inner)
}
