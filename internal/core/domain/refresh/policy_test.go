package refresh_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/refresh"
)

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, refresh.DefaultPolicy().Validate())
	require.Error(t, refresh.Policy{NormalTimeout: time.Minute, ErrorTimeout: time.Minute}.Validate())
	require.Error(t, refresh.Policy{NormalTimeout: time.Minute, ErrorTimeout: time.Hour}.Validate())
	require.Error(t, refresh.Policy{NormalTimeout: time.Minute}.Validate())
}

func TestIsOutdated(t *testing.T) {
	p := refresh.DefaultPolicy()
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		entry refresh.Entry[string]
		now   time.Time
		want  bool
	}{
		{"never attempted", refresh.Entry[string]{}, t0, true},
		{"fresh success", refresh.Entry[string]{Value: "v", HasValue: true, LastUpdated: t0}, t0.Add(30 * time.Minute), false},
		{"success at normal timeout", refresh.Entry[string]{Value: "v", HasValue: true, LastUpdated: t0}, t0.Add(time.Hour), true},
		{"success past error timeout", refresh.Entry[string]{Value: "v", HasValue: true, LastUpdated: t0}, t0.Add(7 * time.Minute), false},
		{"error in cooldown", refresh.Entry[string]{Value: "v", HasValue: true, LastUpdated: t0, WasError: true}, t0.Add(4 * time.Minute), false},
		{"error at cooldown", refresh.Entry[string]{LastUpdated: t0, WasError: true}, t0.Add(6 * time.Minute), true},
		{"error after cooldown", refresh.Entry[string]{Value: "v", HasValue: true, LastUpdated: t0, WasError: true}, t0.Add(7 * time.Minute), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, refresh.IsOutdated(p, tc.entry, tc.now))
		})
	}
}

func TestNextRefresh(t *testing.T) {
	p := refresh.DefaultPolicy()
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.True(t, refresh.NextRefresh(p, refresh.Entry[int]{}).IsZero())
	require.Equal(t, t0.Add(time.Hour), refresh.NextRefresh(p, refresh.Entry[int]{LastUpdated: t0}))
	require.Equal(t, t0.Add(6*time.Minute), refresh.NextRefresh(p, refresh.Entry[int]{LastUpdated: t0, WasError: true}))
}
