package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func never(string) bool { return false }

func sent(labels ...string) func(string) bool {
	set := map[string]bool{}
	for _, l := range labels {
		set[l] = true
	}
	return func(label string) bool { return set[label] }
}

func labels(offsets []Offset) []string {
	out := make([]string, len(offsets))
	for i, o := range offsets {
		out[i] = o.Label
	}
	return out
}

func TestOffsetsDescending(t *testing.T) {
	require.NotEmpty(t, Offsets)
	assert.Equal(t, MaxLead, Offsets[0].Lead)
	for i := 1; i < len(Offsets); i++ {
		assert.Less(t, Offsets[i].Lead, Offsets[i-1].Lead, "offsets must be in descending lead order")
	}
	assert.Equal(t, time.Duration(0), Offsets[len(Offsets)-1].Lead, "the final offset fires at start time")
}

func TestDue(t *testing.T) {
	slop := 25 * time.Minute

	tests := []struct {
		name       string
		untilStart time.Duration
		alreadySent func(string) bool
		want       []string
	}{
		{
			// A 2:30 PM appointment swept at 2:10 PM: inside the 30m window,
			// already past the 1h one by more than slop.
			name:       "twenty minutes out",
			untilStart: 20 * time.Minute,
			alreadySent: never,
			want:       []string{"30m"},
		},
		{
			name:       "exactly at an offset lead",
			untilStart: time.Hour,
			alreadySent: never,
			want:       []string{"1h"},
		},
		{
			name:       "between offsets nothing newly due",
			untilStart: 10 * time.Hour,
			alreadySent: never,
			want:       nil,
		},
		{
			name:       "slop keeps a just-missed offset due",
			untilStart: 24*time.Hour - 10*time.Minute,
			alreadySent: never,
			want:       []string{"24h"},
		},
		{
			name:       "past the slop window the offset lapses",
			untilStart: 24*time.Hour - 30*time.Minute,
			alreadySent: never,
			want:       nil,
		},
		{
			name:       "delivery set suppresses re-dispatch",
			untilStart: 20 * time.Minute,
			alreadySent: sent("30m"),
			want:       nil,
		},
		{
			// Both 5m and now sit inside the slop window at the start moment;
			// descending order dispatches the larger lead first.
			name:       "start moment",
			untilStart: 0,
			alreadySent: never,
			want:       []string{"5m", "now"},
		},
		{
			name:       "just after start still inside slop",
			untilStart: -10 * time.Minute,
			alreadySent: sent("5m"),
			want:       []string{"now"},
		},
		{
			name:       "close-in booking fires several offsets largest first",
			untilStart: 4 * time.Minute,
			alreadySent: never,
			want:       []string{"5m"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Due(tt.untilStart, tt.alreadySent, slop)
			assert.Equal(t, tt.want, labels(got))
		})
	}
}

func TestDueWideSlopStacksOffsets(t *testing.T) {
	// With a slop wider than the gap between 30m and 5m, both can be due at
	// once; descending order guarantees the larger lead dispatches first.
	got := Due(4*time.Minute, never, 40*time.Minute)
	assert.Equal(t, []string{"30m", "5m"}, labels(got))
}
