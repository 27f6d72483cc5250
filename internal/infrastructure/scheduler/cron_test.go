package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression_Valid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"every minute", "* * * * *"},
		{"every five minutes", "*/5 * * * *"},
		{"daily at 3am", "0 3 * * *"},
		{"list and range", "0,30 9-17 * * 1-5"},
		{"sunday midnight", "0 0 * * 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce, err := ParseCronExpression(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, ce.String())
		})
	}
}

func TestParseCronExpression_Invalid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"too few fields", "* * * *"},
		{"too many fields", "* * * * * *"},
		{"minute out of range", "60 * * * *"},
		{"hour out of range", "0 24 * * *"},
		{"weekday out of range", "0 0 * * 7"},
		{"inverted range", "30-10 * * * *"},
		{"zero step", "*/0 * * * *"},
		{"garbage", "foo * * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCronExpression(tt.expr)
			assert.Error(t, err)
		})
	}
}

func TestCronExpression_Next(t *testing.T) {
	// Wednesday 2026-03-04 10:17:42 UTC.
	base := time.Date(2026, 3, 4, 10, 17, 42, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		want time.Time
	}{
		{
			name: "every minute rounds up to the next boundary",
			expr: "* * * * *",
			want: time.Date(2026, 3, 4, 10, 18, 0, 0, time.UTC),
		},
		{
			name: "every five minutes",
			expr: "*/5 * * * *",
			want: time.Date(2026, 3, 4, 10, 20, 0, 0, time.UTC),
		},
		{
			name: "daily at 3am rolls to tomorrow",
			expr: "0 3 * * *",
			want: time.Date(2026, 3, 5, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "weekly sunday midnight",
			expr: "0 0 * * 0",
			want: time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "business hours skips to next weekday morning",
			expr: "0 9-17 * * 1-5",
			want: time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := MustParseCronExpression(tt.expr)
			assert.Equal(t, tt.want, ce.Next(base))
		})
	}
}

func TestCronExpression_NextOnExactBoundary(t *testing.T) {
	// Next must be strictly after t, never t itself.
	base := time.Date(2026, 3, 4, 3, 0, 0, 0, time.UTC)
	ce := MustParseCronExpression("0 3 * * *")

	assert.Equal(t, time.Date(2026, 3, 5, 3, 0, 0, 0, time.UTC), ce.Next(base))
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(10 * time.Minute)
	base := time.Date(2026, 3, 4, 10, 17, 42, 0, time.UTC)

	assert.Equal(t, base.Add(10*time.Minute), s.Next(base))
	assert.Equal(t, "@every 10m0s", s.String())
}
