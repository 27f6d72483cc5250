package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CronExpression represents a parsed cron expression.
// Supports standard 5-field format: minute hour day-of-month month day-of-week
// Examples:
//   - "*/5 * * * *"  - every 5 minutes
//   - "0 */1 * * *"  - every hour
//   - "0 3 * * *"    - every day at 03:00
//   - "0 0 * * 0"    - every Sunday at midnight
type CronExpression struct {
	raw      string
	minutes  []int // 0-59
	hours    []int // 0-23
	days     []int // 1-31
	months   []int // 1-12
	weekdays []int // 0-6 (0 = Sunday)
}

// ParseCronExpression parses a 5-field cron expression.
func ParseCronExpression(expr string) (*CronExpression, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("invalid cron expression %q: expected 5 fields, got %d", expr, len(fields))
	}

	minutes, err := parseField(fields[0], 0, 59)
	if err != nil {
		return nil, fmt.Errorf("invalid minute field %q: %w", fields[0], err)
	}

	hours, err := parseField(fields[1], 0, 23)
	if err != nil {
		return nil, fmt.Errorf("invalid hour field %q: %w", fields[1], err)
	}

	days, err := parseField(fields[2], 1, 31)
	if err != nil {
		return nil, fmt.Errorf("invalid day field %q: %w", fields[2], err)
	}

	months, err := parseField(fields[3], 1, 12)
	if err != nil {
		return nil, fmt.Errorf("invalid month field %q: %w", fields[3], err)
	}

	weekdays, err := parseField(fields[4], 0, 6)
	if err != nil {
		return nil, fmt.Errorf("invalid weekday field %q: %w", fields[4], err)
	}

	return &CronExpression{
		raw:      expr,
		minutes:  minutes,
		hours:    hours,
		days:     days,
		months:   months,
		weekdays: weekdays,
	}, nil
}

// MustParseCronExpression parses a cron expression or panics.
// Intended for package-level schedule constants.
func MustParseCronExpression(expr string) *CronExpression {
	ce, err := ParseCronExpression(expr)
	if err != nil {
		panic(err)
	}
	return ce
}

// parseField parses a single cron field into a sorted list of values.
// Supports: "*" (all), "*/n" (step), "a-b" (range), "a,b,c" (list), "n" (single).
func parseField(field string, min, max int) ([]int, error) {
	if field == "*" {
		values := make([]int, 0, max-min+1)
		for i := min; i <= max; i++ {
			values = append(values, i)
		}
		return values, nil
	}

	if strings.HasPrefix(field, "*/") {
		step, err := strconv.Atoi(field[2:])
		if err != nil || step <= 0 {
			return nil, fmt.Errorf("invalid step value %q", field[2:])
		}
		values := make([]int, 0)
		for i := min; i <= max; i += step {
			values = append(values, i)
		}
		return values, nil
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(field, ",") {
		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			lo, err := strconv.Atoi(bounds[0])
			if err != nil {
				return nil, fmt.Errorf("invalid range start %q", bounds[0])
			}
			hi, err := strconv.Atoi(bounds[1])
			if err != nil {
				return nil, fmt.Errorf("invalid range end %q", bounds[1])
			}
			if lo < min || hi > max || lo > hi {
				return nil, fmt.Errorf("range %d-%d out of bounds [%d, %d]", lo, hi, min, max)
			}
			for i := lo; i <= hi; i++ {
				seen[i] = true
			}
			continue
		}

		value, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", part)
		}
		if value < min || value > max {
			return nil, fmt.Errorf("value %d out of bounds [%d, %d]", value, min, max)
		}
		seen[value] = true
	}

	values := make([]int, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Ints(values)

	return values, nil
}

// String returns the original cron expression.
func (ce *CronExpression) String() string {
	return ce.raw
}

// Next returns the next time after t that matches the expression.
// It steps minute by minute; with a 5-field expression every pattern
// matches within 366 days, so the iteration cap is never hit in practice.
func (ce *CronExpression) Next(t time.Time) time.Time {
	// Start from the next minute boundary
	next := t.Truncate(time.Minute).Add(time.Minute)

	const maxIterations = 366 * 24 * 60
	for i := 0; i < maxIterations; i++ {
		if ce.matches(next) {
			return next
		}
		next = next.Add(time.Minute)
	}

	return time.Time{}
}

// matches returns true if the given time matches the expression.
func (ce *CronExpression) matches(t time.Time) bool {
	return contains(ce.minutes, t.Minute()) &&
		contains(ce.hours, t.Hour()) &&
		contains(ce.days, t.Day()) &&
		contains(ce.months, int(t.Month())) &&
		contains(ce.weekdays, int(t.Weekday()))
}

// contains uses binary search; field slices are always sorted.
func contains(values []int, v int) bool {
	idx := sort.SearchInts(values, v)
	return idx < len(values) && values[idx] == v
}

// ─────────────────────────────────────────────────────────────────────────────
// Common schedule presets
// ─────────────────────────────────────────────────────────────────────────────

var (
	// EveryMinute runs at the start of every minute.
	EveryMinute = MustParseCronExpression("* * * * *")

	// EveryFiveMinutes runs every 5 minutes.
	EveryFiveMinutes = MustParseCronExpression("*/5 * * * *")

	// EveryHour runs at the start of every hour.
	EveryHour = MustParseCronExpression("0 * * * *")

	// DailyAtThreeAM runs every day at 03:00.
	DailyAtThreeAM = MustParseCronExpression("0 3 * * *")

	// WeeklySundayMidnight runs every Sunday at midnight.
	WeeklySundayMidnight = MustParseCronExpression("0 0 * * 0")
)
