package usecase

import (
	"fmt"
	"math"
	"time"
)

// SecondsUntilStart is signed: negative once the start has passed. Nil when
// the start time is unknown.
func SecondsUntilStart(start *time.Time, now time.Time) *int64 {
	if start == nil || start.IsZero() {
		return nil
	}
	secs := int64(math.Round(start.Sub(now).Seconds()))
	return &secs
}

// HumanTimeUntilStart renders the countdown shown before tip-off.
func HumanTimeUntilStart(start *time.Time, now time.Time) string {
	if start == nil || start.IsZero() {
		return ""
	}
	delta := start.Sub(now)
	if delta <= time.Minute {
		return "Starting soon"
	}

	if days := int(delta / (24 * time.Hour)); days >= 1 {
		return pluralize(days, "day")
	}
	if hours := int(delta / time.Hour); hours >= 1 {
		return pluralize(hours, "hour")
	}
	return pluralize(int(delta/time.Minute), "minute")
}

// HoursSinceCompletion is measured from the scheduled start, rounded to two
// decimals and never negative.
func HoursSinceCompletion(start *time.Time, now time.Time) *float64 {
	if start == nil || start.IsZero() {
		return nil
	}
	hours := now.Sub(*start).Hours()
	if hours < 0 {
		hours = 0
	}
	hours = math.Round(hours*100) / 100
	return &hours
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("In 1 %s", unit)
	}
	return fmt.Sprintf("In %d %ss", n, unit)
}
