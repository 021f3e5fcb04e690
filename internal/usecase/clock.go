package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var isoClockRegex = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)

// parseGameClock reads the remaining time in a period. It accepts MM:SS,
// HH:MM:SS, fractional seconds and the ISO-8601 PT..M..S form some feeds use.
func parseGameClock(raw string) (time.Duration, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, false
	}
	if d, ok := parseISOClock(strings.ToUpper(value)); ok {
		return d, true
	}

	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	var total float64
	for idx, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, false
		}
		if idx == len(parts)-1 {
			secs, err := strconv.ParseFloat(part, 64)
			if err != nil || secs < 0 || secs >= 60 {
				return 0, false
			}
			total = total*60 + secs
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || (idx > 0 && n >= 60) {
			return 0, false
		}
		total = total*60 + float64(n)
	}
	return time.Duration(total * float64(time.Second)), true
}

func parseISOClock(value string) (time.Duration, bool) {
	if value == "PT" {
		return 0, false
	}
	m := isoClockRegex.FindStringSubmatch(value)
	if m == nil {
		return 0, false
	}

	var total float64
	if m[1] != "" {
		h, _ := strconv.Atoi(m[1])
		total += float64(h) * 3600
	}
	if m[2] != "" {
		mins, _ := strconv.Atoi(m[2])
		total += float64(mins) * 60
	}
	if m[3] != "" {
		secs, _ := strconv.ParseFloat(m[3], 64)
		total += secs
	}
	return time.Duration(total * float64(time.Second)), true
}
