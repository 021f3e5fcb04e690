package cebl

import (
	"regexp"
	"time"

	"github.com/riskibarqy/cebl-gameday/internal/domain/fixture"
)

// Live stats links look like .../u/CEBL/2512345/bs.html, .../data/2512345/data.json
// or .../data/competition/2512345.json depending on the revision.
var lookupKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/u/[A-Za-z0-9_]+/(\d+)`),
	regexp.MustCompile(`/data/(\d+)(?:/|$)`),
	regexp.MustCompile(`competition/(\d+)`),
	regexp.MustCompile(`[?&](?:id|game|match)=(\d+)`),
}

// ExtractLookupKey returns the live-feed match id from the first stats URL
// that carries one, or "" when none does.
func ExtractLookupKey(urls ...string) string {
	for _, raw := range urls {
		for _, pattern := range lookupKeyPatterns {
			if m := pattern.FindStringSubmatch(raw); len(m) == 2 {
				return m[1]
			}
		}
	}
	return ""
}

// buildLookupMap picks, per tracked team, the keyed fixture whose start is
// nearest to now.
func buildLookupMap(items []fixture.Fixture, teamIDs []string, now time.Time) map[string]string {
	out := make(map[string]string, len(teamIDs))
	best := make(map[string]time.Duration, len(teamIDs))
	for _, item := range items {
		if item.MatchLookupKey == "" {
			continue
		}
		distance := time.Duration(1<<63 - 1)
		if item.StartTime != nil {
			distance = absDuration(item.StartTime.Sub(now))
		}
		for _, teamID := range teamIDs {
			if !item.Involves(teamID) {
				continue
			}
			if current, ok := best[teamID]; ok && current <= distance {
				continue
			}
			best[teamID] = distance
			out[teamID] = item.MatchLookupKey
		}
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
