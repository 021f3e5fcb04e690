package usecase

import (
	"strings"
	"time"

	"github.com/riskibarqy/cebl-gameday/internal/domain/fixture"
	"github.com/riskibarqy/cebl-gameday/internal/domain/gameview"
	"github.com/riskibarqy/cebl-gameday/internal/domain/livescore"
)

const (
	liveFetchCompletedWindow = 24 * time.Hour
	liveFetchScheduledWindow = 15 * time.Minute
	staleScheduledLead       = time.Hour
)

// ShouldFetchLive bounds live requests to matches that plausibly have fresh
// data: running games, games finished in the last day, and scheduled games
// within a quarter hour of tip-off.
func ShouldFetchLive(item fixture.Fixture, now time.Time) bool {
	if strings.TrimSpace(item.MatchLookupKey) == "" {
		return false
	}
	if item.AssertsLive() {
		return true
	}
	if item.StartTime == nil {
		return false
	}

	switch item.Class() {
	case fixture.ClassCompleted:
		elapsed := now.Sub(*item.StartTime)
		return elapsed >= 0 && elapsed <= liveFetchCompletedWindow
	case fixture.ClassScheduled:
		return absDuration(item.StartTime.Sub(now)) <= liveFetchScheduledWindow
	default:
		return false
	}
}

// ValidateSnapshot decides whether snap describes item's current game. A
// rejected snapshot most likely carries a previous match from the same feed
// slot.
func ValidateSnapshot(item fixture.Fixture, snap livescore.Snapshot, now time.Time) (bool, string) {
	if item.Class() != fixture.ClassScheduled {
		return true, ""
	}
	if item.StartTime != nil && item.StartTime.Sub(now) > staleScheduledLead {
		return false, gameview.StaleScheduledFarAhead
	}
	if snap.Live.IsFalse() {
		return false, gameview.StaleNotLiveWhileScheduled
	}
	return true, ""
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
