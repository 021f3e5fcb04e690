package usecase

import (
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/cebl-gameday/internal/domain/fixture"
	"github.com/riskibarqy/cebl-gameday/internal/domain/gameview"
	"github.com/riskibarqy/cebl-gameday/internal/domain/livescore"
)

const (
	// AmbiguousLifecycle is applied whenever neither the live feed nor the
	// fixture settles the state. Both derivation paths use it.
	AmbiguousLifecycle = gameview.LifecyclePre

	DefaultCompletionGrace = 2 * time.Hour
	MinCompletionGrace     = time.Hour
	MaxCompletionGrace     = 3 * time.Hour

	preferUpcomingWithin      = 48 * time.Hour
	completedStaleAfter       = 12 * time.Hour
	preferUpcomingWithinStale = 7 * 24 * time.Hour

	regulationPeriods = 4
)

// SelectFixture picks the team's single most relevant fixture. items must
// already be filtered to the team. The boolean is false only for an empty
// list.
func SelectFixture(items []fixture.Fixture, snapshots map[string]livescore.Snapshot, now time.Time, grace time.Duration) (fixture.Fixture, bool) {
	if len(items) == 0 {
		return fixture.Fixture{}, false
	}

	for _, item := range items {
		snap, ok := snapshotFor(item, snapshots)
		if !ok || !snap.Live.IsTrue() {
			continue
		}
		if accepted, _ := ValidateSnapshot(item, snap, now); accepted {
			return item, true
		}
	}

	var live, upcoming, completed []fixture.Fixture
	for _, item := range items {
		switch {
		case item.AssertsLive():
			live = append(live, item)
		case isUpcoming(item, now, grace):
			upcoming = append(upcoming, item)
		case isCompletedForSelection(item, now):
			completed = append(completed, item)
		}
	}

	if len(live) > 0 {
		return live[0], true
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].StartTime.Before(*upcoming[j].StartTime)
	})
	sort.SliceStable(completed, func(i, j int) bool {
		return startOrZero(completed[i]).After(startOrZero(completed[j]))
	})

	switch {
	case len(upcoming) > 0 && len(completed) > 0:
		next, last := upcoming[0], completed[0]
		untilNext := next.StartTime.Sub(now)
		if untilNext <= preferUpcomingWithin {
			return next, true
		}
		if last.StartTime == nil || now.Sub(*last.StartTime) > completedStaleAfter {
			if untilNext <= preferUpcomingWithinStale {
				return next, true
			}
		}
		return last, true
	case len(upcoming) > 0:
		return upcoming[0], true
	case len(completed) > 0:
		return completed[0], true
	default:
		return items[0], true
	}
}

// isUpcoming covers scheduled games in the future, plus scheduled games whose
// tip-off passed less than grace ago while the feed still says scheduled.
func isUpcoming(item fixture.Fixture, now time.Time, grace time.Duration) bool {
	if item.Class() != fixture.ClassScheduled || item.StartTime == nil {
		return false
	}
	if item.StartTime.After(now) {
		return true
	}
	return now.Sub(*item.StartTime) < grace
}

func isCompletedForSelection(item fixture.Fixture, now time.Time) bool {
	switch item.Class() {
	case fixture.ClassCompleted:
		return true
	case fixture.ClassUnknown, fixture.ClassCancelled:
		return item.StartTime != nil && !item.StartTime.After(now)
	default:
		return false
	}
}

// DeriveFromSnapshot computes the lifecycle when an accepted snapshot exists.
func DeriveFromSnapshot(item fixture.Fixture, snap livescore.Snapshot) (gameview.Lifecycle, bool) {
	if snap.Live.IsTrue() || item.LiveFlag.IsTrue() {
		return gameview.LifecycleIn, true
	}
	if snap.Live.IsFalse() && item.Class() == fixture.ClassCompleted {
		return gameview.LifecyclePost, false
	}

	overtime := snap.Overtime()
	remaining, parsed := parseGameClock(snap.Clock)
	if parsed && remaining == 0 && snap.Period >= regulationPeriods && !overtime {
		return gameview.LifecyclePost, false
	}
	if snap.Period > 0 || overtime {
		return gameview.LifecycleIn, !snap.Live.IsFalse()
	}
	return AmbiguousLifecycle, false
}

// DeriveFromFixture computes the lifecycle from the fixture alone.
func DeriveFromFixture(item fixture.Fixture, now time.Time, grace time.Duration) (gameview.Lifecycle, bool) {
	if item.AssertsLive() {
		return gameview.LifecycleIn, true
	}
	if item.Class() == fixture.ClassCompleted {
		if item.StartTime == nil || now.Sub(*item.StartTime) >= grace {
			return gameview.LifecyclePost, false
		}
		// Held in IN until the grace window passes so a late live update
		// cannot flip POST back to IN.
		return gameview.LifecycleIn, false
	}
	if item.StartTime != nil && item.StartTime.After(now) {
		return gameview.LifecyclePre, false
	}
	return AmbiguousLifecycle, false
}

// BuildView reconciles one team's fixtures and snapshots into a view. It is a
// pure function of its inputs.
func BuildView(teamID string, items []fixture.Fixture, snapshots map[string]livescore.Snapshot, now time.Time, grace time.Duration) gameview.View {
	grace = NormalizeCompletionGrace(grace)

	teamItems := make([]fixture.Fixture, 0, len(items))
	for _, item := range items {
		if item.Involves(teamID) {
			teamItems = append(teamItems, item)
		}
	}

	selected, ok := SelectFixture(teamItems, snapshots, now, grace)
	if !ok {
		return gameview.None(teamID, now)
	}

	team, opponent := selected.Sides(teamID)
	view := gameview.View{
		TeamID:         teamID,
		FixtureID:      selected.ID,
		MatchLookupKey: selected.MatchLookupKey,
		Team:           gameview.Side{ID: team.ID, Name: team.Name, LogoURL: team.LogoURL},
		Opponent:       gameview.Side{ID: opponent.ID, Name: opponent.Name, LogoURL: opponent.LogoURL},
		IsHome:         selected.IsHome(teamID),
		Venue:          selected.Venue,
		Competition:    selected.Competition,
		Status:         selected.Status,
		StartTime:      selected.StartTime,
		ComputedAt:     now,
	}

	snap, hasSnap := snapshotFor(selected, snapshots)
	accepted := false
	if hasSnap {
		accepted, view.StaleReason = ValidateSnapshot(selected, snap, now)
	}

	if accepted {
		snap = snap.ForTeams(selected.HomeTeam.Name, selected.AwayTeam.Name)
		view.Lifecycle, view.IsLive = DeriveFromSnapshot(selected, snap)
		view.DataSource = gameview.SourceLive
		applySnapshot(&view, selected, snap)
	} else {
		view.Lifecycle, view.IsLive = DeriveFromFixture(selected, now, grace)
		view.DataSource = gameview.SourceFixtureOnly
		applyFixture(&view, selected)
	}
	view.ScoreDifference = view.TeamScore - view.OpponentScore

	view.SecondsUntilStart = SecondsUntilStart(selected.StartTime, now)
	switch view.Lifecycle {
	case gameview.LifecyclePre:
		view.HumanTimeUntilStart = HumanTimeUntilStart(selected.StartTime, now)
	case gameview.LifecyclePost:
		view.HoursSinceCompletion = HoursSinceCompletion(selected.StartTime, now)
	}

	return view
}

// NormalizeCompletionGrace clamps grace into the supported window.
func NormalizeCompletionGrace(grace time.Duration) time.Duration {
	switch {
	case grace <= 0:
		return DefaultCompletionGrace
	case grace < MinCompletionGrace:
		return MinCompletionGrace
	case grace > MaxCompletionGrace:
		return MaxCompletionGrace
	default:
		return grace
	}
}

func applySnapshot(view *gameview.View, item fixture.Fixture, snap livescore.Snapshot) {
	homeScore, awayScore := snap.TeamAScore, snap.TeamBScore
	homeStats, awayStats := snap.TeamAStats, snap.TeamBStats
	homeRoster, awayRoster := snap.TeamARoster, snap.TeamBRoster
	if snap.Reversed(item.HomeTeam.Name, item.AwayTeam.Name) {
		homeScore, awayScore = awayScore, homeScore
		homeStats, awayStats = awayStats, homeStats
		homeRoster, awayRoster = awayRoster, homeRoster
	}

	if view.IsHome {
		view.TeamScore, view.OpponentScore = homeScore, awayScore
		view.TeamStats, view.OpponentStats = homeStats, awayStats
		view.TeamRoster, view.OpponentRoster = homeRoster, awayRoster
	} else {
		view.TeamScore, view.OpponentScore = awayScore, homeScore
		view.TeamStats, view.OpponentStats = awayStats, homeStats
		view.TeamRoster, view.OpponentRoster = awayRoster, homeRoster
	}

	view.Clock = snap.Clock
	view.Period = snap.Period
	view.PeriodType = snap.PeriodType
	if snap.InOvertime && view.PeriodType != livescore.PeriodOvertime {
		view.PeriodType = livescore.PeriodOvertime
	}
	view.OtherMatches = snap.OtherMatches
}

func applyFixture(view *gameview.View, item fixture.Fixture) {
	team, opponent := item.Sides(view.TeamID)
	view.TeamScore = intOrZero(team.Score)
	view.OpponentScore = intOrZero(opponent.Score)
	view.Clock = item.Clock
	view.Period = item.Period
	view.PeriodType = livescore.PeriodUnknown
}

func snapshotFor(item fixture.Fixture, snapshots map[string]livescore.Snapshot) (livescore.Snapshot, bool) {
	key := strings.TrimSpace(item.MatchLookupKey)
	if key == "" || snapshots == nil {
		return livescore.Snapshot{}, false
	}
	snap, ok := snapshots[key]
	return snap, ok
}

func startOrZero(item fixture.Fixture) time.Time {
	if item.StartTime == nil {
		return time.Time{}
	}
	return *item.StartTime
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
