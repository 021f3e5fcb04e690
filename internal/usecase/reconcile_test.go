package usecase

import (
	"testing"
	"time"

	"github.com/riskibarqy/cebl-gameday/internal/domain/fixture"
	"github.com/riskibarqy/cebl-gameday/internal/domain/gameview"
	"github.com/riskibarqy/cebl-gameday/internal/domain/livescore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := refNow.Add(d)
	return &t
}

func score(v int) *int {
	return &v
}

func newFixture(id, status string, start *time.Time) fixture.Fixture {
	return fixture.Fixture{
		ID:        id,
		HomeTeam:  fixture.TeamRef{ID: "12", Name: "Calgary Surge"},
		AwayTeam:  fixture.TeamRef{ID: "7", Name: "Edmonton Stingers"},
		Status:    status,
		StartTime: start,
	}
}

func TestSelectFixture_LiveFixtureWins(t *testing.T) {
	t.Parallel()

	items := []fixture.Fixture{
		newFixture("done", fixture.StatusComplete, at(-3*time.Hour)),
		newFixture("next", fixture.StatusScheduled, at(2*time.Hour)),
		newFixture("now", fixture.StatusLive, at(-30*time.Minute)),
	}

	got, ok := SelectFixture(items, nil, refNow, DefaultCompletionGrace)
	require.True(t, ok)
	assert.Equal(t, "now", got.ID)
}

func TestSelectFixture_AcceptedLiveSnapshotWins(t *testing.T) {
	t.Parallel()

	next := newFixture("next", fixture.StatusScheduled, at(5*time.Minute))
	next.MatchLookupKey = "m1"
	items := []fixture.Fixture{newFixture("done", fixture.StatusComplete, at(-1*time.Hour)), next}
	snaps := map[string]livescore.Snapshot{
		"m1": {Live: fixture.Definite(true), Shape: livescore.ShapeTeamIndexed},
	}

	got, ok := SelectFixture(items, snaps, refNow, DefaultCompletionGrace)
	require.True(t, ok)
	assert.Equal(t, "next", got.ID)
}

func TestSelectFixture_UpcomingVersusCompletedTransition(t *testing.T) {
	t.Parallel()

	completed := newFixture("done", fixture.StatusComplete, at(-13*time.Hour))

	got, _ := SelectFixture([]fixture.Fixture{
		completed,
		newFixture("soon", fixture.StatusScheduled, at(3*24*time.Hour)),
	}, nil, refNow, DefaultCompletionGrace)
	if got.ID != "soon" {
		t.Fatalf("expected upcoming game 3 days out, got %s", got.ID)
	}

	got, _ = SelectFixture([]fixture.Fixture{
		completed,
		newFixture("far", fixture.StatusScheduled, at(10*24*time.Hour)),
	}, nil, refNow, DefaultCompletionGrace)
	if got.ID != "done" {
		t.Fatalf("expected completed game when next is 10 days out, got %s", got.ID)
	}
}

func TestSelectFixture_PrefersUpcomingWithin48Hours(t *testing.T) {
	t.Parallel()

	got, _ := SelectFixture([]fixture.Fixture{
		newFixture("done", fixture.StatusComplete, at(-2*time.Hour)),
		newFixture("later", fixture.StatusScheduled, at(40*time.Hour)),
		newFixture("sooner", fixture.StatusScheduled, at(30*time.Hour)),
	}, nil, refNow, DefaultCompletionGrace)
	assert.Equal(t, "sooner", got.ID)
}

func TestSelectFixture_FallbacksAndEmpty(t *testing.T) {
	t.Parallel()

	_, ok := SelectFixture(nil, nil, refNow, DefaultCompletionGrace)
	assert.False(t, ok)

	got, _ := SelectFixture([]fixture.Fixture{
		newFixture("old", fixture.StatusComplete, at(-72*time.Hour)),
		newFixture("recent", "FINAL", at(-24*time.Hour)),
	}, nil, refNow, DefaultCompletionGrace)
	assert.Equal(t, "recent", got.ID)

	got, _ = SelectFixture([]fixture.Fixture{
		newFixture("mystery", "", nil),
	}, nil, refNow, DefaultCompletionGrace)
	assert.Equal(t, "mystery", got.ID)

	got, _ = SelectFixture([]fixture.Fixture{
		newFixture("postponed", fixture.StatusPostponed, at(-4*time.Hour)),
		newFixture("tbd", "", nil),
	}, nil, refNow, DefaultCompletionGrace)
	assert.Equal(t, "postponed", got.ID)
}

func TestSelectFixture_OverdueScheduledStaysUpcomingInsideGrace(t *testing.T) {
	t.Parallel()

	got, _ := SelectFixture([]fixture.Fixture{
		newFixture("done", fixture.StatusComplete, at(-7*24*time.Hour)),
		newFixture("late", fixture.StatusScheduled, at(-20*time.Minute)),
	}, nil, refNow, DefaultCompletionGrace)
	assert.Equal(t, "late", got.ID)
}

func TestValidateSnapshot(t *testing.T) {
	t.Parallel()

	live := livescore.Snapshot{Live: fixture.Definite(true), Shape: livescore.ShapeFlatTeam}
	notLive := livescore.Snapshot{Live: fixture.Definite(false), Shape: livescore.ShapeFlatTeam}

	cases := []struct {
		name       string
		item       fixture.Fixture
		snap       livescore.Snapshot
		wantOK     bool
		wantReason string
	}{
		{"scheduled far ahead", newFixture("a", fixture.StatusScheduled, at(2*time.Hour)), live, false, gameview.StaleScheduledFarAhead},
		{"scheduled not live", newFixture("b", fixture.StatusScheduled, at(10*time.Minute)), notLive, false, gameview.StaleNotLiveWhileScheduled},
		{"scheduled soon live", newFixture("c", fixture.StatusScheduled, at(10*time.Minute)), live, true, ""},
		{"completed not live", newFixture("d", fixture.StatusComplete, at(-time.Hour)), notLive, true, ""},
		{"live fixture accepts any snapshot", newFixture("e", fixture.StatusLive, at(-time.Hour)), notLive, true, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ok, reason := ValidateSnapshot(tc.item, tc.snap, refNow)
			if ok != tc.wantOK || reason != tc.wantReason {
				t.Fatalf("got ok=%v reason=%q, want ok=%v reason=%q", ok, reason, tc.wantOK, tc.wantReason)
			}
		})
	}
}

func TestDeriveFromSnapshot_ClockAndOvertime(t *testing.T) {
	t.Parallel()

	item := newFixture("g", fixture.StatusLive, at(-2*time.Hour))

	state, _ := DeriveFromSnapshot(item, livescore.Snapshot{Clock: "00:00", Period: 4, PeriodType: livescore.PeriodRegular})
	assert.Equal(t, gameview.LifecyclePost, state)

	state, isLive := DeriveFromSnapshot(item, livescore.Snapshot{Clock: "00:00", Period: 4, InOvertime: true})
	assert.Equal(t, gameview.LifecycleIn, state)
	assert.True(t, isLive)

	state, _ = DeriveFromSnapshot(item, livescore.Snapshot{Clock: "00:00", Period: 5, PeriodType: livescore.PeriodOvertime})
	assert.Equal(t, gameview.LifecycleIn, state)

	state, isLive = DeriveFromSnapshot(item, livescore.Snapshot{Clock: "", Period: 2})
	assert.Equal(t, gameview.LifecycleIn, state)
	assert.True(t, isLive)

	state, _ = DeriveFromSnapshot(item, livescore.Snapshot{Clock: "garbage", Period: 4})
	assert.Equal(t, gameview.LifecycleIn, state, "unparsable clock must read as running")

	state, isLive = DeriveFromSnapshot(newFixture("h", fixture.StatusScheduled, at(time.Hour)), livescore.Snapshot{})
	assert.Equal(t, AmbiguousLifecycle, state)
	assert.False(t, isLive)
}

func TestDeriveFromSnapshot_IndicatorPrecedence(t *testing.T) {
	t.Parallel()

	completed := newFixture("g", fixture.StatusComplete, at(-30*time.Minute))
	state, _ := DeriveFromSnapshot(completed, livescore.Snapshot{Live: fixture.Definite(false), Period: 4, Clock: "03:00"})
	assert.Equal(t, gameview.LifecyclePost, state)

	state, isLive := DeriveFromSnapshot(completed, livescore.Snapshot{Live: fixture.Definite(true), Period: 4, Clock: "00:00"})
	assert.Equal(t, gameview.LifecycleIn, state)
	assert.True(t, isLive)

	scheduled := newFixture("s", fixture.StatusScheduled, at(-5*time.Minute))
	state, isLive = DeriveFromSnapshot(scheduled, livescore.Snapshot{Live: fixture.Definite(false), Period: 1, Clock: "08:00"})
	assert.Equal(t, gameview.LifecycleIn, state)
	assert.False(t, isLive)
}

func TestDeriveFromFixture(t *testing.T) {
	t.Parallel()

	grace := 2 * time.Hour

	flagged := newFixture("flag", "FINAL", at(-10*time.Hour))
	flagged.LiveFlag = fixture.Definite(true)

	cases := []struct {
		name     string
		item     fixture.Fixture
		want     gameview.Lifecycle
		wantLive bool
	}{
		{"live flag beats status", flagged, gameview.LifecycleIn, true},
		{"live status", newFixture("a", "IN_PROGRESS", at(-time.Hour)), gameview.LifecycleIn, true},
		{"completed past grace", newFixture("b", fixture.StatusComplete, at(-3*time.Hour)), gameview.LifecyclePost, false},
		{"completed inside grace", newFixture("c", fixture.StatusComplete, at(-time.Hour)), gameview.LifecycleIn, false},
		{"completed without start", newFixture("d", fixture.StatusComplete, nil), gameview.LifecyclePost, false},
		{"future start", newFixture("e", fixture.StatusScheduled, at(time.Hour)), gameview.LifecyclePre, false},
		{"unknown status past start", newFixture("f", "WEIRD", at(-time.Hour)), AmbiguousLifecycle, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, isLive := DeriveFromFixture(tc.item, refNow, grace)
			if got != tc.want || isLive != tc.wantLive {
				t.Fatalf("got %s/%v, want %s/%v", got, isLive, tc.want, tc.wantLive)
			}
		})
	}
}

func TestBuildView_LiveIndicatorAlwaysIN(t *testing.T) {
	t.Parallel()

	for _, status := range []string{fixture.StatusScheduled, fixture.StatusComplete, "", "POSTPONED"} {
		item := newFixture("x", status, at(5*time.Hour))
		item.LiveFlag = fixture.Definite(true)

		view := BuildView("12", []fixture.Fixture{item}, nil, refNow, DefaultCompletionGrace)
		if view.Lifecycle != gameview.LifecycleIn || !view.IsLive {
			t.Fatalf("status %q: expected IN/live, got %s/%v", status, view.Lifecycle, view.IsLive)
		}
	}
}

func TestBuildView_RejectsStaleSnapshotForFarScheduledGame(t *testing.T) {
	t.Parallel()

	item := newFixture("next", fixture.StatusScheduled, at(3*time.Hour))
	item.MatchLookupKey = "m9"
	snaps := map[string]livescore.Snapshot{
		"m9": {TeamAScore: 88, TeamBScore: 80, Period: 4, Clock: "00:00", Shape: livescore.ShapeTeamIndexed},
	}

	view := BuildView("12", []fixture.Fixture{item}, snaps, refNow, DefaultCompletionGrace)
	assert.Equal(t, gameview.SourceFixtureOnly, view.DataSource)
	assert.Equal(t, gameview.StaleScheduledFarAhead, view.StaleReason)
	assert.Equal(t, gameview.LifecyclePre, view.Lifecycle)
	assert.Equal(t, 0, view.TeamScore)
	assert.Equal(t, "In 3 hours", view.HumanTimeUntilStart)
}

func TestBuildView_OrientsScoresForAwayTeamAndReversedSnapshot(t *testing.T) {
	t.Parallel()

	item := newFixture("g", fixture.StatusLive, at(-time.Hour))
	item.MatchLookupKey = "m1"
	snaps := map[string]livescore.Snapshot{
		"m1": {
			TeamAName:  "Edmonton Stingers",
			TeamBName:  "Calgary Surge",
			TeamAScore: 50,
			TeamBScore: 61,
			TeamAStats: map[string]any{"reb": 20},
			TeamBStats: map[string]any{"reb": 31},
			Period:     3,
			Clock:      "05:00",
			Live:       fixture.Definite(true),
			Shape:      livescore.ShapeTeamIndexed,
		},
	}

	home := BuildView("12", []fixture.Fixture{item}, snaps, refNow, DefaultCompletionGrace)
	assert.True(t, home.IsHome)
	assert.Equal(t, 61, home.TeamScore)
	assert.Equal(t, 50, home.OpponentScore)
	assert.Equal(t, 11, home.ScoreDifference)
	assert.Equal(t, 31, home.TeamStats["reb"])

	away := BuildView("7", []fixture.Fixture{item}, snaps, refNow, DefaultCompletionGrace)
	assert.False(t, away.IsHome)
	assert.Equal(t, 50, away.TeamScore)
	assert.Equal(t, -11, away.ScoreDifference)
	assert.Equal(t, "Calgary Surge", away.Opponent.Name)
}

func TestBuildView_PromotesSiblingMatch(t *testing.T) {
	t.Parallel()

	item := newFixture("g", fixture.StatusLive, at(-time.Hour))
	item.MatchLookupKey = "m1"
	snaps := map[string]livescore.Snapshot{
		"m1": {
			TeamAName:  "Niagara River Lions",
			TeamBName:  "Brampton Honey Badgers",
			TeamAScore: 40,
			TeamBScore: 38,
			Live:       fixture.Definite(false),
			Shape:      livescore.ShapeEmbeddedFixture,
			OtherMatches: []livescore.MatchSummary{
				{HomeName: "Calgary Surge", AwayName: "Edmonton Stingers", HomeScore: 70, AwayScore: 66, Status: "IN_PROGRESS", Period: 4, Clock: "02:10"},
			},
		},
	}

	view := BuildView("12", []fixture.Fixture{item}, snaps, refNow, DefaultCompletionGrace)
	assert.Equal(t, gameview.SourceLive, view.DataSource)
	assert.Equal(t, 70, view.TeamScore)
	assert.Equal(t, 66, view.OpponentScore)
	assert.Equal(t, "02:10", view.Clock)
	require.Len(t, view.OtherMatches, 1)
	assert.Equal(t, "Niagara River Lions", view.OtherMatches[0].HomeName)
}

func TestBuildView_FixtureOnlyScoresAndTiming(t *testing.T) {
	t.Parallel()

	item := newFixture("g", fixture.StatusComplete, at(-5*time.Hour))
	item.HomeTeam.Score = score(90)
	item.AwayTeam.Score = score(84)

	view := BuildView("7", []fixture.Fixture{item}, nil, refNow, DefaultCompletionGrace)
	assert.Equal(t, gameview.LifecyclePost, view.Lifecycle)
	assert.Equal(t, gameview.SourceFixtureOnly, view.DataSource)
	assert.Equal(t, 84, view.TeamScore)
	assert.Equal(t, 90, view.OpponentScore)
	assert.Empty(t, view.HumanTimeUntilStart)
	require.NotNil(t, view.HoursSinceCompletion)
	assert.Equal(t, 5.0, *view.HoursSinceCompletion)
	require.NotNil(t, view.SecondsUntilStart)
	assert.Equal(t, int64(-5*3600), *view.SecondsUntilStart)
}

func TestBuildView_NoFixturesIsNone(t *testing.T) {
	t.Parallel()

	view := BuildView("99", []fixture.Fixture{newFixture("g", fixture.StatusLive, at(0))}, nil, refNow, DefaultCompletionGrace)
	assert.Equal(t, gameview.LifecycleNone, view.Lifecycle)
	assert.Equal(t, gameview.SourceNone, view.DataSource)
	assert.Equal(t, "99", view.TeamID)
}

func TestBuildView_IsIdempotent(t *testing.T) {
	t.Parallel()

	item := newFixture("g", fixture.StatusLive, at(-time.Hour))
	item.MatchLookupKey = "m1"
	snaps := map[string]livescore.Snapshot{
		"m1": {
			TeamAName:   "Calgary Surge",
			TeamBName:   "Edmonton Stingers",
			TeamAScore:  44,
			TeamBScore:  41,
			Period:      2,
			Clock:       "01:12",
			Live:        fixture.Definite(true),
			TeamARoster: []livescore.PlayerLine{{Name: "Jay Doe", Number: "2"}},
			Shape:       livescore.ShapeTeamIndexed,
		},
	}

	first := BuildView("12", []fixture.Fixture{item}, snaps, refNow, DefaultCompletionGrace)
	second := BuildView("12", []fixture.Fixture{item}, snaps, refNow, DefaultCompletionGrace)
	assert.Equal(t, first, second)
	assert.True(t, gameview.SameState(first, second))
}

func TestNormalizeCompletionGrace(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultCompletionGrace, NormalizeCompletionGrace(0))
	assert.Equal(t, MinCompletionGrace, NormalizeCompletionGrace(10*time.Minute))
	assert.Equal(t, MaxCompletionGrace, NormalizeCompletionGrace(5*time.Hour))
	assert.Equal(t, 90*time.Minute, NormalizeCompletionGrace(90*time.Minute))
}
