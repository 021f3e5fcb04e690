package gameview

import (
	"context"
	"reflect"
	"time"

	"github.com/riskibarqy/cebl-gameday/internal/domain/livescore"
)

type Lifecycle string

const (
	LifecyclePre  Lifecycle = "PRE"
	LifecycleIn   Lifecycle = "IN"
	LifecyclePost Lifecycle = "POST"
	LifecycleNone Lifecycle = "NONE"
)

const (
	SourceLive        = "live"
	SourceFixtureOnly = "fixture_only"
	SourceNone        = "none"
)

const (
	StaleScheduledFarAhead     = "stale_previous_match"
	StaleNotLiveWhileScheduled = "not_live_while_scheduled"
)

type Side struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
}

// View is the reconciled state of one tracked team's current game.
type View struct {
	TeamID               string                   `json:"team_id"`
	Lifecycle            Lifecycle                `json:"lifecycle_state"`
	IsLive               bool                     `json:"is_live"`
	FixtureID            string                   `json:"fixture_id,omitempty"`
	MatchLookupKey       string                   `json:"match_lookup_key,omitempty"`
	Team                 Side                     `json:"team"`
	Opponent             Side                     `json:"opponent"`
	IsHome               bool                     `json:"is_home"`
	Venue                string                   `json:"venue,omitempty"`
	Competition          string                   `json:"competition,omitempty"`
	Status               string                   `json:"status,omitempty"`
	StartTime            *time.Time               `json:"start_time_utc,omitempty"`
	TeamScore            int                      `json:"team_score"`
	OpponentScore        int                      `json:"opponent_score"`
	ScoreDifference      int                      `json:"score_difference"`
	Clock                string                   `json:"clock,omitempty"`
	Period               int                      `json:"period"`
	PeriodType           livescore.PeriodType     `json:"period_type,omitempty"`
	SecondsUntilStart    *int64                   `json:"seconds_until_start,omitempty"`
	HumanTimeUntilStart  string                   `json:"human_time_until_start,omitempty"`
	HoursSinceCompletion *float64                 `json:"hours_since_completion,omitempty"`
	DataSource           string                   `json:"data_source"`
	StaleReason          string                   `json:"stale_reason,omitempty"`
	TeamStats            map[string]any           `json:"team_stats,omitempty"`
	OpponentStats        map[string]any           `json:"opponent_stats,omitempty"`
	TeamRoster           []livescore.PlayerLine   `json:"team_roster,omitempty"`
	OpponentRoster       []livescore.PlayerLine   `json:"opponent_roster,omitempty"`
	OtherMatches         []livescore.MatchSummary `json:"other_matches,omitempty"`
	ComputedAt           time.Time                `json:"computed_at"`
}

// None is the view of a team with no associated fixture.
func None(teamID string, now time.Time) View {
	return View{
		TeamID:     teamID,
		Lifecycle:  LifecycleNone,
		DataSource: SourceNone,
		ComputedAt: now,
	}
}

// SameState compares two views ignoring the counters that move on every tick.
func SameState(a, b View) bool {
	return reflect.DeepEqual(stripTiming(a), stripTiming(b))
}

func stripTiming(v View) View {
	v.SecondsUntilStart = nil
	v.HumanTimeUntilStart = ""
	v.HoursSinceCompletion = nil
	v.ComputedAt = time.Time{}
	return v
}

// Repository stores the latest view per team.
type Repository interface {
	Save(ctx context.Context, view View) error
	Get(ctx context.Context, teamID string) (View, bool, error)
	List(ctx context.Context) ([]View, error)
}

// Publisher receives views whose state changed since the previous tick.
type Publisher interface {
	Publish(ctx context.Context, view View) error
}
