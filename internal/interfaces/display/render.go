// Package display turns game views into the entity shape consumed by
// dashboards: a state string plus a flat attribute dictionary.
package display

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/riskibarqy/cebl-gameday/internal/domain/gameview"
)

const (
	StateNoUpcomingGame = "No upcoming game"
	StateNoGameData     = "No game data"
)

type Entity struct {
	TeamID     string         `json:"team_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

type Renderer struct {
	location *time.Location
	now      func() time.Time
}

func NewRenderer(location *time.Location) *Renderer {
	if location == nil {
		location = time.Local
	}
	return &Renderer{location: location, now: time.Now}
}

// Render builds the entity for view. Before the first successful fixture
// fetch every team renders the no-data sentinel.
func (r *Renderer) Render(view gameview.View, dataLoaded bool) Entity {
	entity := Entity{
		TeamID:     view.TeamID,
		State:      r.state(view, dataLoaded),
		Attributes: map[string]any{},
	}
	attrs := entity.Attributes

	attrs["team_id"] = view.TeamID
	attrs["lifecycle_state"] = string(view.Lifecycle)
	attrs["is_live"] = view.IsLive
	attrs["data_source"] = view.DataSource
	attrs["computed_at"] = view.ComputedAt.In(r.location).Format(time.RFC3339)
	if view.Lifecycle == gameview.LifecycleNone || !dataLoaded {
		return entity
	}

	attrs["fixture_id"] = view.FixtureID
	attrs["team_name"] = view.Team.Name
	attrs["team_logo"] = view.Team.LogoURL
	attrs["opponent_id"] = view.Opponent.ID
	attrs["opponent_name"] = view.Opponent.Name
	attrs["opponent_logo"] = view.Opponent.LogoURL
	attrs["opponent_homeaway"] = opponentHomeAway(view.IsHome)
	attrs["venue"] = view.Venue
	attrs["competition"] = view.Competition
	attrs["match_status"] = view.Status
	attrs["match_period"] = view.Period
	attrs["match_clock"] = view.Clock
	attrs["period_type"] = string(view.PeriodType)
	attrs["team_score"] = view.TeamScore
	attrs["opponent_score"] = view.OpponentScore
	attrs["score_difference"] = view.ScoreDifference

	home, away := view.TeamScore, view.OpponentScore
	if !view.IsHome {
		home, away = away, home
	}
	attrs["home_team_score"] = home
	attrs["away_team_score"] = away

	if view.MatchLookupKey != "" {
		attrs["match_lookup_key"] = view.MatchLookupKey
	}
	if view.StaleReason != "" {
		attrs["stale_reason"] = view.StaleReason
	}

	if view.StartTime != nil {
		local := view.StartTime.In(r.location)
		attrs["date"] = local.Format(time.RFC3339)
		attrs["kickoff_relative"] = humanize.RelTime(*view.StartTime, r.now(), "ago", "from now")
	}
	if view.HumanTimeUntilStart != "" {
		attrs["kickoff_in"] = view.HumanTimeUntilStart
	}
	if view.SecondsUntilStart != nil {
		attrs["seconds_until_start"] = *view.SecondsUntilStart
	}
	if view.HoursSinceCompletion != nil {
		attrs["hours_since_completion"] = *view.HoursSinceCompletion
	}

	if len(view.TeamStats) > 0 {
		attrs["team_stats"] = view.TeamStats
	}
	if len(view.OpponentStats) > 0 {
		attrs["opponent_stats"] = view.OpponentStats
	}
	if len(view.TeamRoster) > 0 {
		attrs["team_roster"] = view.TeamRoster
	}
	if len(view.OpponentRoster) > 0 {
		attrs["opponent_roster"] = view.OpponentRoster
	}
	if len(view.OtherMatches) > 0 {
		attrs["other_matches"] = view.OtherMatches
	}

	return entity
}

func (r *Renderer) RenderAll(views []gameview.View, dataLoaded bool) []Entity {
	out := make([]Entity, 0, len(views))
	for _, view := range views {
		out = append(out, r.Render(view, dataLoaded))
	}
	return out
}

func (r *Renderer) state(view gameview.View, dataLoaded bool) string {
	if !dataLoaded {
		return StateNoGameData
	}
	if view.Lifecycle == gameview.LifecycleNone || view.Lifecycle == "" {
		return StateNoUpcomingGame
	}
	return string(view.Lifecycle)
}

func opponentHomeAway(isHome bool) string {
	if isHome {
		return "away"
	}
	return "home"
}
