package cebl

import (
	"strings"

	"github.com/riskibarqy/cebl-gameday/internal/domain/fixture"
	"github.com/riskibarqy/cebl-gameday/internal/platform/payload"
)

type field int

const (
	fieldID field = iota
	fieldHomeID
	fieldHomeName
	fieldHomeLogo
	fieldHomeScore
	fieldAwayID
	fieldAwayName
	fieldAwayLogo
	fieldAwayScore
	fieldStatus
	fieldStart
	fieldLive
	fieldVenue
	fieldCompetition
	fieldPeriod
	fieldClock
	fieldStatsURL
)

// schemaAdapter maps one feed revision onto the canonical record. Aliases
// are tried in order and the first non-empty value wins.
type schemaAdapter struct {
	name     string
	required []field
	fields   map[field][]string
}

// adapters are ordered by priority; detection picks the first adapter whose
// required fields are all present on a record.
var adapters = []schemaAdapter{
	{
		name:     "streamplay",
		required: []field{fieldHomeID, fieldAwayID},
		fields: map[field][]string{
			fieldID:          {"id", "fixtureId"},
			fieldHomeID:      {"homeTeam.id"},
			fieldHomeName:    {"homeTeam.name", "homeTeam.shortName"},
			fieldHomeLogo:    {"homeTeam.logo", "homeTeam.logoUrl"},
			fieldHomeScore:   {"homeTeam.score", "homeScore", "score.home"},
			fieldAwayID:      {"awayTeam.id"},
			fieldAwayName:    {"awayTeam.name", "awayTeam.shortName"},
			fieldAwayLogo:    {"awayTeam.logo", "awayTeam.logoUrl"},
			fieldAwayScore:   {"awayTeam.score", "awayScore", "score.away"},
			fieldStatus:      {"status", "matchStatus", "state"},
			fieldStart:       {"startDate", "startTime", "date"},
			fieldLive:        {"live", "isLive"},
			fieldVenue:       {"stadium.name", "venue.name", "venue"},
			fieldCompetition: {"competition.name", "competition", "season.name"},
			fieldPeriod:      {"period"},
			fieldClock:       {"clock"},
			fieldStatsURL:    {"statsUrl", "links.stats", "externalLinks.stats", "liveStatsUrl"},
		},
	},
	{
		name:     "games_snake",
		required: []field{fieldHomeID, fieldAwayID},
		fields: map[field][]string{
			fieldID:          {"id", "game_id", "fixture_id", "match_id"},
			fieldHomeID:      {"home_team_id"},
			fieldHomeName:    {"home_team_name", "home_team"},
			fieldHomeLogo:    {"home_team_logo_url", "home_team_logo"},
			fieldHomeScore:   {"home_team_score", "home_score"},
			fieldAwayID:      {"away_team_id"},
			fieldAwayName:    {"away_team_name", "away_team"},
			fieldAwayLogo:    {"away_team_logo_url", "away_team_logo"},
			fieldAwayScore:   {"away_team_score", "away_score"},
			fieldStatus:      {"status", "game_status", "state"},
			fieldStart:       {"start_time_utc", "start_time", "start_date", "startDate"},
			fieldLive:        {"live", "is_live"},
			fieldVenue:       {"venue_name", "venue", "arena"},
			fieldCompetition: {"competition", "competition_name", "season"},
			fieldPeriod:      {"period", "current_period"},
			fieldClock:       {"clock", "game_clock"},
			fieldStatsURL:    {"fiba_stats_url", "stats_url", "box_score_url", "play_by_play_url", "live_stats_url"},
		},
	},
	{
		name:     "games_camel",
		required: []field{fieldHomeID, fieldAwayID},
		fields: map[field][]string{
			fieldID:          {"id", "gameId", "fixtureId", "matchId"},
			fieldHomeID:      {"hometeamId", "homeTeamId"},
			fieldHomeName:    {"hometeamName", "homeTeamName"},
			fieldHomeLogo:    {"hometeamLogo", "homeTeamLogo"},
			fieldHomeScore:   {"hometeamScore", "homeTeamScore", "homeScore"},
			fieldAwayID:      {"awayteamId", "awayTeamId"},
			fieldAwayName:    {"awayteamName", "awayTeamName"},
			fieldAwayLogo:    {"awayteamLogo", "awayTeamLogo"},
			fieldAwayScore:   {"awayteamScore", "awayTeamScore", "awayScore"},
			fieldStatus:      {"status", "gameStatus"},
			fieldStart:       {"startTimeUtc", "startTime", "startDate"},
			fieldLive:        {"live", "isLive"},
			fieldVenue:       {"venueName", "venue"},
			fieldCompetition: {"competition", "competitionName"},
			fieldPeriod:      {"period", "currentPeriod"},
			fieldClock:       {"clock", "gameClock"},
			fieldStatsURL:    {"fibaStatsUrl", "statsUrl", "boxScoreUrl"},
		},
	},
}

func (a schemaAdapter) matches(record map[string]any) bool {
	for _, f := range a.required {
		if !payload.Has(record, a.fields[f]...) {
			return false
		}
	}
	return true
}

func (a schemaAdapter) str(record map[string]any, f field) string {
	return payload.String(record, a.fields[f]...)
}

// fixtureRecord is the canonical record before conversion; validation runs
// against it so one malformed game is skipped without failing the batch.
type fixtureRecord struct {
	ID         string `validate:"required"`
	HomeTeamID string `validate:"required"`
	AwayTeamID string `validate:"required,nefield=HomeTeamID"`
	Adapter    string `validate:"required"`
}

func (a schemaAdapter) toFixture(record map[string]any) (fixture.Fixture, fixtureRecord) {
	item := fixture.Fixture{
		ID: a.str(record, fieldID),
		HomeTeam: fixture.TeamRef{
			ID:      a.str(record, fieldHomeID),
			Name:    a.str(record, fieldHomeName),
			LogoURL: a.str(record, fieldHomeLogo),
			Score:   optionalInt(record, a.fields[fieldHomeScore]),
		},
		AwayTeam: fixture.TeamRef{
			ID:      a.str(record, fieldAwayID),
			Name:    a.str(record, fieldAwayName),
			LogoURL: a.str(record, fieldAwayLogo),
			Score:   optionalInt(record, a.fields[fieldAwayScore]),
		},
		Status:      a.str(record, fieldStatus),
		StartTime:   payload.Time(a.str(record, fieldStart)),
		Venue:       a.str(record, fieldVenue),
		Competition: a.str(record, fieldCompetition),
		Period:      payload.IntOrZero(record, a.fields[fieldPeriod]...),
		Clock:       a.str(record, fieldClock),
	}
	if raw, ok := payload.First(record, a.fields[fieldLive]...); ok {
		item.LiveFlag = fixture.ParseIndicator(raw)
	}
	for _, path := range a.fields[fieldStatsURL] {
		if value := payload.String(record, path); value != "" {
			item.StatsURLs = append(item.StatsURLs, value)
		}
	}
	item.MatchLookupKey = ExtractLookupKey(item.StatsURLs...)
	if item.ID == "" {
		item.ID = syntheticFixtureID(item)
	}

	return item, fixtureRecord{
		ID:         item.ID,
		HomeTeamID: item.HomeTeam.ID,
		AwayTeamID: item.AwayTeam.ID,
		Adapter:    a.name,
	}
}

func detectAdapter(record map[string]any) (schemaAdapter, bool) {
	for _, adapter := range adapters {
		if adapter.matches(record) {
			return adapter, true
		}
	}
	return schemaAdapter{}, false
}

// unwrapRecords accepts both the enveloped {"fixtures": [...]} document and a
// bare array of games. Any other shape reports false.
func unwrapRecords(doc any) ([]map[string]any, bool) {
	switch typed := doc.(type) {
	case []any:
		return payload.ObjectsOf(typed), true
	case map[string]any:
		for _, key := range []string{"fixtures", "games", "data", "items"} {
			if items, ok := typed[key].([]any); ok {
				return payload.ObjectsOf(items), true
			}
		}
	}
	return nil, false
}

func optionalInt(record map[string]any, paths []string) *int {
	n, ok := payload.Int(record, paths...)
	if !ok {
		return nil
	}
	return &n
}

func syntheticFixtureID(item fixture.Fixture) string {
	if item.MatchLookupKey != "" {
		return item.MatchLookupKey
	}
	if item.HomeTeam.ID == "" || item.AwayTeam.ID == "" {
		return ""
	}
	parts := []string{item.HomeTeam.ID, item.AwayTeam.ID}
	if item.StartTime != nil {
		parts = append(parts, item.StartTime.Format("20060102T1504"))
	}
	return strings.Join(parts, "-")
}
