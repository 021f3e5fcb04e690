package livescore

import (
	"context"

	"github.com/riskibarqy/cebl-gameday/internal/domain/fixture"
)

type PeriodType string

const (
	PeriodRegular  PeriodType = "REGULAR"
	PeriodOvertime PeriodType = "OVERTIME"
	PeriodUnknown  PeriodType = "UNKNOWN"
)

const (
	ShapeTeamIndexed     = "team_indexed"
	ShapeFlatTeam        = "flat_team"
	ShapeEmbeddedFixture = "embedded_fixture"
	ShapeUnknown         = "unknown"
)

// PlayerLine is one roster entry. Stats are passed through untouched.
type PlayerLine struct {
	Name   string         `json:"name"`
	Number string         `json:"number,omitempty"`
	Stats  map[string]any `json:"stats,omitempty"`
}

// MatchSummary is a sibling match reported alongside the primary one.
type MatchSummary struct {
	HomeName  string `json:"home_name"`
	AwayName  string `json:"away_name"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Status    string `json:"status,omitempty"`
	Period    int    `json:"period,omitempty"`
	Clock     string `json:"clock,omitempty"`
}

// Snapshot is the in-game state of one match as reported by the live feed.
// It carries no fixture id; callers join it through the lookup key it was
// fetched with.
type Snapshot struct {
	TeamAScore   int
	TeamBScore   int
	TeamAName    string
	TeamBName    string
	Clock        string
	Period       int
	PeriodType   PeriodType
	InOvertime   bool
	Live         fixture.Indicator
	TeamAStats   map[string]any
	TeamBStats   map[string]any
	TeamARoster  []PlayerLine
	TeamBRoster  []PlayerLine
	OtherMatches []MatchSummary
	Shape        string
}

// Empty is the zeroed fallback for payloads no adapter recognizes.
func Empty() Snapshot {
	return Snapshot{
		PeriodType: PeriodUnknown,
		Live:       fixture.Unknown,
		Shape:      ShapeUnknown,
	}
}

// Overtime reports whether either overtime signal is set.
func (s Snapshot) Overtime() bool {
	return s.InOvertime || s.PeriodType == PeriodOvertime
}

// Source fetches one snapshot per lookup key. The boolean is false when the
// feed had no usable data.
type Source interface {
	FetchSnapshot(ctx context.Context, lookupKey string) (Snapshot, bool)
}
