package fixture

import (
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusComplete  = "COMPLETE"
	StatusCancelled = "CANCELLED"
	StatusPostponed = "POSTPONED"
)

// StatusClass is the normalized meaning of a provider status string.
type StatusClass string

const (
	ClassScheduled StatusClass = "scheduled"
	ClassLive      StatusClass = "live"
	ClassCompleted StatusClass = "completed"
	ClassCancelled StatusClass = "cancelled"
	ClassUnknown   StatusClass = "unknown"
)

// TeamRef is one side of a fixture.
type TeamRef struct {
	ID      string
	Name    string
	LogoURL string
	Score   *int
}

// Fixture represents one scheduled or played match.
type Fixture struct {
	ID             string
	HomeTeam       TeamRef
	AwayTeam       TeamRef
	Status         string
	StartTime      *time.Time
	LiveFlag       Indicator
	Venue          string
	Competition    string
	Period         int
	Clock          string
	StatsURLs      []string
	MatchLookupKey string
}

// Involves reports whether teamID plays on either side.
func (f Fixture) Involves(teamID string) bool {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return false
	}
	return strings.TrimSpace(f.HomeTeam.ID) == teamID || strings.TrimSpace(f.AwayTeam.ID) == teamID
}

// IsHome reports whether teamID is the home side.
func (f Fixture) IsHome(teamID string) bool {
	return strings.TrimSpace(f.HomeTeam.ID) == strings.TrimSpace(teamID)
}

// Sides returns (team, opponent) from the point of view of teamID.
func (f Fixture) Sides(teamID string) (TeamRef, TeamRef) {
	if f.IsHome(teamID) {
		return f.HomeTeam, f.AwayTeam
	}
	return f.AwayTeam, f.HomeTeam
}

func (f Fixture) Class() StatusClass {
	return ClassifyStatus(f.Status)
}

// AssertsLive is true when either the status or the live flag says the game is running.
func (f Fixture) AssertsLive() bool {
	if f.LiveFlag.IsTrue() {
		return true
	}
	return f.Class() == ClassLive
}

func (f Fixture) HasValidSides() bool {
	home := strings.TrimSpace(f.HomeTeam.ID)
	away := strings.TrimSpace(f.AwayTeam.ID)
	return home != "" && away != "" && home != away
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	status = strings.NewReplacer(" ", "_", "-", "_").Replace(status)
	return status
}

// ClassifyStatus maps the provider vocabulary, which drifts between feed
// revisions, onto a small fixed set of classes.
func ClassifyStatus(status string) StatusClass {
	switch NormalizeStatus(status) {
	case StatusLive, "IN", "IN_PROGRESS", "INPROGRESS", "IN_PLAY", "LIVE_GAME", "STARTED", "RUNNING",
		"HALFTIME", "HALF_TIME", "HT", "OT", "OVERTIME", "1Q", "2Q", "3Q", "4Q", "Q1", "Q2", "Q3", "Q4",
		"END_OF_PERIOD", "PERIOD_BREAK", "BREAK", "INTERMISSION":
		return ClassLive
	case StatusComplete, "COMPLETED", "FINAL", "FINISHED", "FT", "ENDED", "END", "FINAL_OT", "POST", "CLOSED", "RESULT":
		return ClassCompleted
	case StatusScheduled, "PRE", "UPCOMING", "NOT_STARTED", "NOTSTARTED", "NS", "FIXTURE", "CONFIRMED", "TBD", "PREGAME":
		return ClassScheduled
	case StatusCancelled, "CANCELED", StatusPostponed, "ABANDONED", "SUSPENDED", "FORFEIT":
		return ClassCancelled
	default:
		return ClassUnknown
	}
}

func IsLiveStatus(status string) bool {
	return ClassifyStatus(status) == ClassLive
}

func IsCompletedStatus(status string) bool {
	return ClassifyStatus(status) == ClassCompleted
}

func IsScheduledStatus(status string) bool {
	return ClassifyStatus(status) == ClassScheduled
}
