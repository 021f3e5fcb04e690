package livescore

import (
	"strings"
	"unicode"

	"github.com/riskibarqy/cebl-gameday/internal/domain/fixture"
)

// Reversed reports whether the snapshot lists the fixture's away team as
// team A. Snapshots without names are assumed to be home-first.
func (s Snapshot) Reversed(homeName, awayName string) bool {
	if s.TeamAName == "" || s.TeamBName == "" {
		return false
	}
	if SameTeamName(s.TeamAName, homeName) {
		return false
	}
	return SameTeamName(s.TeamAName, awayName) && SameTeamName(s.TeamBName, homeName)
}

// Describes reports whether the snapshot's named teams are the fixture's
// teams, in either order. Unnamed snapshots describe any fixture.
func (s Snapshot) Describes(homeName, awayName string) bool {
	if s.TeamAName == "" && s.TeamBName == "" {
		return true
	}
	if homeName == "" || awayName == "" {
		return true
	}
	return matchesPair(s.TeamAName, s.TeamBName, homeName, awayName)
}

// ForTeams returns the snapshot of the named fixture. When the primary record
// belongs to another game and a sibling in OtherMatches matches, the sibling
// is promoted. Player and team stats are dropped on promotion because the
// feed only carries them for the primary record.
func (s Snapshot) ForTeams(homeName, awayName string) Snapshot {
	if s.Describes(homeName, awayName) {
		return s
	}

	for idx, sibling := range s.OtherMatches {
		if !matchesPair(sibling.HomeName, sibling.AwayName, homeName, awayName) {
			continue
		}

		rest := make([]MatchSummary, 0, len(s.OtherMatches))
		rest = append(rest, s.summary())
		rest = append(rest, s.OtherMatches[:idx]...)
		rest = append(rest, s.OtherMatches[idx+1:]...)

		promoted := Snapshot{
			TeamAScore:   sibling.HomeScore,
			TeamBScore:   sibling.AwayScore,
			TeamAName:    sibling.HomeName,
			TeamBName:    sibling.AwayName,
			Clock:        sibling.Clock,
			Period:       sibling.Period,
			PeriodType:   PeriodUnknown,
			Live:         liveFromStatus(sibling.Status),
			OtherMatches: rest,
			Shape:        s.Shape,
		}
		return promoted
	}
	return s
}

func (s Snapshot) summary() MatchSummary {
	status := ""
	switch {
	case s.Live.IsTrue():
		status = fixture.StatusLive
	case s.Live.IsFalse():
		status = fixture.StatusComplete
	}
	return MatchSummary{
		HomeName:  s.TeamAName,
		AwayName:  s.TeamBName,
		HomeScore: s.TeamAScore,
		AwayScore: s.TeamBScore,
		Status:    status,
		Period:    s.Period,
		Clock:     s.Clock,
	}
}

func liveFromStatus(status string) fixture.Indicator {
	switch fixture.ClassifyStatus(status) {
	case fixture.ClassLive:
		return fixture.Definite(true)
	case fixture.ClassCompleted, fixture.ClassScheduled, fixture.ClassCancelled:
		return fixture.Definite(false)
	default:
		return fixture.Unknown
	}
}

func matchesPair(a, b, home, away string) bool {
	if SameTeamName(a, home) && SameTeamName(b, away) {
		return true
	}
	return SameTeamName(a, away) && SameTeamName(b, home)
}

// SameTeamName compares team names loosely: case, punctuation and spacing
// are ignored, and a nickname matches the full name that contains it.
func SameTeamName(a, b string) bool {
	left, right := foldName(a), foldName(b)
	if left == "" || right == "" {
		return false
	}
	if left == right {
		return true
	}
	return strings.Contains(left, right) || strings.Contains(right, left)
}

func foldName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
