package fixture

import "testing"

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]StatusClass{
		"SCHEDULED":   ClassScheduled,
		" scheduled ": ClassScheduled,
		"not started": ClassScheduled,
		"LIVE":        ClassLive,
		"in":          ClassLive,
		"In-Progress": ClassLive,
		"HALFTIME":    ClassLive,
		"HT":          ClassLive,
		"COMPLETE":    ClassCompleted,
		"Final":       ClassCompleted,
		"FT":          ClassCompleted,
		"postponed":   ClassCancelled,
		"":            ClassUnknown,
		"weird":       ClassUnknown,
	}
	for raw, want := range cases {
		if got := ClassifyStatus(raw); got != want {
			t.Fatalf("unexpected class for %q: got=%s want=%s", raw, got, want)
		}
	}
}

func TestFixture_InvolvesComparesAsStrings(t *testing.T) {
	t.Parallel()

	item := Fixture{HomeTeam: TeamRef{ID: "12"}, AwayTeam: TeamRef{ID: " 7 "}}
	if !item.Involves("12") || !item.Involves("7") {
		t.Fatalf("expected both sides to match")
	}
	if item.Involves("1") || item.Involves("") {
		t.Fatalf("unexpected match for unrelated id")
	}

	team, opponent := item.Sides("7")
	if team.ID != " 7 " || opponent.ID != "12" {
		t.Fatalf("unexpected sides: team=%q opponent=%q", team.ID, opponent.ID)
	}
}

func TestFixture_HasValidSides(t *testing.T) {
	t.Parallel()

	if (Fixture{HomeTeam: TeamRef{ID: "1"}, AwayTeam: TeamRef{ID: "1"}}).HasValidSides() {
		t.Fatalf("identical team ids must be invalid")
	}
	if (Fixture{HomeTeam: TeamRef{ID: "1"}}).HasValidSides() {
		t.Fatalf("missing away id must be invalid")
	}
	if !(Fixture{HomeTeam: TeamRef{ID: "1"}, AwayTeam: TeamRef{ID: "2"}}).HasValidSides() {
		t.Fatalf("distinct ids must be valid")
	}
}

func TestParseIndicator(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  any
		want Indicator
	}{
		{raw: nil, want: Unknown},
		{raw: true, want: Definite(true)},
		{raw: float64(1), want: Definite(true)},
		{raw: float64(0), want: Definite(false)},
		{raw: "1", want: Definite(true)},
		{raw: "false", want: Definite(false)},
		{raw: float64(3), want: Unknown},
		{raw: "maybe", want: Unknown},
	}
	for _, tc := range cases {
		if got := ParseIndicator(tc.raw); got != tc.want {
			t.Fatalf("unexpected indicator for %#v: got=%s want=%s", tc.raw, got, tc.want)
		}
	}
}
