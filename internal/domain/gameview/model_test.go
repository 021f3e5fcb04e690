package gameview

import (
	"testing"
	"time"
)

func TestSameState_IgnoresTimingCounters(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	first := View{TeamID: "12", Lifecycle: LifecyclePre, DataSource: SourceFixtureOnly, ComputedAt: now}
	secs := int64(600)
	first.SecondsUntilStart = &secs
	first.HumanTimeUntilStart = "In 10 minutes"

	second := first
	later := int64(570)
	second.SecondsUntilStart = &later
	second.HumanTimeUntilStart = "In 9 minutes"
	second.ComputedAt = now.Add(30 * time.Second)

	if !SameState(first, second) {
		t.Fatalf("expected timing-only change to be ignored")
	}

	second.TeamScore = 2
	if SameState(first, second) {
		t.Fatalf("expected score change to be detected")
	}
}

func TestNone(t *testing.T) {
	t.Parallel()

	view := None("7", time.Unix(0, 0))
	if view.Lifecycle != LifecycleNone || view.DataSource != SourceNone || view.TeamID != "7" {
		t.Fatalf("unexpected none view: %+v", view)
	}
}
