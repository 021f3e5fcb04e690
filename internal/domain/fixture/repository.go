package fixture

import "context"

// FetchResult is the outcome of one fixtures poll. Degraded marks a transient
// upstream failure or an unrecognized payload; Fixtures is empty in that case.
type FetchResult struct {
	Fixtures    []Fixture
	LookupKeys  map[string]string
	Degraded    bool
	DegradedWhy string
}

// Source fetches fixtures from the schedule endpoint.
type Source interface {
	FetchFixtures(ctx context.Context, teamIDs []string) (FetchResult, error)
	ListTeams(ctx context.Context) ([]TeamRef, error)
}

// Repository keeps the last known fixture set.
type Repository interface {
	ReplaceAll(ctx context.Context, items []Fixture) error
	ListByTeam(ctx context.Context, teamID string) ([]Fixture, error)
	ListAll(ctx context.Context) ([]Fixture, error)
}
