package cache

import (
	"context"

	"github.com/riskibarqy/cebl-gameday/internal/domain/fixture"
	basecache "github.com/riskibarqy/cebl-gameday/internal/platform/cache"
)

const teamListKey = "team:list"

// FixtureSource caches the team listing of the wrapped source. Fixture polls
// always go through to the upstream feed.
type FixtureSource struct {
	next  fixture.Source
	teams *basecache.Store[[]fixture.TeamRef]
}

func NewFixtureSource(next fixture.Source, teams *basecache.Store[[]fixture.TeamRef]) *FixtureSource {
	return &FixtureSource{next: next, teams: teams}
}

func (s *FixtureSource) FetchFixtures(ctx context.Context, teamIDs []string) (fixture.FetchResult, error) {
	return s.next.FetchFixtures(ctx, teamIDs)
}

func (s *FixtureSource) ListTeams(ctx context.Context) ([]fixture.TeamRef, error) {
	items, err := s.teams.GetOrLoad(ctx, teamListKey, func(ctx context.Context) ([]fixture.TeamRef, error) {
		items, err := s.next.ListTeams(ctx)
		if err != nil {
			return nil, err
		}
		return append([]fixture.TeamRef(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]fixture.TeamRef(nil), items...), nil
}

// InvalidateTeams drops the cached listing.
func (s *FixtureSource) InvalidateTeams(ctx context.Context) {
	s.teams.Delete(ctx, teamListKey)
}
