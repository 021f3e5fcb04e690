package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/riskibarqy/cebl-gameday/internal/domain/fixture"
)

type FixtureRepository struct {
	mu       sync.RWMutex
	fixtures []fixture.Fixture
	byTeam   map[string][]fixture.Fixture
}

func NewFixtureRepository(fixtures []fixture.Fixture) *FixtureRepository {
	repo := &FixtureRepository{}
	repo.index(fixtures)
	return repo
}

// ReplaceAll swaps the whole fixture set in one step.
func (r *FixtureRepository) ReplaceAll(_ context.Context, items []fixture.Fixture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index(items)
	return nil
}

func (r *FixtureRepository) ListByTeam(_ context.Context, teamID string) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.byTeam[strings.TrimSpace(teamID)]
	out := make([]fixture.Fixture, 0, len(items))
	out = append(out, items...)
	return out, nil
}

func (r *FixtureRepository) ListAll(_ context.Context) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0, len(r.fixtures))
	out = append(out, r.fixtures...)
	return out, nil
}

func (r *FixtureRepository) index(items []fixture.Fixture) {
	r.fixtures = append([]fixture.Fixture(nil), items...)
	r.byTeam = make(map[string][]fixture.Fixture)
	for _, item := range r.fixtures {
		home := strings.TrimSpace(item.HomeTeam.ID)
		away := strings.TrimSpace(item.AwayTeam.ID)
		if home != "" {
			r.byTeam[home] = append(r.byTeam[home], item)
		}
		if away != "" && away != home {
			r.byTeam[away] = append(r.byTeam[away], item)
		}
	}
}
