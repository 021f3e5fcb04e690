package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/cebl-gameday/internal/domain/gameview"
)

type ViewRepository struct {
	mu    sync.RWMutex
	views map[string]gameview.View
}

func NewViewRepository() *ViewRepository {
	return &ViewRepository{views: make(map[string]gameview.View)}
}

func (r *ViewRepository) Save(_ context.Context, view gameview.View) error {
	teamID := strings.TrimSpace(view.TeamID)
	if teamID == "" {
		return nil
	}

	r.mu.Lock()
	r.views[teamID] = view
	r.mu.Unlock()
	return nil
}

func (r *ViewRepository) Get(_ context.Context, teamID string) (gameview.View, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	view, ok := r.views[strings.TrimSpace(teamID)]
	return view, ok, nil
}

func (r *ViewRepository) List(_ context.Context) ([]gameview.View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]gameview.View, 0, len(r.views))
	for _, view := range r.views {
		out = append(out, view)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}
