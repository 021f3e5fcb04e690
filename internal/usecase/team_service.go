package usecase

import (
	"context"
	"fmt"
	"slices"

	"github.com/riskibarqy/cebl-gameday/internal/domain/fixture"
)

// TeamOption is one selectable team in the settings flow.
type TeamOption struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
	Tracked bool   `json:"tracked"`
}

type TeamService struct {
	source  fixture.Source
	tracked []string
}

func NewTeamService(source fixture.Source, trackedTeamIDs []string) *TeamService {
	return &TeamService{
		source:  source,
		tracked: normalizeTeamIDs(trackedTeamIDs),
	}
}

// ListTeams returns every team in the fixture feed, marking the tracked ones.
func (s *TeamService) ListTeams(ctx context.Context) ([]TeamOption, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.ListTeams")
	defer span.End()

	teams, err := s.source.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	out := make([]TeamOption, 0, len(teams))
	for _, item := range teams {
		out = append(out, TeamOption{
			ID:      item.ID,
			Name:    item.Name,
			LogoURL: item.LogoURL,
			Tracked: slices.Contains(s.tracked, item.ID),
		})
	}
	return out, nil
}
