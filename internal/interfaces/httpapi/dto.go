package httpapi

import (
	"time"

	"github.com/riskibarqy/cebl-gameday/internal/domain/livescore"
	"github.com/riskibarqy/cebl-gameday/internal/interfaces/display"
	"github.com/riskibarqy/cebl-gameday/internal/usecase"
)

type refreshRequest struct {
	Target string `json:"target" validate:"omitempty,oneof=fixtures live all"`
}

type refreshResultDTO struct {
	Target string                `json:"target"`
	Status usecase.TrackerStatus `json:"status"`
}

type teamDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
	Tracked bool   `json:"tracked"`
}

type scoreboardDTO struct {
	Games        []display.Entity         `json:"games"`
	OtherMatches []livescore.MatchSummary `json:"other_matches"`
	ComputedAt   time.Time                `json:"computed_at"`
}
