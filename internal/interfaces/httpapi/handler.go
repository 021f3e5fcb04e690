package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/cebl-gameday/internal/domain/gameview"
	"github.com/riskibarqy/cebl-gameday/internal/interfaces/display"
	"github.com/riskibarqy/cebl-gameday/internal/platform/logging"
	"github.com/riskibarqy/cebl-gameday/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
)

const maxRequestBodyBytes = 1 << 16

var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

// GameTracker is the read and control surface of the tracker service.
type GameTracker interface {
	Views(ctx context.Context) ([]gameview.View, error)
	View(ctx context.Context, teamID string) (gameview.View, error)
	Scoreboard(ctx context.Context) (usecase.Scoreboard, error)
	Status() usecase.TrackerStatus
	Refresh(ctx context.Context, target string) error
}

type TeamLister interface {
	ListTeams(ctx context.Context) ([]usecase.TeamOption, error)
}

// StreamAcceptor upgrades a request into a push subscription.
type StreamAcceptor interface {
	Accept(w http.ResponseWriter, r *http.Request, initial []display.Entity) error
}

type Handler struct {
	tracker   GameTracker
	teams     TeamLister
	stream    StreamAcceptor
	renderer  *display.Renderer
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(
	tracker GameTracker,
	teams TeamLister,
	stream StreamAcceptor,
	renderer *display.Renderer,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if renderer == nil {
		renderer = display.NewRenderer(nil)
	}

	return &Handler{
		tracker:   tracker,
		teams:     teams,
		stream:    stream,
		renderer:  renderer,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	_, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	if h.teams == nil {
		writeError(ctx, w, fmt.Errorf("%w: team listing is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	teams, err := h.teams.ListTeams(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, team := range teams {
		items = append(items, teamDTO{
			ID:      team.ID,
			Name:    team.Name,
			LogoURL: team.LogoURL,
			Tracked: team.Tracked,
		})
	}
	writeSuccess(w, http.StatusOK, items)
}

func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGames")
	defer span.End()

	entities, err := h.renderAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list games failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(w, http.StatusOK, entities)
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGame")
	defer span.End()

	teamID := r.PathValue("teamID")
	span.SetAttributes(attribute.String("cebl.team_id", teamID))
	view, err := h.tracker.View(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get game failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(w, http.StatusOK, h.renderer.Render(view, h.tracker.Status().FixturesLoaded))
}

func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetScoreboard")
	defer span.End()

	board, err := h.tracker.Scoreboard(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get scoreboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	loaded := h.tracker.Status().FixturesLoaded
	writeSuccess(w, http.StatusOK, scoreboardDTO{
		Games:        h.renderer.RenderAll(board.Games, loaded),
		OtherMatches: board.OtherMatches,
		ComputedAt:   board.ComputedAt,
	})
}

func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Stream")
	defer span.End()

	if h.stream == nil {
		writeError(ctx, w, fmt.Errorf("%w: stream is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	entities, err := h.renderAll(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.stream.Accept(w, r, entities); err != nil {
		// The upgrader has already replied to the client.
		h.logger.WarnContext(ctx, "stream upgrade failed", "error", err)
	}
}

func (h *Handler) RunRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefresh")
	defer span.End()

	req, err := decodeRefreshRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	target := req.Target
	if target == "" {
		target = usecase.RefreshTargetAll
	}
	if err := h.tracker.Refresh(ctx, target); err != nil {
		h.logger.WarnContext(ctx, "manual refresh failed", "target", target, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, refreshResultDTO{
		Target: target,
		Status: h.tracker.Status(),
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	_, span := startSpan(r.Context(), "httpapi.Handler.GetStatus")
	defer span.End()

	writeSuccess(w, http.StatusOK, h.tracker.Status())
}

func (h *Handler) renderAll(ctx context.Context) ([]display.Entity, error) {
	views, err := h.tracker.Views(ctx)
	if err != nil {
		return nil, err
	}
	return h.renderer.RenderAll(views, h.tracker.Status().FixturesLoaded), nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

// decodeRefreshRequest accepts an empty body as a full refresh.
func decodeRefreshRequest(r *http.Request) (refreshRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return refreshRequest{}, fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return refreshRequest{}, nil
	}

	var req refreshRequest
	if err := strictJSON.Unmarshal(body, &req); err != nil {
		return refreshRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	req.Target = strings.ToLower(strings.TrimSpace(req.Target))
	return req, nil
}
