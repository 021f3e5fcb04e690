package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/cebl-gameday/internal/domain/gameview"
	"github.com/riskibarqy/cebl-gameday/internal/interfaces/display"
	"github.com/riskibarqy/cebl-gameday/internal/platform/logging"
	"github.com/riskibarqy/cebl-gameday/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJobToken = "job-secret"

type fakeTracker struct {
	views      map[string]gameview.View
	order      []string
	loaded     bool
	refreshErr error
	refreshed  []string
}

func (f *fakeTracker) Views(context.Context) ([]gameview.View, error) {
	out := make([]gameview.View, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.views[id])
	}
	return out, nil
}

func (f *fakeTracker) View(_ context.Context, teamID string) (gameview.View, error) {
	view, ok := f.views[teamID]
	if !ok {
		return gameview.View{}, fmt.Errorf("%w: team=%s is not tracked", usecase.ErrNotFound, teamID)
	}
	return view, nil
}

func (f *fakeTracker) Scoreboard(ctx context.Context) (usecase.Scoreboard, error) {
	views, _ := f.Views(ctx)
	return usecase.Scoreboard{Games: views}, nil
}

func (f *fakeTracker) Status() usecase.TrackerStatus {
	return usecase.TrackerStatus{FixturesLoaded: f.loaded, TeamIDs: f.order}
}

func (f *fakeTracker) Refresh(_ context.Context, target string) error {
	f.refreshed = append(f.refreshed, target)
	return f.refreshErr
}

type fakeTeams struct{}

func (fakeTeams) ListTeams(context.Context) ([]usecase.TeamOption, error) {
	return []usecase.TeamOption{
		{ID: "12", Name: "Calgary Surge", Tracked: true},
		{ID: "7", Name: "Edmonton Stingers"},
	}, nil
}

func newTestRouter(tracker *fakeTracker) http.Handler {
	handler := NewHandler(tracker, fakeTeams{}, nil, display.NewRenderer(time.UTC), logging.NewNop())
	return NewRouter(handler, logging.NewNop(), nil, testJobToken)
}

func newTestTracker(loaded bool) *fakeTracker {
	now := time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)
	return &fakeTracker{
		views: map[string]gameview.View{
			"12": {
				TeamID:        "12",
				Lifecycle:     gameview.LifecycleIn,
				IsLive:        true,
				Team:          gameview.Side{ID: "12", Name: "Calgary Surge"},
				Opponent:      gameview.Side{ID: "7", Name: "Edmonton Stingers"},
				IsHome:        true,
				TeamScore:     61,
				OpponentScore: 58,
				Period:        3,
				Clock:         "04:12",
				DataSource:    gameview.SourceLive,
				ComputedAt:    now,
			},
		},
		order:  []string{"12"},
		loaded: loaded,
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandler_GetGame(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestTracker(true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/games/12", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	data, ok := body.Data.(map[string]any)
	require.True(t, ok, "expected object data, got %T", body.Data)
	assert.Equal(t, "IN", data["state"])

	attrs, ok := data["attributes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Edmonton Stingers", attrs["opponent_name"])
	assert.EqualValues(t, 61, attrs["team_score"])
}

func TestHandler_GetGameUntrackedIsNotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestTracker(true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/games/99", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, http.StatusNotFound, body.Error.Code)
	assert.Equal(t, "NOT_FOUND", body.Error.Status)
}

func TestHandler_GetGameWithoutFixtureRendersNoUpcomingGame(t *testing.T) {
	t.Parallel()

	tracker := newTestTracker(true)
	tracker.views["7"] = gameview.None("7", time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC))
	tracker.order = append(tracker.order, "7")
	router := newTestRouter(tracker)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/games/7", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	data, ok := decodeEnvelope(t, rec).Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, display.StateNoUpcomingGame, data["state"])

	attrs, ok := data["attributes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "NONE", attrs["lifecycle_state"])
	assert.NotContains(t, attrs, "opponent_name")
}

func TestHandler_GetStatusRequiresToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestTracker(true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/internal/status", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/internal/status", nil)
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	data, ok := decodeEnvelope(t, rec).Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["fixtures_loaded"])
}

func TestHandler_ListGamesBeforeFirstFetch(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestTracker(false))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/games", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	items, ok := decodeEnvelope(t, rec).Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, display.StateNoGameData, items[0].(map[string]any)["state"])
}

func TestHandler_ListTeams(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestTracker(true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/teams", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	items, ok := decodeEnvelope(t, rec).Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, true, items[0].(map[string]any)["tracked"])
}

func TestHandler_RunRefresh(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		token      string
		body       string
		wantStatus int
		wantTarget string
	}{
		{name: "missing token", body: `{"target":"live"}`, wantStatus: http.StatusUnauthorized},
		{name: "empty body refreshes all", token: testJobToken, wantStatus: http.StatusOK, wantTarget: usecase.RefreshTargetAll},
		{name: "live target", token: testJobToken, body: `{"target":"LIVE"}`, wantStatus: http.StatusOK, wantTarget: usecase.RefreshTargetLive},
		{name: "unknown target", token: testJobToken, body: `{"target":"standings"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", token: testJobToken, body: `{"target":"live","force":true}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tracker := newTestTracker(true)
			router := newTestRouter(tracker)

			req := httptest.NewRequest(http.MethodPost, "/v1/internal/refresh", strings.NewReader(tt.body))
			if tt.token != "" {
				req.Header.Set("X-Internal-Job-Token", tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantTarget == "" {
				if len(tracker.refreshed) != 0 {
					t.Fatalf("expected no refresh, got %v", tracker.refreshed)
				}
				return
			}
			if len(tracker.refreshed) != 1 || tracker.refreshed[0] != tt.wantTarget {
				t.Fatalf("expected refresh of %q, got %v", tt.wantTarget, tracker.refreshed)
			}
		})
	}
}

func TestHandler_RunRefreshFetchFailure(t *testing.T) {
	t.Parallel()

	tracker := newTestTracker(true)
	tracker.refreshErr = fmt.Errorf("refresh fixtures: %w", usecase.ErrFetchFailed)
	router := newTestRouter(tracker)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/refresh", strings.NewReader(`{"target":"fixtures"}`))
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandler_StreamNotConfigured(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestTracker(true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stream", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
