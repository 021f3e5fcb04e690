package usecase

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/cebl-gameday/internal/domain/fixture"
	"github.com/riskibarqy/cebl-gameday/internal/domain/gameview"
	"github.com/riskibarqy/cebl-gameday/internal/domain/livescore"
	"github.com/riskibarqy/cebl-gameday/internal/platform/cache"
	"github.com/riskibarqy/cebl-gameday/internal/platform/logging"
	"github.com/riskibarqy/cebl-gameday/internal/platform/resilience"
	"github.com/sourcegraph/conc/pool"
)

const (
	RefreshTargetFixtures = "fixtures"
	RefreshTargetLive     = "live"
	RefreshTargetAll      = "all"

	defaultLiveConcurrency = 4
	defaultSnapshotTTL     = 3 * time.Minute

	guardFixtures = "fixtures"
	guardLive     = "live"
)

// LivePoller switches the fast live cadence on and off.
type LivePoller interface {
	SetLivePolling(ctx context.Context, enabled bool)
}

type TrackerConfig struct {
	TeamIDs         []string
	CompletionGrace time.Duration
	SnapshotTTL     time.Duration
	LiveConcurrency int
}

// TrackerStatus is the poller diagnostic block exposed to operators.
type TrackerStatus struct {
	TeamIDs            []string          `json:"team_ids"`
	FixturesLoaded     bool              `json:"fixtures_loaded"`
	FixturesAvailable  bool              `json:"fixtures_available"`
	Degraded           bool              `json:"degraded"`
	DegradedReason     string            `json:"degraded_reason,omitempty"`
	LastError          string            `json:"last_error,omitempty"`
	LastFixtureRefresh time.Time         `json:"last_fixture_refresh"`
	LastLiveRefresh    time.Time         `json:"last_live_refresh"`
	LookupKeys         map[string]string `json:"lookup_keys"`
	LivePolling        bool              `json:"live_polling"`
	FixtureCount       int               `json:"fixture_count"`
	CachedSnapshots    int               `json:"cached_snapshots"`
}

// Scoreboard is the league-wide view: every tracked team plus sibling
// matches reported by the live feed.
type Scoreboard struct {
	Games        []gameview.View          `json:"games"`
	OtherMatches []livescore.MatchSummary `json:"other_matches"`
	ComputedAt   time.Time                `json:"computed_at"`
}

type TrackerService struct {
	cfg         TrackerConfig
	fixtures    fixture.Source
	live        livescore.Source
	fixtureRepo fixture.Repository
	viewRepo    gameview.Repository
	notifier    *Notifier
	poller      LivePoller
	snapshots   *cache.Store[livescore.Snapshot]
	guard       resilience.InFlight
	logger      *logging.Logger
	now         func() time.Time

	mu     sync.RWMutex
	views  map[string]gameview.View
	status TrackerStatus

	// pollMu orders poll switch decisions with their SetLivePolling calls.
	pollMu sync.Mutex
}

func NewTrackerService(
	cfg TrackerConfig,
	fixtures fixture.Source,
	live livescore.Source,
	fixtureRepo fixture.Repository,
	viewRepo gameview.Repository,
	notifier *Notifier,
	logger *logging.Logger,
) *TrackerService {
	if logger == nil {
		logger = logging.Default()
	}
	cfg.TeamIDs = normalizeTeamIDs(cfg.TeamIDs)
	cfg.CompletionGrace = NormalizeCompletionGrace(cfg.CompletionGrace)
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = defaultSnapshotTTL
	}
	if cfg.LiveConcurrency <= 0 {
		cfg.LiveConcurrency = defaultLiveConcurrency
	}

	return &TrackerService{
		cfg:         cfg,
		fixtures:    fixtures,
		live:        live,
		fixtureRepo: fixtureRepo,
		viewRepo:    viewRepo,
		notifier:    notifier,
		snapshots:   cache.NewStore[livescore.Snapshot](cfg.SnapshotTTL),
		logger:      logger,
		now:         time.Now,
		views:       make(map[string]gameview.View, len(cfg.TeamIDs)),
		status: TrackerStatus{
			TeamIDs:           append([]string(nil), cfg.TeamIDs...),
			FixturesAvailable: true,
			LookupKeys:        map[string]string{},
		},
	}
}

// SetLivePoller attaches the fast-cadence switch. The scheduler and the
// tracker reference each other, so this is wired after construction.
func (s *TrackerService) SetLivePoller(poller LivePoller) {
	s.mu.Lock()
	s.poller = poller
	s.mu.Unlock()
}

func (s *TrackerService) TeamIDs() []string {
	return append([]string(nil), s.cfg.TeamIDs...)
}

// Refresh runs one of the poll callbacks on demand.
func (s *TrackerService) Refresh(ctx context.Context, target string) error {
	switch strings.ToLower(strings.TrimSpace(target)) {
	case RefreshTargetFixtures:
		return s.RefreshFixtures(ctx)
	case RefreshTargetLive:
		return s.RefreshLive(ctx)
	case "", RefreshTargetAll:
		return s.RefreshFixtures(ctx)
	default:
		return fmt.Errorf("%w: unknown refresh target %q", ErrInvalidInput, target)
	}
}

// RefreshFixtures is the slow-cadence callback. A degraded fetch keeps the
// previous fixtures; a hard failure marks the source unavailable and keeps
// the previous views.
func (s *TrackerService) RefreshFixtures(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TrackerService.RefreshFixtures")
	defer span.End()

	release, ok := s.guard.TryAcquire(guardFixtures)
	if !ok {
		s.logger.DebugContext(ctx, "fixture refresh skipped: previous run still in flight")
		return nil
	}
	defer release()

	result, err := s.fixtures.FetchFixtures(ctx, s.cfg.TeamIDs)
	if err != nil {
		s.mu.Lock()
		s.status.FixturesAvailable = false
		s.status.LastError = err.Error()
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "fixture refresh failed", "error", err)
		return fmt.Errorf("refresh fixtures: %w", err)
	}

	if result.Degraded {
		s.logger.WarnContext(ctx, "fixture feed degraded, keeping previous fixtures", "reason", result.DegradedWhy)
	} else if err := s.fixtureRepo.ReplaceAll(ctx, result.Fixtures); err != nil {
		return fmt.Errorf("store fixtures: %w", err)
	}

	items, err := s.fixtureRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list fixtures: %w", err)
	}

	s.fetchLive(ctx, items)

	s.mu.Lock()
	s.status.FixturesAvailable = true
	s.status.LastError = ""
	s.status.Degraded = result.Degraded
	s.status.DegradedReason = result.DegradedWhy
	s.status.LastFixtureRefresh = s.now()
	s.status.FixtureCount = len(items)
	if !result.Degraded {
		s.status.FixturesLoaded = true
		s.status.LookupKeys = maps.Clone(result.LookupKeys)
		if s.status.LookupKeys == nil {
			s.status.LookupKeys = map[string]string{}
		}
	}
	s.mu.Unlock()

	return s.recompute(ctx, items)
}

// RefreshLive is the fast-cadence callback. It re-fetches live data for the
// gated fixtures of the last known fixture set.
func (s *TrackerService) RefreshLive(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TrackerService.RefreshLive")
	defer span.End()

	release, ok := s.guard.TryAcquire(guardLive)
	if !ok {
		s.logger.DebugContext(ctx, "live refresh skipped: previous run still in flight")
		return nil
	}
	defer release()

	items, err := s.fixtureRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list fixtures: %w", err)
	}

	s.fetchLive(ctx, items)

	s.mu.Lock()
	s.status.LastLiveRefresh = s.now()
	s.mu.Unlock()

	return s.recompute(ctx, items)
}

type liveFetchResult struct {
	key  string
	snap livescore.Snapshot
	ok   bool
}

// fetchLive requests snapshots for every gated lookup key. A key without a
// fresh result keeps its cached snapshot until the cache TTL expires.
func (s *TrackerService) fetchLive(ctx context.Context, items []fixture.Fixture) {
	if s.live == nil {
		return
	}

	now := s.now()
	seen := make(map[string]struct{})
	keys := make([]string, 0, len(items))
	for _, item := range items {
		if !ShouldFetchLive(item, now) {
			continue
		}
		key := strings.TrimSpace(item.MatchLookupKey)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return
	}

	p := pool.NewWithResults[liveFetchResult]().WithMaxGoroutines(s.cfg.LiveConcurrency)
	for _, key := range keys {
		p.Go(func() liveFetchResult {
			snap, ok := s.live.FetchSnapshot(ctx, key)
			return liveFetchResult{key: key, snap: snap, ok: ok}
		})
	}

	fetched := 0
	for _, res := range p.Wait() {
		if !res.ok {
			continue
		}
		if res.snap.Shape == livescore.ShapeUnknown {
			// Zeroed placeholders must not override fixture scores.
			s.logger.DebugContext(ctx, "live snapshot dropped", "match_lookup_key", res.key, "reason", "unrecognized_payload")
			continue
		}
		s.snapshots.Set(ctx, res.key, res.snap)
		fetched++
	}
	s.logger.DebugContext(ctx, "live snapshots refreshed", "requested", len(keys), "fetched", fetched)
}

func (s *TrackerService) recompute(ctx context.Context, items []fixture.Fixture) error {
	now := s.now()

	snapshots := make(map[string]livescore.Snapshot)
	for _, item := range items {
		key := strings.TrimSpace(item.MatchLookupKey)
		if key == "" {
			continue
		}
		if snap, ok := s.snapshots.Get(ctx, key); ok {
			snapshots[key] = snap
		}
	}

	views := make([]gameview.View, 0, len(s.cfg.TeamIDs))
	for _, teamID := range s.cfg.TeamIDs {
		views = append(views, BuildView(teamID, items, snapshots, now, s.cfg.CompletionGrace))
	}

	var saveErr error
	for _, view := range views {
		if err := s.viewRepo.Save(ctx, view); err != nil && saveErr == nil {
			saveErr = fmt.Errorf("save view team=%s: %w", view.TeamID, err)
		}
	}

	changed := make([]gameview.View, 0, len(views))

	s.mu.Lock()
	for _, view := range views {
		prev, had := s.views[view.TeamID]
		if !had || !gameview.SameState(prev, view) {
			changed = append(changed, view)
		}
		s.views[view.TeamID] = view
	}
	s.status.CachedSnapshots = s.snapshots.Len()
	s.mu.Unlock()

	for _, view := range changed {
		s.logger.InfoContext(ctx, "game view changed",
			"team_id", view.TeamID,
			"lifecycle", view.Lifecycle,
			"is_live", view.IsLive,
			"data_source", view.DataSource,
			"stale_reason", view.StaleReason,
		)
		s.notifier.Notify(ctx, view)
	}
	s.syncLivePolling(ctx)

	return saveErr
}

// Views returns one view per tracked team, in configuration order. Teams not
// yet computed are reported as NONE.
func (s *TrackerService) Views(ctx context.Context) ([]gameview.View, error) {
	out := make([]gameview.View, 0, len(s.cfg.TeamIDs))
	for _, teamID := range s.cfg.TeamIDs {
		view, err := s.lookupView(ctx, teamID)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *TrackerService) View(ctx context.Context, teamID string) (gameview.View, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return gameview.View{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if !slices.Contains(s.cfg.TeamIDs, teamID) {
		return gameview.View{}, fmt.Errorf("%w: team=%s is not tracked", ErrNotFound, teamID)
	}
	return s.lookupView(ctx, teamID)
}

func (s *TrackerService) Scoreboard(ctx context.Context) (Scoreboard, error) {
	views, err := s.Views(ctx)
	if err != nil {
		return Scoreboard{}, err
	}

	tracked := make(map[string]struct{}, len(views))
	for _, view := range views {
		if view.Team.Name != "" && view.Opponent.Name != "" {
			tracked[matchPairKey(view.Team.Name, view.Opponent.Name)] = struct{}{}
		}
	}

	others := make([]livescore.MatchSummary, 0)
	for _, view := range views {
		for _, match := range view.OtherMatches {
			key := matchPairKey(match.HomeName, match.AwayName)
			if _, dup := tracked[key]; dup {
				continue
			}
			tracked[key] = struct{}{}
			others = append(others, match)
		}
	}

	return Scoreboard{
		Games:        views,
		OtherMatches: others,
		ComputedAt:   s.now(),
	}, nil
}

func (s *TrackerService) Status() TrackerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.status
	out.TeamIDs = append([]string(nil), s.status.TeamIDs...)
	out.LookupKeys = maps.Clone(s.status.LookupKeys)
	return out
}

// syncLivePolling switches the fast cadence when the current views flip
// between having a live game and not. The decision reads the latest views
// and the poller call happens under pollMu, so concurrent refreshes cannot
// deliver switches out of order.
func (s *TrackerService) syncLivePolling(ctx context.Context) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	s.mu.Lock()
	anyLive := false
	for _, view := range s.views {
		if view.Lifecycle == gameview.LifecycleIn {
			anyLive = true
			break
		}
	}
	flipped := anyLive != s.status.LivePolling
	s.status.LivePolling = anyLive
	poller := s.poller
	s.mu.Unlock()

	if flipped && poller != nil {
		poller.SetLivePolling(ctx, anyLive)
	}
}

// lookupView serves the in-process view. The view store is write-through
// for other consumers and is never read back here.
func (s *TrackerService) lookupView(_ context.Context, teamID string) (gameview.View, error) {
	s.mu.RLock()
	view, ok := s.views[teamID]
	s.mu.RUnlock()
	if ok {
		return view, nil
	}
	return gameview.None(teamID, s.now()), nil
}

func normalizeTeamIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func matchPairKey(a, b string) string {
	pair := []string{strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))}
	sort.Strings(pair)
	return pair[0] + "|" + pair[1]
}
