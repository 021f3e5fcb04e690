package fibalive

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/riskibarqy/cebl-gameday/internal/domain/fixture"
	"github.com/riskibarqy/cebl-gameday/internal/domain/livescore"
	"github.com/riskibarqy/cebl-gameday/internal/platform/payload"
)

// shapeAdapter recognizes one live payload layout.
type shapeAdapter struct {
	name   string
	detect func(doc any) bool
	parse  func(doc any) livescore.Snapshot
}

var shapes = []shapeAdapter{
	{name: livescore.ShapeTeamIndexed, detect: isTeamIndexed, parse: parseTeamIndexed},
	{name: livescore.ShapeFlatTeam, detect: isFlatTeam, parse: parseFlatTeam},
	{name: livescore.ShapeEmbeddedFixture, detect: isEmbeddedFixture, parse: parseEmbeddedFixture},
}

// Normalize converts a decoded live payload into a snapshot. It reports false
// only for empty documents; unrecognized shapes yield livescore.Empty.
func Normalize(doc any) (livescore.Snapshot, bool) {
	if isEmptyDocument(doc) {
		return livescore.Snapshot{}, false
	}
	for _, shape := range shapes {
		if shape.detect(doc) {
			snap := shape.parse(doc)
			snap.Shape = shape.name
			return snap, true
		}
	}
	return livescore.Empty(), true
}

func isEmptyDocument(doc any) bool {
	switch typed := doc.(type) {
	case nil:
		return true
	case map[string]any:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	default:
		return true
	}
}

// team-indexed: {"tm": {"1": {...}, "2": {...}}, "clock": "..", "period": 2}

func teamBlocks(doc any) (map[string]any, map[string]any, map[string]any) {
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, nil, nil
	}
	container := root
	if tm, ok := root["tm"].(map[string]any); ok {
		container = tm
	}
	a, okA := container["1"].(map[string]any)
	b, okB := container["2"].(map[string]any)
	if !okA || !okB {
		return root, nil, nil
	}
	return root, a, b
}

func isTeamIndexed(doc any) bool {
	_, a, b := teamBlocks(doc)
	return a != nil && b != nil
}

func parseTeamIndexed(doc any) livescore.Snapshot {
	root, a, b := teamBlocks(doc)
	snap := livescore.Snapshot{
		TeamAScore:  payload.IntOrZero(a, "score", "tot_sPoints", "full_score"),
		TeamBScore:  payload.IntOrZero(b, "score", "tot_sPoints", "full_score"),
		TeamAName:   payload.String(a, "name", "nameInternational", "shortName", "code"),
		TeamBName:   payload.String(b, "name", "nameInternational", "shortName", "code"),
		TeamAStats:  scalarFields(a, "name", "nameInternational", "shortName", "code", "score"),
		TeamBStats:  scalarFields(b, "name", "nameInternational", "shortName", "code", "score"),
		TeamARoster: rosterFromMap(a["pl"]),
		TeamBRoster: rosterFromMap(b["pl"]),
	}
	applyGameState(&snap, root,
		[]string{"clock", "gameClock"},
		[]string{"period", "currentPeriod"},
		[]string{"periodType", "period_type"},
		[]string{"inOT", "in_overtime", "inOvertime"},
		[]string{"live", "inProgress", "isLive"},
	)
	return snap
}

// flat-team: [{"team1_name": "..", "team1_score": 70, "team2_...": ..}]

func flatRecord(doc any) map[string]any {
	switch typed := doc.(type) {
	case []any:
		if len(typed) == 0 {
			return nil
		}
		obj, _ := typed[0].(map[string]any)
		return obj
	case map[string]any:
		return typed
	}
	return nil
}

func isFlatTeam(doc any) bool {
	record := flatRecord(doc)
	if record == nil {
		return false
	}
	for key := range record {
		if strings.HasPrefix(key, "team1_") {
			return true
		}
	}
	return false
}

func parseFlatTeam(doc any) livescore.Snapshot {
	record := flatRecord(doc)
	snap := livescore.Snapshot{
		TeamAScore:  payload.IntOrZero(record, "team1_score", "team1_points"),
		TeamBScore:  payload.IntOrZero(record, "team2_score", "team2_points"),
		TeamAName:   payload.String(record, "team1_name", "team1_short_name"),
		TeamBName:   payload.String(record, "team2_name", "team2_short_name"),
		TeamAStats:  prefixedFields(record, "team1_", "name", "short_name", "score", "points", "players"),
		TeamBStats:  prefixedFields(record, "team2_", "name", "short_name", "score", "points", "players"),
		TeamARoster: rosterFromList(record["team1_players"]),
		TeamBRoster: rosterFromList(record["team2_players"]),
	}
	applyGameState(&snap, record,
		[]string{"clock", "game_clock"},
		[]string{"period", "current_period"},
		[]string{"period_type", "periodType"},
		[]string{"in_overtime", "inOT"},
		[]string{"live", "is_live", "in_progress"},
	)
	return snap
}

// embedded-fixture: [{"homename": "..", "homescore": 70, "matchStatus": "IN_PROGRESS", ...}]

func embeddedRecords(doc any) []map[string]any {
	switch typed := doc.(type) {
	case []any:
		return payload.ObjectsOf(typed)
	case map[string]any:
		if items := payload.Objects(typed, "matches", "games", "fixtures"); len(items) > 0 {
			return items
		}
		return []map[string]any{typed}
	}
	return nil
}

var embeddedMarkers = []string{"homescore", "awayscore", "matchStatus", "homeTeam.id", "homeTeam.name", "home_score", "live"}

func isEmbeddedFixture(doc any) bool {
	records := embeddedRecords(doc)
	if len(records) == 0 {
		return false
	}
	_, ok := payload.First(records[0], embeddedMarkers...)
	return ok
}

func parseEmbeddedFixture(doc any) livescore.Snapshot {
	records := embeddedRecords(doc)
	primary := records[0]
	snap := livescore.Snapshot{
		TeamAScore: payload.IntOrZero(primary, "homescore", "home_score", "homeTeam.score"),
		TeamBScore: payload.IntOrZero(primary, "awayscore", "away_score", "awayTeam.score"),
		TeamAName:  payload.String(primary, "homename", "home_name", "homeTeam.name"),
		TeamBName:  payload.String(primary, "awayname", "away_name", "awayTeam.name"),
	}
	applyGameState(&snap, primary,
		[]string{"clock"},
		[]string{"period"},
		[]string{"periodType", "period_type"},
		[]string{"inOT", "in_overtime"},
		[]string{"live", "isLive"},
	)
	if !snap.Live.Known() {
		switch fixture.ClassifyStatus(payload.String(primary, "matchStatus", "status")) {
		case fixture.ClassLive:
			snap.Live = fixture.Definite(true)
		case fixture.ClassCompleted:
			snap.Live = fixture.Definite(false)
		}
	}
	for _, record := range records[1:] {
		snap.OtherMatches = append(snap.OtherMatches, livescore.MatchSummary{
			HomeName:  payload.String(record, "homename", "home_name", "homeTeam.name"),
			AwayName:  payload.String(record, "awayname", "away_name", "awayTeam.name"),
			HomeScore: payload.IntOrZero(record, "homescore", "home_score", "homeTeam.score"),
			AwayScore: payload.IntOrZero(record, "awayscore", "away_score", "awayTeam.score"),
			Status:    payload.String(record, "matchStatus", "status"),
			Period:    payload.IntOrZero(record, "period"),
			Clock:     payload.String(record, "clock"),
		})
	}
	return snap
}

func applyGameState(snap *livescore.Snapshot, src map[string]any, clock, period, periodType, overtime, live []string) {
	snap.Clock = payload.String(src, clock...)
	if n, ok := payload.Int(src, period...); ok && n > 0 {
		snap.Period = n
	}
	snap.PeriodType = parsePeriodType(payload.String(src, periodType...))
	if inOT, ok := payload.Bool(src, overtime...); ok {
		snap.InOvertime = inOT
	}
	if raw, ok := payload.First(src, live...); ok {
		snap.Live = fixture.ParseIndicator(raw)
	}
}

func parsePeriodType(raw string) livescore.PeriodType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "OVERTIME", "OT", "EXTRA", "EXTRATIME":
		return livescore.PeriodOvertime
	case "REGULAR", "QUARTER", "PERIOD", "HALF":
		return livescore.PeriodRegular
	default:
		return livescore.PeriodUnknown
	}
}

// scalarFields copies non-nested values, skipping the identity keys.
func scalarFields(src map[string]any, skip ...string) map[string]any {
	if len(src) == 0 {
		return nil
	}
	skipped := make(map[string]struct{}, len(skip))
	for _, key := range skip {
		skipped[key] = struct{}{}
	}
	out := make(map[string]any, len(src))
	for key, value := range src {
		if _, ok := skipped[key]; ok {
			continue
		}
		switch value.(type) {
		case map[string]any, []any, nil:
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func prefixedFields(src map[string]any, prefix string, skip ...string) map[string]any {
	out := make(map[string]any)
	for key, value := range src {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.TrimPrefix(key, prefix)
		if slices.Contains(skip, name) {
			continue
		}
		switch value.(type) {
		case map[string]any, []any, nil:
			continue
		}
		out[name] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var playerIdentityKeys = []string{"name", "firstName", "familyName", "scoreboardName", "shirtNumber", "number", "jersey"}

func playerLine(src map[string]any) livescore.PlayerLine {
	name := payload.String(src, "name", "scoreboardName")
	if name == "" {
		name = strings.TrimSpace(payload.String(src, "firstName") + " " + payload.String(src, "familyName"))
	}
	return livescore.PlayerLine{
		Name:   name,
		Number: payload.String(src, "shirtNumber", "number", "jersey"),
		Stats:  scalarFields(src, playerIdentityKeys...),
	}
}

// rosterFromMap reads the {"1": {...}, "2": {...}} player map in key order.
func rosterFromMap(raw any) []livescore.PlayerLine {
	players, ok := raw.(map[string]any)
	if !ok || len(players) == 0 {
		return nil
	}
	keys := make([]string, 0, len(players))
	for key := range players {
		keys = append(keys, key)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ni, errI := strconv.Atoi(keys[i])
		nj, errJ := strconv.Atoi(keys[j])
		if errI == nil && errJ == nil {
			return ni < nj
		}
		return keys[i] < keys[j]
	})

	out := make([]livescore.PlayerLine, 0, len(keys))
	for _, key := range keys {
		if obj, ok := players[key].(map[string]any); ok {
			out = append(out, playerLine(obj))
		}
	}
	return out
}

func rosterFromList(raw any) []livescore.PlayerLine {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]livescore.PlayerLine, 0, len(items))
	for _, obj := range payload.ObjectsOf(items) {
		out = append(out, playerLine(obj))
	}
	return out
}
