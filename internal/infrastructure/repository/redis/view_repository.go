package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	goredis "github.com/redis/go-redis/v9"
	"github.com/riskibarqy/cebl-gameday/internal/domain/gameview"
)

const (
	defaultKeyPrefix = "gameday"
	defaultViewTTL   = 15 * time.Minute
)

// ViewRepository stores the latest view per team as JSON with a TTL, plus a
// set indexing the team ids that have a view.
type ViewRepository struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewViewRepository(client goredis.UniversalClient, prefix string, ttl time.Duration) *ViewRepository {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	return &ViewRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *ViewRepository) Save(ctx context.Context, view gameview.View) error {
	teamID := strings.TrimSpace(view.TeamID)
	if teamID == "" {
		return nil
	}

	data, err := encodeView(view)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.viewKey(teamID), data, r.ttl)
	pipe.SAdd(ctx, r.indexKey(), teamID)
	pipe.Expire(ctx, r.indexKey(), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save view team=%s: %w", teamID, err)
	}
	return nil
}

func (r *ViewRepository) Get(ctx context.Context, teamID string) (gameview.View, bool, error) {
	teamID = strings.TrimSpace(teamID)
	data, err := r.client.Get(ctx, r.viewKey(teamID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return gameview.View{}, false, nil
	}
	if err != nil {
		return gameview.View{}, false, fmt.Errorf("get view team=%s: %w", teamID, err)
	}

	view, err := decodeView(data)
	if err != nil {
		return gameview.View{}, false, err
	}
	return view, true, nil
}

func (r *ViewRepository) List(ctx context.Context) ([]gameview.View, error) {
	teamIDs, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list view index: %w", err)
	}
	if len(teamIDs) == 0 {
		return []gameview.View{}, nil
	}
	sort.Strings(teamIDs)

	keys := make([]string, 0, len(teamIDs))
	for _, teamID := range teamIDs {
		keys = append(keys, r.viewKey(teamID))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}

	out := make([]gameview.View, 0, len(values))
	for _, raw := range values {
		text, ok := raw.(string)
		if !ok {
			// Expired between SMEMBERS and MGET.
			continue
		}
		view, err := decodeView([]byte(text))
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (r *ViewRepository) viewKey(teamID string) string {
	return r.prefix + ":view:" + teamID
}

func (r *ViewRepository) indexKey() string {
	return r.prefix + ":views"
}

func encodeView(view gameview.View) ([]byte, error) {
	data, err := sonic.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("encode view team=%s: %w", view.TeamID, err)
	}
	return data, nil
}

func decodeView(data []byte) (gameview.View, error) {
	var view gameview.View
	if err := sonic.Unmarshal(data, &view); err != nil {
		return gameview.View{}, fmt.Errorf("decode view: %w", err)
	}
	return view, nil
}
