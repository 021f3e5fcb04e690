package redis

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"github.com/riskibarqy/cebl-gameday/internal/domain/gameview"
)

const (
	defaultStreamKey    = "gameday.updates"
	defaultStreamMaxLen = 1000
)

// StreamPublisher appends every changed view to a Redis stream so other
// consumers can follow game state without polling the API.
type StreamPublisher struct {
	client goredis.UniversalClient
	stream string
	maxLen int64
}

// NewStreamPublisher trims the stream to roughly maxLen entries; a
// non-positive maxLen uses the default.
func NewStreamPublisher(client goredis.UniversalClient, stream string, maxLen int64) *StreamPublisher {
	stream = strings.TrimSpace(stream)
	if stream == "" {
		stream = defaultStreamKey
	}
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *StreamPublisher) Publish(ctx context.Context, view gameview.View) error {
	values, err := streamValues(view)
	if err != nil {
		return err
	}

	err = p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("publish view team=%s: %w", view.TeamID, err)
	}
	return nil
}

func streamValues(view gameview.View) (map[string]interface{}, error) {
	data, err := encodeView(view)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"data":      string(data),
		"team_id":   view.TeamID,
		"lifecycle": string(view.Lifecycle),
		"is_live":   view.IsLive,
	}, nil
}
