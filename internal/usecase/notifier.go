package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/cebl-gameday/internal/domain/gameview"
	"github.com/riskibarqy/cebl-gameday/internal/platform/logging"
)

const defaultNotifyWorkers = 4

// Notifier fans changed views out to every registered publisher on a bounded
// worker pool. Publishing never blocks the tick that produced the view.
// Views of one team reach each publisher in the order they were notified.
type Notifier struct {
	pool       *ants.Pool
	publishers []gameview.Publisher
	logger     *logging.Logger
	inflight   sync.WaitGroup

	mu sync.Mutex
	// pending holds a key only while a drain task owns it.
	pending map[deliveryKey][]gameview.View
}

type deliveryKey struct {
	publisher int
	teamID    string
}

func NewNotifier(workers int, logger *logging.Logger, publishers ...gameview.Publisher) (*Notifier, error) {
	if workers <= 0 {
		workers = defaultNotifyWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("create notify pool: %w", err)
	}

	filtered := make([]gameview.Publisher, 0, len(publishers))
	for _, publisher := range publishers {
		if publisher != nil {
			filtered = append(filtered, publisher)
		}
	}

	return &Notifier{
		pool:       pool,
		publishers: filtered,
		logger:     logger,
		pending:    make(map[deliveryKey][]gameview.View),
	}, nil
}

// Notify schedules view on every publisher. The caller's cancellation does
// not abort delivery.
func (n *Notifier) Notify(ctx context.Context, view gameview.View) {
	if n == nil || len(n.publishers) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	for idx, publisher := range n.publishers {
		key := deliveryKey{publisher: idx, teamID: view.TeamID}

		n.inflight.Add(1)
		n.mu.Lock()
		queue, draining := n.pending[key]
		n.pending[key] = append(queue, view)
		n.mu.Unlock()
		if draining {
			continue
		}

		if err := n.pool.Submit(func() { n.drain(ctx, key, publisher) }); err != nil {
			n.mu.Lock()
			dropped := len(n.pending[key])
			delete(n.pending, key)
			n.mu.Unlock()
			for range dropped {
				n.inflight.Done()
			}
			n.logger.WarnContext(ctx, "submit publish task failed", "team_id", view.TeamID, "dropped", dropped, "error", err)
		}
	}
}

// drain publishes the queued views of key one at a time and releases the key
// once the queue is empty.
func (n *Notifier) drain(ctx context.Context, key deliveryKey, publisher gameview.Publisher) {
	for {
		n.mu.Lock()
		queue := n.pending[key]
		if len(queue) == 0 {
			delete(n.pending, key)
			n.mu.Unlock()
			return
		}
		view := queue[0]
		n.pending[key] = queue[1:]
		n.mu.Unlock()

		if err := publisher.Publish(ctx, view); err != nil {
			n.logger.WarnContext(ctx, "publish game view failed",
				"team_id", view.TeamID,
				"lifecycle", view.Lifecycle,
				"error", err,
			)
		}
		n.inflight.Done()
	}
}

// Flush waits for every scheduled publish to finish.
func (n *Notifier) Flush() {
	if n == nil {
		return
	}
	n.inflight.Wait()
}

// Close drains pending deliveries and releases the pool.
func (n *Notifier) Close() {
	if n == nil {
		return
	}
	n.Flush()
	n.pool.Release()
}
