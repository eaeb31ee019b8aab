// Package events carries lot changes between CLI sessions over NATS so that
// open listings can patch buffered items without refetching.
package events

import (
	"context"
	"log/slog"

	"github.com/alfredjeanlab/lots/internal/model"
)

// Event topic constants
const (
	TopicLotUpdated = "lots.lot.updated"
	TopicLotWatched = "lots.lot.watched"
	TopicBidPlaced  = "lots.bid.placed"
)

// Event types

// LotUpdated carries the lot as confirmed by the server after a
// side-effecting action.
type LotUpdated struct {
	Lot     model.Lot `json:"lot"`
	Changes []string  `json:"changes,omitempty"` // names of the changed fields
}

type LotWatched struct {
	LotID   int64 `json:"lot_id"`
	UserID  int64 `json:"user_id"`
	Watched bool  `json:"watched"`
}

type BidPlaced struct {
	LotID  int64   `json:"lot_id"`
	UserID int64   `json:"user_id"`
	Amount float64 `json:"amount"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives lot updates from the event bus.
type Subscriber interface {
	// SubscribeLots delivers decoded lot updates until ctx is done, then
	// closes the channel.
	SubscribeLots(ctx context.Context) (<-chan LotUpdated, error)
	Close() error
}

// ApplyLotUpdates hands each lot from ch to patch until ch closes or ctx is
// done. patch reports whether the lot was buffered; unknown lots are
// ignored. It returns the number of applied patches.
func ApplyLotUpdates(ctx context.Context, ch <-chan LotUpdated, patch func(model.Lot) bool, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	applied := 0
	for {
		select {
		case <-ctx.Done():
			return applied
		case ev, ok := <-ch:
			if !ok {
				return applied
			}
			if patch(ev.Lot) {
				applied++
				logger.Debug("patched lot", "id", ev.Lot.ID, "changes", ev.Changes)
			}
		}
	}
}
