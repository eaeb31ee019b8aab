package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes JSON-encoded events to NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("lt"))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc}, nil
}

// Publish sends event to topic and waits for the server to acknowledge the
// flush, so a CLI command can exit right after publishing.
func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if err := p.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
	}
	return p.conn.FlushWithContext(ctx)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber receives lot updates published by other sessions.
type NATSSubscriber struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSSubscriber connects with unlimited reconnects. Extra options such
// as disconnect handlers are appended to the defaults.
func NewNATSSubscriber(url string, logger *slog.Logger, opts ...nats.Option) (*NATSSubscriber, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := []nats.Option{
		nats.Name("lt"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSSubscriber{conn: nc, logger: logger}, nil
}

// SubscribeLots decodes updates on TopicLotUpdated and delivers them until
// ctx is done, then unsubscribes and closes the channel. Payloads that do
// not decode to a lot with an id are logged and skipped. While the reader
// lags, updates for the same lot are merged and the newest lot wins.
func (s *NATSSubscriber) SubscribeLots(ctx context.Context) (<-chan LotUpdated, error) {
	q := newLotQueue()
	sub, err := s.conn.Subscribe(TopicLotUpdated, func(msg *nats.Msg) {
		var ev LotUpdated
		if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.Lot.ID == 0 {
			s.logger.Warn("skipping malformed lot update", "subject", msg.Subject, "error", err)
			return
		}
		q.put(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", TopicLotUpdated, err)
	}
	// The subscription must reach the server before other connections publish.
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flushing subscription: %w", err)
	}

	out := make(chan LotUpdated)
	go func() {
		defer close(out)
		defer sub.Unsubscribe() //nolint:errcheck
		for {
			select {
			case <-ctx.Done():
				return
			case <-q.ready:
			}
			for ev, ok := q.take(); ok; ev, ok = q.take() {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}

// lotQueue holds undelivered updates keyed by lot id, in first-arrival order.
type lotQueue struct {
	mu      sync.Mutex
	order   []int64
	pending map[int64]LotUpdated
	ready   chan struct{}
}

func newLotQueue() *lotQueue {
	return &lotQueue{pending: make(map[int64]LotUpdated), ready: make(chan struct{}, 1)}
}

func (q *lotQueue) put(ev LotUpdated) {
	q.mu.Lock()
	if prev, ok := q.pending[ev.Lot.ID]; ok {
		ev.Changes = mergeChanges(prev.Changes, ev.Changes)
	} else {
		q.order = append(q.order, ev.Lot.ID)
	}
	q.pending[ev.Lot.ID] = ev
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *lotQueue) take() (LotUpdated, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.order) == 0 {
		return LotUpdated{}, false
	}
	id := q.order[0]
	q.order = q.order[1:]
	ev := q.pending[id]
	delete(q.pending, id)
	return ev, true
}

func mergeChanges(a, b []string) []string {
	out := append([]string(nil), a...)
	for _, c := range b {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
