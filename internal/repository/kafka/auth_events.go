package kafka

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/reelhouse/reelhouse/internal/domain/auth"
	"github.com/reelhouse/reelhouse/internal/obs/retry"
)

var _ auth.EventSink = (*AuthEvents)(nil)

// AuthEvents publishes audit events off the request path: Publish drops the
// event into a bounded queue drained by a single worker, which retries the
// broker write with backoff. Events are droppable; auth operations never wait
// on Kafka.
type AuthEvents struct {
	producer *Producer
	log      *zap.Logger
	queue    chan auth.Event
	done     chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewAuthEvents(producer *Producer, log *zap.Logger) *AuthEvents {
	a := &AuthEvents{
		producer: producer,
		log:      log.With(zap.String("component", "kafka.auth_events")),
		queue:    make(chan auth.Event, 256),
		done:     make(chan struct{}),
	}
	go a.run()
	return a
}

// Publish never blocks and never panics: events arriving after Close, like
// events hitting a full queue, are dropped with a warning.
func (a *AuthEvents) Publish(_ context.Context, ev auth.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		a.log.Warn("auth event dropped", zap.String("kind", ev.Kind), zap.String("reason", "sink closed"))
		return
	}
	select {
	case a.queue <- ev:
	default:
		a.log.Warn("auth event dropped", zap.String("kind", ev.Kind), zap.String("reason", "queue full"))
	}
}

func (a *AuthEvents) run() {
	defer close(a.done)
	for ev := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := retry.Do(ctx, func() error {
			return a.producer.PublishJSON(ctx, KeyFromInt64(ev.UserID), ev)
		}, retry.DefaultKafkaPolicy(a.log))
		cancel()
		if err != nil {
			a.log.Error("auth event lost", zap.String("kind", ev.Kind), zap.Error(err))
		}
	}
}

// Close stops accepting events and waits for the queue to drain. Idempotent.
func (a *AuthEvents) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}
