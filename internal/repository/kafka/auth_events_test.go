package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reelhouse/reelhouse/internal/domain/auth"
)

func event() auth.Event {
	return auth.Event{Kind: auth.EventLogin, UserID: 42, OK: true, At: time.Now().UTC()}
}

// A graceful shutdown can race late request handlers against the sink's
// Close; publishing after Close must drop the event, not panic.
func TestPublishAfterCloseDrops(t *testing.T) {
	sink := NewAuthEvents(NewProducer([]string{"127.0.0.1:1"}, "auth-events"), zap.NewNop())
	sink.Close()

	require.NotPanics(t, func() {
		sink.Publish(context.Background(), event())
	})
}

func TestCloseIsIdempotent(t *testing.T) {
	sink := NewAuthEvents(NewProducer([]string{"127.0.0.1:1"}, "auth-events"), zap.NewNop())

	require.NotPanics(t, func() {
		sink.Close()
		sink.Close()
	})
}
