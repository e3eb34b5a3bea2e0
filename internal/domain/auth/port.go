package auth

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession is returned by RefreshTokenStore.Get when the slot is absent.
// A never-created and an expired session look identical on purpose: both mean
// "no valid session".
var ErrNoSession = errors.New("no active refresh session")

// RefreshTokenStore holds the hash of the most recently issued refresh
// credential, one slot per user. A Put replaces whatever was there before, so
// each login or rotation invalidates every previously issued refresh token
// for that user.
type RefreshTokenStore interface {
	// Put upserts the hash and resets the TTL in a single atomic write.
	Put(ctx context.Context, userID int64, hashedSecret string, ttl time.Duration) error
	// Get returns the stored hash, or ErrNoSession when the slot is absent.
	Get(ctx context.Context, userID int64) (string, error)
	// Delete removes the slot. Deleting an absent slot is a no-op.
	Delete(ctx context.Context, userID int64) error
}

// EventSink receives audit events. Implementations must not block the calling
// auth operation; dropping under pressure is preferable.
type EventSink interface {
	Publish(ctx context.Context, ev Event)
}
