package catalog

import (
	"context"
	"time"
)

// Source fetches catalog data from the upstream metadata API.
type Source interface {
	PopularMovies(ctx context.Context, page int) ([]Movie, error)
	PopularShows(ctx context.Context, page int) ([]Show, error)
	MovieByID(ctx context.Context, id int64) (*Movie, error)
	ShowByID(ctx context.Context, id int64) (*Show, error)
	MovieGenres(ctx context.Context) ([]Genre, error)
	ShowGenres(ctx context.Context) ([]Genre, error)
}

// Cache stores upstream responses as JSON blobs keyed by request shape.
type Cache interface {
	// Get decodes the cached value into dst and reports whether it was present.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
}
