package catalog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reelhouse/reelhouse/internal/domain/catalog"
)

type fakeSource struct {
	movies []catalog.Movie
	shows  []catalog.Show
	genres []catalog.Genre
	calls  int
}

func (f *fakeSource) PopularMovies(ctx context.Context, page int) ([]catalog.Movie, error) {
	f.calls++
	return f.movies, nil
}

func (f *fakeSource) PopularShows(ctx context.Context, page int) ([]catalog.Show, error) {
	f.calls++
	return f.shows, nil
}

func (f *fakeSource) MovieByID(ctx context.Context, id int64) (*catalog.Movie, error) {
	f.calls++
	m := f.movies[0]
	return &m, nil
}

func (f *fakeSource) ShowByID(ctx context.Context, id int64) (*catalog.Show, error) {
	f.calls++
	s := f.shows[0]
	return &s, nil
}

func (f *fakeSource) MovieGenres(ctx context.Context) ([]catalog.Genre, error) {
	f.calls++
	return f.genres, nil
}

func (f *fakeSource) ShowGenres(ctx context.Context) ([]catalog.Genre, error) {
	f.calls++
	return f.genres, nil
}

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func newTestService(src *fakeSource, cache catalog.Cache) *Service {
	return NewService(src, cache, Config{}, zap.NewNop())
}

func TestPopularMoviesCachesUpstream(t *testing.T) {
	src := &fakeSource{movies: []catalog.Movie{{ID: 1, Title: "Heat"}}}
	cache := newMemCache()
	svc := newTestService(src, cache)
	ctx := context.Background()

	first, err := svc.PopularMovies(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, src.movies, first)
	require.Equal(t, 1, src.calls)

	second, err := svc.PopularMovies(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, src.calls, "second read must come from cache")
}

func TestPopularMoviesPagesCacheSeparately(t *testing.T) {
	src := &fakeSource{movies: []catalog.Movie{{ID: 1, Title: "Heat"}}}
	cache := newMemCache()
	svc := newTestService(src, cache)
	ctx := context.Background()

	_, err := svc.PopularMovies(ctx, 1)
	require.NoError(t, err)
	_, err = svc.PopularMovies(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)
	require.Contains(t, cache.data, "movies:popular:1")
	require.Contains(t, cache.data, "movies:popular:2")
}

func TestMovieByIDRoundTrip(t *testing.T) {
	src := &fakeSource{movies: []catalog.Movie{{ID: 7, Title: "Ran", VoteAverage: 8.2}}}
	svc := newTestService(src, newMemCache())
	ctx := context.Background()

	got, err := svc.MovieByID(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, src.movies[0], *got)

	again, err := svc.MovieByID(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, got, again)
	require.Equal(t, 1, src.calls)
}

func TestGenresCached(t *testing.T) {
	src := &fakeSource{genres: []catalog.Genre{{ID: 18, Name: "Drama"}}}
	svc := newTestService(src, newMemCache())
	ctx := context.Background()

	m, err := svc.MovieGenres(ctx)
	require.NoError(t, err)
	require.Equal(t, src.genres, m)

	s, err := svc.ShowGenres(ctx)
	require.NoError(t, err)
	require.Equal(t, src.genres, s)

	// distinct keys, so both first reads hit the upstream
	require.Equal(t, 2, src.calls)
}

type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	return false, context.DeadlineExceeded
}

func (brokenCache) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	return context.DeadlineExceeded
}

func TestCacheFailureDegradesToUpstream(t *testing.T) {
	src := &fakeSource{shows: []catalog.Show{{ID: 3, Name: "Severance"}}}
	svc := newTestService(src, brokenCache{})

	got, err := svc.PopularShows(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, src.shows, got)
}
