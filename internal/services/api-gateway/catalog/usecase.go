package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/reelhouse/reelhouse/internal/domain/catalog"
	"github.com/reelhouse/reelhouse/internal/obs"
)

type Config struct {
	ListTTL   time.Duration
	DetailTTL time.Duration
	GenreTTL  time.Duration
}

// Service serves catalog reads cache-aside: Redis first, upstream on miss.
type Service struct {
	log    *zap.Logger
	source catalog.Source
	cache  catalog.Cache
	cfg    Config
}

func NewService(source catalog.Source, cache catalog.Cache, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log, _ = zap.NewProduction()
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = 10 * time.Minute
	}
	if cfg.DetailTTL <= 0 {
		cfg.DetailTTL = time.Hour
	}
	if cfg.GenreTTL <= 0 {
		cfg.GenreTTL = 24 * time.Hour
	}
	return &Service{log: log, source: source, cache: cache, cfg: cfg}
}

func (s *Service) PopularMovies(ctx context.Context, page int) ([]catalog.Movie, error) {
	if page < 1 {
		page = 1
	}
	key := fmt.Sprintf("movies:popular:%d", page)
	var out []catalog.Movie
	err := s.cached(ctx, key, s.cfg.ListTTL, &out, func(ctx context.Context) (any, error) {
		return s.source.PopularMovies(ctx, page)
	})
	return out, err
}

func (s *Service) PopularShows(ctx context.Context, page int) ([]catalog.Show, error) {
	if page < 1 {
		page = 1
	}
	key := fmt.Sprintf("shows:popular:%d", page)
	var out []catalog.Show
	err := s.cached(ctx, key, s.cfg.ListTTL, &out, func(ctx context.Context) (any, error) {
		return s.source.PopularShows(ctx, page)
	})
	return out, err
}

func (s *Service) MovieByID(ctx context.Context, id int64) (*catalog.Movie, error) {
	key := fmt.Sprintf("movies:id:%d", id)
	var out catalog.Movie
	err := s.cached(ctx, key, s.cfg.DetailTTL, &out, func(ctx context.Context) (any, error) {
		return s.source.MovieByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ShowByID(ctx context.Context, id int64) (*catalog.Show, error) {
	key := fmt.Sprintf("shows:id:%d", id)
	var out catalog.Show
	err := s.cached(ctx, key, s.cfg.DetailTTL, &out, func(ctx context.Context) (any, error) {
		return s.source.ShowByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) MovieGenres(ctx context.Context) ([]catalog.Genre, error) {
	var out []catalog.Genre
	err := s.cached(ctx, "genres:movie", s.cfg.GenreTTL, &out, func(ctx context.Context) (any, error) {
		return s.source.MovieGenres(ctx)
	})
	return out, err
}

func (s *Service) ShowGenres(ctx context.Context) ([]catalog.Genre, error) {
	var out []catalog.Genre
	err := s.cached(ctx, "genres:tv", s.cfg.GenreTTL, &out, func(ctx context.Context) (any, error) {
		return s.source.ShowGenres(ctx)
	})
	return out, err
}

// cached fills dst from the cache when possible, otherwise fetches from the
// upstream and stores the result. Cache failures degrade to upstream reads.
func (s *Service) cached(ctx context.Context, key string, ttl time.Duration, dst any, fetch func(context.Context) (any, error)) error {
	hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		obs.WithTrace(ctx, s.log).Warn("cache get", zap.String("key", key), zap.Error(err))
	}
	if hit {
		obs.CatalogCache.WithLabelValues("hit").Inc()
		return nil
	}
	obs.CatalogCache.WithLabelValues("miss").Inc()

	val, err := fetch(ctx)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, key, val, ttl); err != nil {
		obs.WithTrace(ctx, s.log).Warn("cache set", zap.String("key", key), zap.Error(err))
	}
	return decodeInto(val, dst)
}

// decodeInto copies the freshly fetched value into dst through the same JSON
// encoding the cache uses, so hits and misses produce identical shapes.
func decodeInto(val, dst any) error {
	b, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode upstream value: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode upstream value: %w", err)
	}
	return nil
}
