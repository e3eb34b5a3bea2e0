package main

import (
	"context"

	config "github.com/reelhouse/reelhouse/internal/config/api-gateway"
	rds "github.com/reelhouse/reelhouse/internal/repository/redis"
)

func initRedis(ctx context.Context, cfg *config.Config) (*rds.Client, error) {
	return rds.New(ctx, cfg.Redis)
}
