package main

import (
	"context"

	config "github.com/reelhouse/reelhouse/internal/config/api-gateway"
	pg "github.com/reelhouse/reelhouse/internal/repository/postgres"
)

func initDB(ctx context.Context, cfg *config.Config) (*pg.DB, error) {
	return pg.NewDB(ctx, cfg.DB)
}
