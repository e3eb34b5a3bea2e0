package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	config "github.com/reelhouse/reelhouse/internal/config/api-gateway"
	domainauth "github.com/reelhouse/reelhouse/internal/domain/auth"
	pg "github.com/reelhouse/reelhouse/internal/repository/postgres"
	rds "github.com/reelhouse/reelhouse/internal/repository/redis"
	authsvc "github.com/reelhouse/reelhouse/internal/services/api-gateway/auth"
	"github.com/reelhouse/reelhouse/internal/services/api-gateway/auth/provider"
	catalogsvc "github.com/reelhouse/reelhouse/internal/services/api-gateway/catalog"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, rdb *rds.Client, events domainauth.EventSink) (*http.Server, error) {
	users := pg.NewUserRepo(db)
	store := rds.NewRefreshTokenStore(rdb)

	tokens := authsvc.NewTokenIssuer(
		authsvc.SigningConfig{Secret: []byte(cfg.Auth.AccessSecret), TTL: cfg.Auth.AccessTTL},
		authsvc.SigningConfig{Secret: []byte(cfg.Auth.RefreshSecret), TTL: cfg.Auth.RefreshTTL},
	)
	uc := authsvc.NewService(users, store, authsvc.NewSecretHasher(), tokens, events, authsvc.Config{
		RefreshSessionTTL: cfg.Auth.RefreshSessionTTL,
	})

	providers, err := buildProviders(cfg, logger)
	if err != nil {
		return nil, err
	}

	authCtrl := authsvc.NewController(uc, users, authsvc.ControllerOpts{
		Logger:    logger,
		Providers: providers,
		Cookie: authsvc.CookieOpts{
			Name:   cfg.Auth.CookieName,
			Domain: cfg.Auth.CookieDomain,
			Path:   cfg.Auth.CookiePath,
			Secure: cfg.Auth.CookieSecure,
		},
		RefreshTTL: cfg.Auth.RefreshTTL,
	})

	catalogClient := catalogsvc.NewClient(catalogsvc.ClientConfig{
		BaseURL:   cfg.Catalog.BaseURL,
		APIKey:    cfg.Catalog.APIKey,
		Timeout:   cfg.Catalog.Timeout,
		UserAgent: cfg.Catalog.UserAgent,
	})
	catalogCache := rds.NewCache(rdb, "catalog:")
	catalogUC := catalogsvc.NewService(catalogClient, catalogCache, catalogsvc.Config{
		ListTTL:   cfg.Catalog.ListTTL,
		DetailTTL: cfg.Catalog.DetailTTL,
		GenreTTL:  cfg.Catalog.GenreTTL,
	}, logger)
	catalogCtrl := catalogsvc.NewController(catalogUC, logger)

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), requestID())

	authCtrl.Register(engine)
	catalogCtrl.Register(engine)

	engine.GET("/healthz", func(g *gin.Context) {
		hctx, cancel := context.WithTimeout(g.Request.Context(), 500*time.Millisecond)
		defer cancel()
		if err := db.Pool.Ping(hctx); err != nil {
			g.String(http.StatusServiceUnavailable, "unhealthy: db")
			return
		}
		if err := rdb.Ping(hctx).Err(); err != nil {
			g.String(http.StatusServiceUnavailable, "unhealthy: redis")
			return
		}
		g.String(http.StatusOK, "ok")
	})

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func buildProviders(cfg *config.Config, logger *zap.Logger) (*provider.Registry, error) {
	var list []provider.OAuthProvider
	if cfg.OAuth.Google.Enable {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		g, err := provider.NewGoogle(ctx, provider.GoogleConfig{
			ClientID:     cfg.OAuth.Google.ClientID,
			ClientSecret: cfg.OAuth.Google.ClientSecret,
			RedirectURL:  cfg.OAuth.Google.RedirectURL,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("oauth provider enabled", zap.String("provider", g.Name()))
		list = append(list, g)
	}
	return provider.NewRegistry(list...), nil
}

func requestID() gin.HandlerFunc {
	return func(g *gin.Context) {
		id := g.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		g.Header("X-Request-Id", id)
		g.Next()
	}
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}
