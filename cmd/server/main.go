package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dfryer1193/esatsite/content/application"
	"github.com/dfryer1193/esatsite/content/domain"
	"github.com/dfryer1193/esatsite/content/persistence"
	"github.com/dfryer1193/esatsite/internal/config"
	"github.com/dfryer1193/esatsite/internal/middleware"
	"github.com/dfryer1193/esatsite/internal/render"
	"github.com/dfryer1193/esatsite/internal/rest"
	"github.com/dfryer1193/esatsite/shared/cms"
	"github.com/dfryer1193/esatsite/shared/db/sqlite"
	webhook "github.com/dfryer1193/esatsite/webhook/http"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const templateDir = "internal/render/templates"

func setupLogging(dev bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	if dev {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	zerolog.DefaultContextLogger = &log.Logger
}

// newPageCache returns the configured page cache and a function releasing it.
func newPageCache(ctx context.Context, cfg *config.Config) (domain.PageCache, func(), error) {
	if cfg.CacheDriver != config.CacheDriverSQLite {
		return persistence.NewMemoryPageCache(cfg.PageCacheMaxPages), func() {}, nil
	}

	dbCfg := sqlite.NewSQLiteConfig()
	if cfg.SQLitePath != "" {
		dbCfg.Path = cfg.SQLitePath
	}

	database := sqlite.NewSQLiteDB(dbCfg)
	if err := database.Connect(ctx); err != nil {
		return nil, nil, err
	}

	cache := persistence.NewSQLitePageCache(database.DB(), cfg.PageCacheMaxPages)
	if err := cache.Purge(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to purge page cache on startup")
	}

	return cache, func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close page cache database")
		}
	}, nil
}

func main() {
	cfg, err := config.Load(os.Getenv("ESAT_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogging(cfg.Dev)

	ctx := context.Background()

	pageCache, closePageCache, err := newPageCache(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.CacheDriver).Msg("Failed to open page cache")
	}
	defer closePageCache()

	client := cms.NewClient(&cms.Config{
		BaseURL: cfg.APIURL,
		Token:   cfg.APIToken,
		Timeout: cfg.HTTPTimeout,
	})
	log.Info().Str("cms", client.BaseURL()).Str("cache", cfg.CacheDriver).Msg("Content source configured")

	homeLoader := application.NewHomeDataLoader(client)
	homeCache := application.NewHomeDataCache(homeLoader.Load, cfg.HomeDataTTL)
	defer func() {
		if err := homeCache.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to gracefully close home data cache")
		}
	}()

	loader := application.NewPageLoader(application.NewFetcher(client), homeLoader.Load)

	renderOpts := render.Options{StorageURL: cfg.StorageURL}
	if cfg.Dev {
		renderOpts.Dir = templateDir
		renderOpts.Watch = true
	}
	renderer, err := render.New(renderOpts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load templates")
	}
	defer renderer.Close()

	if !cfg.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	service := gin.New()
	service.Use(middleware.LoggingMiddleware())
	service.Use(gin.CustomRecovery(middleware.HandlePanics()))

	rest.NewApi(service, rest.NewSite(loader, homeCache, renderer), rest.Options{
		PageCache:    pageCache,
		PageCacheTTL: cfg.PageCacheTTL,
		AdminSecret:  []byte(cfg.AdminJWTSecret),
	})

	revalidation := application.NewRevalidationService(pageCache, homeCache)
	webhook.NewRevalidateHandler(cfg.RevalidationToken, revalidation).RegisterRoutes(service)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: service,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to shutdown server")
	}

	log.Info().Msg("Server stopped")
}
