package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Gravender/boardgames-backend/api/routes"
	"github.com/Gravender/boardgames-backend/internal/autoshare"
	"github.com/Gravender/boardgames-backend/internal/friends"
	"github.com/Gravender/boardgames-backend/internal/grants"
	"github.com/Gravender/boardgames-backend/internal/library"
	"github.com/Gravender/boardgames-backend/internal/sharing"
	"github.com/Gravender/boardgames-backend/pkg/config"
	"github.com/Gravender/boardgames-backend/pkg/db"
	"github.com/Gravender/boardgames-backend/pkg/logger"
	"github.com/Gravender/boardgames-backend/pkg/metrics"
	"github.com/Gravender/boardgames-backend/pkg/migrate"
	"github.com/Gravender/boardgames-backend/pkg/outbox"
	"github.com/Gravender/boardgames-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sharingMetrics := metrics.NewSharingMetrics(prometheus.DefaultRegisterer)

	friendsRepo := friends.NewRepository(dbClient.DB())
	libraryRepo := library.NewRepository(dbClient.DB())
	grantsRepo := grants.NewRepository(dbClient.DB())
	sharesRepo := sharing.NewRepository(dbClient.DB())

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	materializer, err := grants.NewMaterializer(grantsRepo, libraryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create grant materializer", err)
		os.Exit(1)
	}

	sharingService, err := sharing.NewService(sharing.ServiceParams{
		Repo:         sharesRepo,
		Library:      libraryRepo,
		Friends:      friendsRepo,
		Materializer: materializer,
		TxRunner:     dbClient,
		Outbox:       outboxService,
		Logger:       logg,
		Metrics:      sharingMetrics,
		Config:       cfg.Sharing,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sharing service", err)
		os.Exit(1)
	}

	autoShareService, err := autoshare.NewService(autoshare.ServiceParams{
		Shares:       sharesRepo,
		Friends:      friendsRepo,
		Library:      libraryRepo,
		Materializer: materializer,
		Outbox:       outboxService,
		Logger:       logg,
		Metrics:      sharingMetrics,
		Config:       cfg.Sharing,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auto-share service", err)
		os.Exit(1)
	}

	libraryService, err := library.NewService(library.ServiceParams{
		Repo:      libraryRepo,
		TxRunner:  dbClient,
		ShareHook: autoshare.Hook{Service: autoShareService},
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create library service", err)
		os.Exit(1)
	}

	linkResolver, err := grants.NewResolver(grants.ResolverParams{
		Repo:     grantsRepo,
		Library:  libraryRepo,
		TxRunner: dbClient,
		Outbox:   outboxService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create link resolver", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sharingService,
			linkResolver,
			libraryService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
