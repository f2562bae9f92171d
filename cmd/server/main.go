package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brlegal/captura-partes/internal/cache"
	"github.com/brlegal/captura-partes/internal/capture"
	"github.com/brlegal/captura-partes/internal/config"
	"github.com/brlegal/captura-partes/internal/database"
	"github.com/brlegal/captura-partes/internal/fetcher"
	"github.com/brlegal/captura-partes/internal/jobs"
	"github.com/brlegal/captura-partes/internal/rawlog"
	"github.com/brlegal/captura-partes/internal/server"
	"github.com/brlegal/captura-partes/pkg/logger"
)

func main() {
	var migrate bool
	flag.BoolVar(&migrate, "migrate", false, "Run database migrations")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}

	if migrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("Failed to run migrations", "error", err)
		}
		if err := database.RunMigrations(db); err != nil {
			log.Fatal("Failed to create indexes", "error", err)
		}
		log.Info("Database migrations completed successfully")
		return
	}

	mongoCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rawStore, err := rawlog.NewMongoStore(mongoCtx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	if err != nil {
		log.Fatal("Failed to connect to document store", "error", err)
	}
	rawLogs := rawlog.NewWriter(rawStore, log)

	courtFetcher, err := fetcher.New(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize fetcher", "error", err)
	}

	partyCache := cache.NewPartyCache(cfg.CacheSize, cfg.CacheTTL)
	cachedFetcher := cache.NewCachingFetcher(courtFetcher, partyCache)

	classifier := capture.NewClassifier(capture.DefaultTiposEspeciais(), log)
	orchestrator := capture.NewOrchestrator(db, cachedFetcher, classifier, log)
	runner := jobs.NewRunner(db, orchestrator, rawLogs, log, cfg.MaxConcurrentCases)

	srv := server.New(cfg, db, runner, rawLogs, partyCache, log)
	srv.OnShutdown(courtFetcher.Close)
	srv.OnShutdown(func() error {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		return rawStore.Close(closeCtx)
	})

	log.Info("Starting party capture service",
		"host", cfg.Host,
		"port", cfg.Port,
		"court", cfg.CourtName,
	)

	if err := srv.Run(); err != nil {
		log.Fatal("Server failed to start", "error", err)
	}
}
