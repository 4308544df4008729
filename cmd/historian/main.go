// cmd/historian/main.go drains recorded client session events from Redis into PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/JokerTrickster/board-game-app-sub000/internal/cache"
	"github.com/JokerTrickster/board-game-app-sub000/internal/config"
	"github.com/JokerTrickster/board-game-app-sub000/internal/database"
	"github.com/JokerTrickster/board-game-app-sub000/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	cfg, err := config.LoadHistorian()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.ConnectDB(ctx, database.ConnectionString())
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if cfg.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Fatalf("migrate: %v", err)
		}
	}

	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	svc := historian.New(cache.NewConsumer(rdb, cfg.Queue), database.NewArchive(pool), historian.Options{
		BatchSize:     cfg.BatchSize,
		FlushDelay:    cfg.FlushDelay,
		Inactivity:    cfg.Inactivity,
		SweepInterval: cfg.SweepInterval,
		Logger:        logger.WithField("queue", cfg.Queue),
	})
	svc.Run(ctx)
	logger.Info("Historian shutdown complete.")
}
