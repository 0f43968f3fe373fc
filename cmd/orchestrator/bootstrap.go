package main

import (
	"context"

	config "github.com/NordCoder/Lessonbell/internal/config/orchestrator"
	"github.com/NordCoder/Lessonbell/internal/obs"
	pg "github.com/NordCoder/Lessonbell/internal/repository/postgres"
	redisinfra "github.com/NordCoder/Lessonbell/internal/repository/redis"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.Log)
}

func initOTel(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	o, err := obs.SetupOTel(ctx, cfg.OTel)
	if err != nil {
		return nil, err
	}
	return o.Shutdown, nil
}

func initDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pg.DB, error) {
	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("db connected", zap.Int32("max_conns", cfg.DB.MaxConns))
	return db, nil
}

// initRedis returns nil when deduplication is off.
func initRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.Orchestrator.Dedupe.Enable {
		logger.Info("delivery dedupe disabled")
		return nil, nil
	}
	rdb, err := redisinfra.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	logger.Info("redis connected", zap.String("addr", cfg.Redis.Addr), zap.Duration("dedupe_ttl", cfg.Orchestrator.Dedupe.TTL))
	return rdb, nil
}
