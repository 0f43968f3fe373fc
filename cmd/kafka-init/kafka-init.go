package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	config "github.com/NordCoder/Lessonbell/internal/config/orchestrator"
	"github.com/NordCoder/Lessonbell/internal/obs"
	kafkax "github.com/NordCoder/Lessonbell/internal/repository/kafka"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := obs.NewLogger(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	rf := envInt("KAFKA_RF", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	err = kafkax.EnsureTopics(ctx, cfg.In.Brokers, logger,
		kafkax.TopicSpec{Name: cfg.In.Topic, NumPartitions: cfg.In.Partitions, ReplicationFactor: rf, MaxWait: 30 * time.Second},
		kafkax.TopicSpec{Name: cfg.Out.Topic, NumPartitions: cfg.Out.Partitions, ReplicationFactor: rf, MaxWait: 30 * time.Second},
	)
	if err != nil {
		logger.Fatal("ensure topics", zap.Error(err))
	}
	logger.Info("kafka-init ok", zap.Strings("topics", []string{cfg.In.Topic, cfg.Out.Topic}))
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, _ := strconv.Atoi(v); n > 0 {
			return n
		}
	}
	return def
}
