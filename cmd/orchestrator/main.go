package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/NordCoder/Lessonbell/internal/config/orchestrator"
	"github.com/NordCoder/Lessonbell/internal/obs"
	kafkax "github.com/NordCoder/Lessonbell/internal/repository/kafka"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting orchestrator",
		zap.String("env", cfg.App.Env),
		zap.String("ver", cfg.App.Version),
		zap.Int("batch_size", cfg.Orchestrator.BatchSize),
		zap.Bool("expand_course_via_program", cfg.Orchestrator.ExpandCourseViaProgram),
	)

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	db, err := initDB(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb, err := initRedis(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("redis connect", zap.Error(err))
	}
	checks := map[string]obs.HealthCheck{"postgres": db.Ping}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	svc, err := wiring(rootCtx, cfg, db, rdb, logger)
	if err != nil {
		logger.Fatal("wiring", zap.Error(err))
	}
	defer func() { _ = svc.closer() }()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, checks, logger)

	hs := health.NewServer()
	grpcServer, grpcLn, err := buildGRPCServer(cfg, hs)
	if err != nil {
		logger.Fatal("build grpc", zap.Error(err))
	}
	httpSrv, closeConn, err := buildHTTPServer(cfg, svc.ctrl, logger)
	if err != nil {
		logger.Fatal("build http", zap.Error(err))
	}
	defer func() { _ = closeConn() }()

	cons := kafkax.BootstrapConsumer(rootCtx, cfg.In, logger)
	defer func() { _ = cons.Close() }()

	runCtx, cancelRun := context.WithCancel(rootCtx)
	defer cancelRun()

	errCh := make(chan error, 3)
	var wg conc.WaitGroup
	wg.Go(func() { errCh <- serveGRPC(grpcServer, grpcLn, logger) })
	wg.Go(func() { errCh <- serveHTTP(httpSrv, logger) })
	wg.Go(func() { errCh <- svc.ctrl.Consume(runCtx, cons) })
	wg.Go(func() { svc.relay.Run(runCtx) })
	wg.Go(func() {
		watchHealth(runCtx, hs, 5*time.Second, func(ctx context.Context) error {
			for _, check := range checks {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		}, logger)
	})

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal")
	case runErr := <-errCh:
		if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, http.ErrServerClosed) {
			logger.Error("component stopped", zap.Error(runErr))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	cancelRun()
	_ = httpSrv.Shutdown(shCtx)
	grpcServer.GracefulStop()
	_ = ms.Shutdown(shCtx)
	wg.Wait()
	logger.Info("bye")
}
