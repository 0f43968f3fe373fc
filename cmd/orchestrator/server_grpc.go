package main

import (
	"context"
	"net"
	"time"

	config "github.com/NordCoder/Lessonbell/internal/config/orchestrator"
	"github.com/NordCoder/Lessonbell/internal/obs"
	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const serviceName = "lessonbell.orchestrator"

func buildGRPCServer(cfg *config.Config, hs *health.Server) (*grpc.Server, net.Listener, error) {
	grpcMetrics := grpcprometheus.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		return nil, nil, err
	}

	s := grpc.NewServer(obs.GRPCServerOpts(grpcMetrics)...)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	grpcMetrics.InitializeMetrics(s)

	ln, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return nil, nil, err
	}
	return s, ln, nil
}

func serveGRPC(s *grpc.Server, ln net.Listener, logger *zap.Logger) error {
	logger.Info("grpc listening", zap.String("addr", ln.Addr().String()))
	return s.Serve(ln)
}

// watchHealth flips the serving status with the result of check until ctx ends.
func watchHealth(ctx context.Context, hs *health.Server, every time.Duration, check obs.HealthCheck, logger *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		status := healthpb.HealthCheckResponse_SERVING
		cctx, cancel := context.WithTimeout(ctx, time.Second)
		if err := check(cctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			if status != last {
				logger.Warn("health check failing", zap.Error(err))
			}
		}
		cancel()
		hs.SetServingStatus("", status)
		hs.SetServingStatus(serviceName, status)
		last = status

		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
		}
	}
}
