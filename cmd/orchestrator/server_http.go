package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	config "github.com/NordCoder/Lessonbell/internal/config/orchestrator"
	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	kafkax "github.com/NordCoder/Lessonbell/internal/repository/kafka"
	"github.com/NordCoder/Lessonbell/internal/services/orchestrator"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type dispatcher interface {
	Dispatch(ctx context.Context, req kafkax.DispatchRequest) (orchestrator.Report, error)
}

func buildHTTPServer(cfg *config.Config, d dispatcher, logger *zap.Logger) (*http.Server, func() error, error) {
	conn, err := grpc.NewClient(cfg.Server.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}

	mux := runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))
	if err := mux.HandlePath(http.MethodPost, "/v1/notifications/{id}/dispatch", dispatchHandler(d, logger)); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           otelhttp.NewHandler(mux, "orchestrator.http"),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, conn.Close, nil
}

func serveHTTP(srv *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}

type dispatchBody struct {
	TenantID       int64    `json:"tenant_id"`
	ForcedChannels []string `json:"forced_channels"`
	Recipients     []int64  `json:"recipients"`
	Language       string   `json:"language"`
}

// dispatchHandler runs a notification synchronously and answers with the
// aggregate report.
func dispatchHandler(d dispatcher, logger *zap.Logger) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		id, err := strconv.ParseInt(params["id"], 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid notification id"})
			return
		}

		var body dispatchBody
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body: " + err.Error()})
				return
			}
		}
		forced, err := notification.ParseChannels(body.ForcedChannels)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		rep, err := d.Dispatch(r.Context(), kafkax.DispatchRequest{
			NotificationID: id,
			TenantID:       body.TenantID,
			ForcedChannels: forced,
			Recipients:     body.Recipients,
			Language:       body.Language,
			RequestedAt:    time.Now().UTC(),
		})
		if err != nil {
			status := statusOf(err)
			if status >= 500 {
				logger.Error("admin dispatch", zap.Int64("notification_id", id), zap.Error(err))
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, notification.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, notification.ErrTenant):
		return http.StatusForbidden
	case errors.Is(err, notification.ErrUnknownValue):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
