package handler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported to grpc health clients.
const ServiceName = "inventory.Ledger"

// HealthReporter keeps the grpc health status in step with the storage
// backends.
type HealthReporter struct {
	server   *health.Server
	backends map[string]Pinger
	logger   *logrus.Logger
}

func NewHealthReporter(backends map[string]Pinger, logger *logrus.Logger) *HealthReporter {
	return &HealthReporter{
		server:   health.NewServer(),
		backends: backends,
		logger:   logger,
	}
}

// Server is registered on the grpc server as the health service.
func (r *HealthReporter) Server() healthpb.HealthServer {
	return r.server
}

// Check pings every backend once and publishes the result.
func (r *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, b := range r.backends {
		if err := b.Ping(ctx); err != nil {
			r.logger.WithError(err).WithField("backend", name).Warn("health check failed")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	r.server.SetServingStatus("", status)
	r.server.SetServingStatus(ServiceName, status)
	return status
}

// Run checks every interval until ctx is done, then reports NOT_SERVING.
func (r *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, interval)
			r.Check(checkCtx)
			cancel()
		}
	}
}
