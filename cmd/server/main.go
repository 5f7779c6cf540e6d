package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/inventory-ledger/internal/adapter/handler"
	"github.com/rl1809/inventory-ledger/internal/bootstrap"
	"github.com/rl1809/inventory-ledger/internal/config"
	"github.com/rl1809/inventory-ledger/internal/logger"
)

const healthInterval = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New("info").WithError(err).Fatal("failed to load config")
	}
	log := logger.New(cfg.App.LogLevel)
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reg prometheus.Registerer
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg = prometheus.DefaultRegisterer
		metricsHandler = promhttp.Handler()
	}

	app, err := bootstrap.New(ctx, cfg, log, reg)
	if err != nil {
		log.WithError(err).Fatal("failed to build application")
	}
	log.WithField("driver", cfg.Storage.Driver).Info("storage ready")

	// gRPC health
	reporter := handler.NewHealthReporter(app.Backends, log)
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, reporter.Server())
	go reporter.Run(ctx, healthInterval)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.WithError(err).Fatal("failed to listen")
	}
	go func() {
		log.Infof("gRPC server listening on %s", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			log.WithError(err).Error("gRPC server error")
		}
	}()

	// HTTP
	httpHandler := handler.NewHTTPHandler(handler.HTTPHandlerDeps{
		Items:        app.Items,
		Transactions: app.Transactions,
		Backends:     app.Backends,
		Metrics:      metricsHandler,
		Logger:       log,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpHandler.Router(cfg.HTTP.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Infof("HTTP server listening on %s", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP shutdown")
	}
	log.Info("HTTP server stopped")

	cancel()
	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	if err := app.Close(); err != nil {
		log.WithError(err).Warn("closing connections")
	}
	log.Info("connections closed")
}
