package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tapejam/tapejam/internal/api/relay"
	"github.com/tapejam/tapejam/internal/bridge"
	"github.com/tapejam/tapejam/internal/config"
	"github.com/tapejam/tapejam/internal/logger"
	"github.com/tapejam/tapejam/internal/middleware"
	"github.com/tapejam/tapejam/internal/ws"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(zlog, uuid.NewString())
	if cfg.BridgeURL != "" {
		b, err := bridge.NewValkey(cfg.BridgeURL, cfg.BridgeChannel, zlog)
		if err != nil {
			// Single-instance operation still works without it.
			zlog.Warn("event bridge unavailable", zap.Error(err))
		} else {
			defer b.Close()
			hub.AttachBridge(ctx, b)
			zlog.Info("event bridge attached", zap.String("channel", cfg.BridgeChannel))
		}
	}
	go hub.Run(ctx)

	router := mux.NewRouter()
	relay.RegisterRoutes(router, &relay.Handler{Hub: hub, Logger: zlog}, &ws.Handler{
		Hub:           hub,
		Logger:        zlog,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: middleware.CORS(cfg.AllowedOrigin, router),
	}

	go func() {
		zlog.Info("relay listening",
			zap.String("addr", cfg.Addr()),
			zap.String("public_url", cfg.PublicURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("shutdown", zap.Error(err))
	}
}
