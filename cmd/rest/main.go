package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glowgirl-be/internal/bootstrap"
	"glowgirl-be/internal/config"
	"glowgirl-be/internal/server"
	"glowgirl-be/internal/tracer"
	"glowgirl-be/pkg/database"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg)
	if err != nil {
		log.Panicf("Unable to bootstrap dependencies: %v", err)
	}
	sysLogger := container.Logger

	// 4. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Tracing, sysLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, container)
	group, gctx := errgroup.WithContext(ctx)

	// 5. Background Services
	group.Go(func() error {
		return container.WebSocketHub.Run(gctx)
	})
	group.Go(func() error {
		return container.ConsumerService.Consume(gctx)
	})
	if container.NotificationService != nil {
		group.Go(func() error {
			return container.NotificationService.Start(gctx)
		})
	}

	// 6. Run Server
	group.Go(srv.Run)
	group.Go(func() error {
		<-gctx.Done()
		sysLogger.Info("MAIN", "Shutting down", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		container.GlowService.Shutdown()
		container.Close()
		if tErr := shutdownTracer(shutdownCtx); tErr != nil {
			sysLogger.Warn("MAIN", "Tracer shutdown failed", map[string]interface{}{"error": tErr.Error()})
		}
		return err
	})

	if err := group.Wait(); err != nil {
		sysLogger.Error("MAIN", "Server stopped with error", map[string]interface{}{"error": err.Error()})
	}
	_ = sysLogger.Sync()
}
