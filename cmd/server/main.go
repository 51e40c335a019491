package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/david/ai-lead-finder/internal/api"
	"github.com/david/ai-lead-finder/internal/app"
	"github.com/david/ai-lead-finder/internal/config"
	"github.com/david/ai-lead-finder/internal/scheduler"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	app.SetupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := app.NewPipeline(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to build pipeline: %v", err)
	}
	defer pipeline.Close()

	sched := scheduler.NewService(cfg, pipeline)
	if err := sched.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	srv := api.NewServer(sched, pipeline.Sources, cfg.CORSOrigins)
	go func() {
		logrus.Infof("Server starting on port %s...", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Echo.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Shutdown: %v", err)
	}
}
