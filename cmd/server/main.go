package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/torahtrack/internal/api"
	"github.com/dgallion1/torahtrack/internal/config"
	"github.com/dgallion1/torahtrack/internal/dataset"
	"github.com/dgallion1/torahtrack/internal/logging"
	"github.com/dgallion1/torahtrack/internal/progress"
	"github.com/dgallion1/torahtrack/internal/tracker"
)

func main() {
	godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ds := dataset.NewStore(cfg.DatasetPath)
	if !ds.Exists() {
		log.Warn("dataset not found, serving an empty list until it is built", "path", cfg.DatasetPath)
	}

	prog, err := progress.Open(cfg.ProgressBackend, cfg.ProgressPath, log)
	if err != nil {
		log.Error("open progress store", "backend", cfg.ProgressBackend, "error", err)
		os.Exit(1)
	}

	svc := tracker.NewService(ds, prog, log)
	srv := api.NewServer(svc, ds, cfg.ReportPath, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		prog.Close()
	}()

	log.Info("starting torahtrack", "port", cfg.Port, "dataset", cfg.DatasetPath, "progress_backend", cfg.ProgressBackend)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
