package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	portfolio "github.com/arkadas/portfolio-api"
	"github.com/arkadas/portfolio-api/internal/apiserver"
	"github.com/arkadas/portfolio-api/internal/config"
	"github.com/arkadas/portfolio-api/internal/mailer"
	"github.com/arkadas/portfolio-api/internal/seed"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to configuration file")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, *configPath, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, logger *slog.Logger) error {
	conf, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := portfolio.New(portfolio.Config{
		DataDir:            conf.DataDir,
		BackupDir:          conf.BackupDir,
		Backend:            conf.Storage.Backend,
		MinimumFreeGB:      conf.Storage.MinimumFreeGB,
		CompressBackups:    conf.Backups.Compress,
		CheckpointInterval: conf.Backups.CheckpointInterval.Std(),
		Logger:             logger,
	})
	if err != nil {
		return err
	}
	if err := db.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logger.Warn("error closing service", "error", err)
		}
	}()

	if health := db.Store().VerifyIntegrity(ctx); !health.Healthy {
		logger.Warn("store health check failed at startup", "message", health.Message)
	} else if empty, err := seed.Empty(ctx, db.Store()); err != nil {
		logger.Warn("auto-seed check failed", "error", err)
	} else if empty {
		logger.Info("store is empty, seeding sample data")
		if _, err := seed.Apply(ctx, db.Store(), logger); err != nil {
			logger.Warn("auto-seed failed", "error", err)
		}
	}

	contactMailer := mailer.New(conf.SMTP, logger)
	if !contactMailer.Enabled() {
		logger.Info("contact notifications disabled, SMTP not configured")
	}

	api := apiserver.New(db,
		apiserver.WithLogger(logger),
		apiserver.WithAuth(apiserver.BasicAuth(conf.Admin.Username, conf.Admin.Password)),
		apiserver.WithMailer(contactMailer),
		apiserver.WithUploadsDir(conf.UploadsDir),
		apiserver.WithCORSOrigins(conf.CORSOrigins),
		apiserver.WithRetention(conf.Backups.Keep),
	)

	srv := &http.Server{
		Addr:              conf.Listen,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", conf.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
