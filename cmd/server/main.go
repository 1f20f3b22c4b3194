package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"clipshare/internal/app"
	"clipshare/internal/config"
	"clipshare/internal/server"
	"clipshare/internal/util"
	"clipshare/pkg/notify"
	"clipshare/pkg/storage"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	objects, err := storage.NewMinioStore(
		cfg.MinioEndpoint,
		cfg.MinioAccessKey,
		cfg.MinioSecretKey,
		cfg.MinioBucket,
		cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	var amqpNotifier *notify.AMQPNotifier
	if cfg.AMQPURL != "" {
		amqpNotifier, err = notify.NewAMQPNotifier(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("failed to init notifier: %v", err)
		}
		notifier = amqpNotifier
		defer amqpNotifier.Close()
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:        cfg.DatabaseURL,
		RedisAddr:          cfg.RedisAddr,
		RedisPassword:      cfg.RedisPassword,
		JWTSecret:          cfg.JWTSecret,
		AccessTokenTTL:     time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute,
		RefreshTTLMultiple: cfg.RefreshTTLMultiple,
		OTPLength:          cfg.OTPLength,
		OTPResendWindow:    time.Duration(cfg.OTPResendSeconds) * time.Second,
		ContentTTL:         time.Duration(cfg.ContentTTLDays) * 24 * time.Hour,
		MaxImagesPerPost:   cfg.MaxImagesPerPost,
		Objects:            objects,
		Notifier:           notifier,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	if cfg.AdminEmail != "" {
		admin, err := appCore.EnsureAdmin(cfg.AdminEmail, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("failed to seed admin account: %v", err)
		}
		slog.Info("admin account ready", "email", admin.Email)
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := appCore.RunSweeper(ctx, time.Duration(cfg.SweepIntervalMinutes)*time.Minute)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
}
