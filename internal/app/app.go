package app

import (
	"fmt"
	"time"

	"clipshare/pkg/auth"
	"clipshare/pkg/notify"
	"clipshare/pkg/storage"
	"clipshare/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	JWTSecret          string
	AccessTokenTTL     time.Duration
	RefreshTTLMultiple int
	OTPLength          int
	OTPResendWindow    time.Duration
	ContentTTL         time.Duration
	MaxImagesPerPost   int

	// Overrides for tests and local runs.
	Store    store.Store
	Objects  storage.ObjectStore
	Notifier notify.Notifier
	Limiter  CodeLimiter
}

// App is the core application service wiring together storage, object
// storage, token issuance, and notification.
type App struct {
	store      store.Store
	objects    storage.ObjectStore
	notifier   notify.Notifier
	signer     *auth.TokenSigner
	limiter    CodeLimiter
	refreshTTL time.Duration
	otpLength  int
	contentTTL time.Duration
	maxImages  int
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTTLMultiple <= 0 {
		cfg.RefreshTTLMultiple = 7
	}
	if cfg.OTPLength == 0 {
		cfg.OTPLength = 6
	}
	if cfg.ContentTTL == 0 {
		cfg.ContentTTL = 6 * 24 * time.Hour
	}
	if cfg.MaxImagesPerPost == 0 {
		cfg.MaxImagesPerPost = 5
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	objects := cfg.Objects
	if objects == nil {
		return nil, fmt.Errorf("object store required")
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}

	limiter := cfg.Limiter
	if limiter == nil && cfg.RedisAddr != "" {
		limiter = NewRedisCodeLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.OTPResendWindow)
	}

	return &App{
		store:      dataStore,
		objects:    objects,
		notifier:   notifier,
		signer:     auth.NewTokenSigner(cfg.JWTSecret, cfg.AccessTokenTTL),
		limiter:    limiter,
		refreshTTL: cfg.AccessTokenTTL * time.Duration(cfg.RefreshTTLMultiple),
		otpLength:  cfg.OTPLength,
		contentTTL: cfg.ContentTTL,
		maxImages:  cfg.MaxImagesPerPost,
	}, nil
}
