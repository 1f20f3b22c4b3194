package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                  string `yaml:"port"`
	LogLevel              string `yaml:"logLevel"`
	DatabaseURL           string `yaml:"databaseURL"`
	RedisAddr             string `yaml:"redisAddr"`
	RedisPassword         string `yaml:"redisPassword"`
	AMQPURL               string `yaml:"amqpURL"`
	MinioEndpoint         string `yaml:"minioEndpoint"`
	MinioAccessKey        string `yaml:"minioAccessKey"`
	MinioSecretKey        string `yaml:"minioSecretKey"`
	MinioBucket           string `yaml:"minioBucket"`
	MinioUseSSL           bool   `yaml:"minioUseSSL"`
	JWTSecret             string `yaml:"jwtSecret"`
	AccessTokenTTLMinutes int    `yaml:"accessTokenTTLMinutes"`
	RefreshTTLMultiple    int    `yaml:"refreshTTLMultiple"`
	OTPLength             int    `yaml:"otpLength"`
	OTPResendSeconds      int    `yaml:"otpResendSeconds"`
	ContentTTLDays        int    `yaml:"contentTTLDays"`
	SweepIntervalMinutes  int    `yaml:"sweepIntervalMinutes"`
	MaxUploadMB           int    `yaml:"maxUploadMB"`
	MaxImagesPerPost      int    `yaml:"maxImagesPerPost"`
	AdminEmail            string `yaml:"adminEmail"`
	AdminUsername         string `yaml:"adminUsername"`
	AdminPassword         string `yaml:"adminPassword"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.AMQPURL = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if useSSL, err := strconv.ParseBool(v); err == nil {
			cfg.MinioUseSSL = useSSL
		}
	}
	if v := os.Getenv("CLIPSHARE_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("CLIPSHARE_ACCESS_TOKEN_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AccessTokenTTLMinutes = n
		}
	}
	if v := os.Getenv("CLIPSHARE_REFRESH_TTL_MULTIPLE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RefreshTTLMultiple = n
		}
	}
	if v := os.Getenv("CLIPSHARE_OTP_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.OTPLength = n
		}
	}
	if v := os.Getenv("CLIPSHARE_OTP_RESEND_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.OTPResendSeconds = n
		}
	}
	if v := os.Getenv("CLIPSHARE_CONTENT_TTL_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ContentTTLDays = n
		}
	}
	if v := os.Getenv("CLIPSHARE_SWEEP_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SweepIntervalMinutes = n
		}
	}
	if v := os.Getenv("CLIPSHARE_MAX_UPLOAD_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxUploadMB = n
		}
	}
	if v := os.Getenv("CLIPSHARE_MAX_IMAGES_PER_POST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxImagesPerPost = n
		}
	}
	if v := os.Getenv("CLIPSHARE_ADMIN_EMAIL"); v != "" {
		cfg.AdminEmail = v
	}
	if v := os.Getenv("CLIPSHARE_ADMIN_USERNAME"); v != "" {
		cfg.AdminUsername = v
	}
	if v := os.Getenv("CLIPSHARE_ADMIN_PASSWORD"); v != "" {
		cfg.AdminPassword = v
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AccessTokenTTLMinutes == 0 {
		cfg.AccessTokenTTLMinutes = 15
	}
	if cfg.RefreshTTLMultiple == 0 {
		cfg.RefreshTTLMultiple = 7
	}
	if cfg.OTPLength == 0 {
		cfg.OTPLength = 6
	}
	if cfg.OTPResendSeconds == 0 {
		cfg.OTPResendSeconds = 60
	}
	if cfg.ContentTTLDays == 0 {
		cfg.ContentTTLDays = 6
	}
	if cfg.SweepIntervalMinutes == 0 {
		cfg.SweepIntervalMinutes = 60
	}
	if cfg.MaxUploadMB == 0 {
		cfg.MaxUploadMB = 512
	}
	if cfg.MaxImagesPerPost == 0 {
		cfg.MaxImagesPerPost = 5
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or PORT)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required (set in config.yaml or REDIS_ADDR)")
	}
	if cfg.MinioEndpoint == "" || cfg.MinioBucket == "" {
		return errors.New("config: minioEndpoint and minioBucket are required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("config: jwtSecret is required (set in config.yaml or CLIPSHARE_JWT_SECRET)")
	}
	if cfg.AccessTokenTTLMinutes <= 0 {
		return errors.New("config: accessTokenTTLMinutes must be > 0")
	}
	if cfg.RefreshTTLMultiple <= 0 {
		return errors.New("config: refreshTTLMultiple must be > 0")
	}
	if cfg.OTPLength < 4 || cfg.OTPLength > 10 {
		return errors.New("config: otpLength must be between 4 and 10")
	}
	if cfg.ContentTTLDays <= 0 {
		return errors.New("config: contentTTLDays must be > 0")
	}
	if cfg.SweepIntervalMinutes <= 0 {
		return errors.New("config: sweepIntervalMinutes must be > 0")
	}
	if cfg.MaxUploadMB <= 0 {
		return errors.New("config: maxUploadMB must be > 0")
	}
	if cfg.MaxImagesPerPost <= 0 {
		return errors.New("config: maxImagesPerPost must be > 0")
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		return errors.New("config: adminPassword is required when adminEmail is set")
	}
	return nil
}
