package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port            string
	MaxFileSize     int64
	UploadDir       string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// ScanConfig holds the defaults for turning scans into pages.
type ScanConfig struct {
	DPI         int
	Reduction   int
	PageSize    string
	JPEGQuality int
	Optimize    bool
}

// StorageConfig holds S3 connectivity. Local paths need no configuration.
type StorageConfig struct {
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Server  ServerConfig
	Scan    ScanConfig
	Storage StorageConfig
}

// Load reads .env from the working directory, if present, and then the
// environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	return FromEnv(), nil
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_minpdf",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Server = ServerConfig{
		Port:            getEnv("PORT", "8080"),
		MaxFileSize:     parseInt64(getEnv("MAX_FILE_SIZE", ""), 10*1024*1024),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		ReadTimeout:     parseDuration(getEnv("SERVER_READ_TIMEOUT", "15s"), 15*time.Second),
		WriteTimeout:    parseDuration(getEnv("SERVER_WRITE_TIMEOUT", "60s"), 60*time.Second),
		IdleTimeout:     parseDuration(getEnv("SERVER_IDLE_TIMEOUT", "60s"), 60*time.Second),
		ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
	}

	cfg.Scan = ScanConfig{
		DPI:         parseInt(getEnv("SCAN_DPI", "300"), 300),
		Reduction:   parseInt(getEnv("SCAN_REDUCTION", "1"), 1),
		PageSize:    getEnv("PAGE_SIZE", "letter"),
		JPEGQuality: parseInt(getEnv("JPEG_QUALITY", "75"), 75),
		Optimize:    parseBool(getEnv("OPTIMIZE_OUTPUT", "0")),
	}

	cfg.Storage = StorageConfig{
		Region:          getEnv("AWS_REGION", ""),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		PathStyle:       parseBool(getEnv("S3_PATH_STYLE", "0")),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseInt64(s string, def int64) int64 {
	if s == "" {
		return def
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
