// Package config loads runtime settings from the environment, an optional
// .env file and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/blogem/entrylog/database"
)

// Setting keys. Each one is read from the upper-cased environment variable
// of the same name (STORE_URI, PORT, ...).
const (
	KeyStoreURI        = "store_uri"
	KeyStoreDatabase   = "store_database"
	KeyPort            = "port"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyShutdownTimeout = "shutdown_timeout"

	KeyServerURL    = "entrylog_server"
	KeyReportWindow = "report_window"
	KeyS3Bucket     = "s3_bucket"
	KeyS3Region     = "s3_region"
	KeyS3Endpoint   = "s3_endpoint"
	KeyS3AccessKey  = "s3_access_key"
	KeyS3SecretKey  = "s3_secret_key"
	KeyS3PublicURL  = "s3_public_url"
)

// Config holds the server settings
type Config struct {
	StoreURI        string
	StoreDatabase   string
	Port            int
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// ReportConfig holds the settings of the sighting reporter
type ReportConfig struct {
	ServerURL string
	Window    time.Duration
	S3        S3Config
}

// S3Config describes the bucket snapshots are uploaded to
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

// Enabled reports whether snapshot uploads are configured
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// NewViper returns a viper instance reading the environment, with defaults set
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the default value of every setting
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyStoreURI, "sqlite://entrylog.db")
	v.SetDefault(KeyStoreDatabase, "entrylog")
	v.SetDefault(KeyPort, 5000)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyShutdownTimeout, 10*time.Second)

	v.SetDefault(KeyServerURL, "http://localhost:5000")
	v.SetDefault(KeyReportWindow, 60*time.Second)
	v.SetDefault(KeyS3Region, "us-east-1")
}

// LoadEnvFile loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables win.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}

// Load reads the server settings from v and validates them
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		StoreURI:        v.GetString(KeyStoreURI),
		StoreDatabase:   v.GetString(KeyStoreDatabase),
		Port:            v.GetInt(KeyPort),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFormat:       v.GetString(KeyLogFormat),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if c.StoreURI == "" {
		return fmt.Errorf("%s is required", "STORE_URI")
	}
	if _, _, err := database.ParseURI(c.StoreURI); err != nil {
		return err
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout %s", c.ShutdownTimeout)
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LoadReport reads the reporter settings from v
func LoadReport(v *viper.Viper) (*ReportConfig, error) {
	cfg := &ReportConfig{
		ServerURL: v.GetString(KeyServerURL),
		Window:    v.GetDuration(KeyReportWindow),
		S3: S3Config{
			Bucket:    v.GetString(KeyS3Bucket),
			Region:    v.GetString(KeyS3Region),
			Endpoint:  v.GetString(KeyS3Endpoint),
			AccessKey: v.GetString(KeyS3AccessKey),
			SecretKey: v.GetString(KeyS3SecretKey),
			PublicURL: v.GetString(KeyS3PublicURL),
		},
	}

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("%s is required", "ENTRYLOG_SERVER")
	}
	if cfg.Window < 0 {
		return nil, fmt.Errorf("invalid report window %s", cfg.Window)
	}
	return cfg, nil
}
