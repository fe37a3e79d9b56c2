// Package config loads cephctl's configuration: CEPHCTL_* environment
// variables, then a YAML file, then defaults, with the viper/mapstructure
// plumbing the teacher's pkg/config uses. Load binds no CLI flags to
// fields; the only flag-driven input is the file path its caller passes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/marmos91/cephmsgr/internal/logger"
)

// Config is cephctl's static configuration: everything needed to dial a
// monitor, authenticate, and run the admin/metrics surface.
type Config struct {
	Keyring   KeyringConfig   `mapstructure:"keyring" yaml:"keyring" validate:"required"`
	Cluster   ClusterConfig   `mapstructure:"cluster" yaml:"cluster" validate:"required"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Admin     AdminAPIConfig  `mapstructure:"admin" yaml:"admin"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Audit     AuditConfig     `mapstructure:"audit" yaml:"audit"`
}

// KeyringConfig locates the CephX secret this client authenticates
// with, mirroring a ceph.keyring entry's [client.NAME] section.
type KeyringConfig struct {
	Path   string `mapstructure:"path" yaml:"path" validate:"required"`
	Entity string `mapstructure:"entity" yaml:"entity" validate:"required"`
}

// ClusterConfig is the set of monitors to try and the msgr2 features to
// negotiate with them.
type ClusterConfig struct {
	MonitorAddresses []string `mapstructure:"monitor_addresses" yaml:"monitor_addresses" validate:"required,min=1,dive,required"`
	TicketsFor       []string `mapstructure:"tickets_for" yaml:"tickets_for"`
	SupportRev21     bool     `mapstructure:"support_rev21" yaml:"support_rev21"`
}

// LoggingConfig configures internal/logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
	Output string `mapstructure:"output" yaml:"output"`
}

// TelemetryConfig configures pkg/telemetry's OpenTelemetry tracer
// provider.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// MetricsConfig configures pkg/metrics' Prometheus HTTP exporter.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address" validate:"omitempty,hostname_port"`
}

// AdminAPIConfig configures pkg/adminapi's chi-based status endpoint.
type AdminAPIConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Address   string `mapstructure:"address" yaml:"address" validate:"omitempty,hostname_port"`
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
}

// StoreConfig configures pkg/store's badger-backed nonce/challenge
// ledger and monmap cache.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AuditConfig configures pkg/auditlog's gorm-backed handshake audit
// trail.
type AuditConfig struct {
	Dialect string `mapstructure:"dialect" yaml:"dialect" validate:"omitempty,oneof=sqlite postgres"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
}

// Load reads configuration from configPath (or the default XDG location
// when empty), overlays CEPHCTL_* environment variables, applies
// defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		logger.Debug("no config file found, using defaults", "path", configPath)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("CEPHCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: reading config file: %w", err)
	}
	return true, nil
}

func defaultConfigDir() string {
	if dir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && dir != "" {
		return filepath.Join(dir, "cephctl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/cephctl"
	}
	return filepath.Join(home, ".config", "cephctl")
}

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// ApplyDefaults fills in zero-valued fields with sensible defaults,
// the way the teacher's ApplyDefaults does per-section.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "cephctl"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = "127.0.0.1:9273"
	}
	if cfg.Admin.Address == "" {
		cfg.Admin.Address = "127.0.0.1:8443"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(defaultConfigDir(), "store")
	}
	if cfg.Audit.Dialect == "" {
		cfg.Audit.Dialect = "sqlite"
	}
	if cfg.Audit.DSN == "" && cfg.Audit.Dialect == "sqlite" {
		cfg.Audit.DSN = filepath.Join(defaultConfigDir(), "audit.db")
	}
}
