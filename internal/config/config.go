package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Cache  CacheConfig  `yaml:"cache"`
	Audit  AuditConfig  `yaml:"audit"`
}

type ServerConfig struct {
	Environment string `yaml:"environment"`
}

// StoreConfig configures the Postgres connection pool backing internal/models.
type StoreConfig struct {
	MaxOpenConnections       int `yaml:"max_open_connections"`
	MaxIdleConnections       int `yaml:"max_idle_connections"`
	ConnectionMaxLifetimeMin int `yaml:"connection_max_lifetime_minutes"`
}

// CacheConfig configures the Rate Store's LRU + Redis active-version pointer.
type CacheConfig struct {
	LookupEntries     int    `yaml:"lookup_entries"`
	CacheTTLMinutes   int    `yaml:"cache_ttl_minutes"`
	VersionPointerKey string `yaml:"version_pointer_key"`
}

// AuditConfig holds the variance thresholds and batch/coordinator tuning
// knobs used by internal/variance and internal/audit.
type AuditConfig struct {
	ApprovedMaxVariancePct     float64 `yaml:"approved_max_variance_pct"`
	ReviewMaxVariancePct       float64 `yaml:"review_max_variance_pct"`
	DGFFreightTolerancePct     float64 `yaml:"dgf_freight_tolerance_pct"`
	DGFHandlingTolerancePct    float64 `yaml:"dgf_handling_tolerance_pct"`
	PersistBatchSize           int     `yaml:"persist_batch_size"`
	InvoiceTimeoutSeconds      int     `yaml:"invoice_timeout_seconds"`
	MaxConcurrentInvoiceAudits int     `yaml:"max_concurrent_invoice_audits"`
}

var appConfig *Config

// Load loads configuration from a YAML file.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		rootPath := filepath.Join("..", configPath)
		if _, err := os.Stat(rootPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		configPath = rootPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	appConfig = &cfg
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Audit.ApprovedMaxVariancePct == 0 {
		cfg.Audit.ApprovedMaxVariancePct = 5.0
	}
	if cfg.Audit.ReviewMaxVariancePct == 0 {
		cfg.Audit.ReviewMaxVariancePct = 15.0
	}
	if cfg.Audit.DGFFreightTolerancePct == 0 {
		cfg.Audit.DGFFreightTolerancePct = 5.0
	}
	if cfg.Audit.DGFHandlingTolerancePct == 0 {
		cfg.Audit.DGFHandlingTolerancePct = 10.0
	}
	if cfg.Audit.PersistBatchSize == 0 {
		cfg.Audit.PersistBatchSize = 50
	}
	if cfg.Audit.InvoiceTimeoutSeconds == 0 {
		cfg.Audit.InvoiceTimeoutSeconds = 30
	}
	if cfg.Audit.MaxConcurrentInvoiceAudits == 0 {
		cfg.Audit.MaxConcurrentInvoiceAudits = 8
	}
	if cfg.Cache.LookupEntries == 0 {
		cfg.Cache.LookupEntries = 2048
	}
	if cfg.Cache.CacheTTLMinutes == 0 {
		cfg.Cache.CacheTTLMinutes = 15
	}
	if cfg.Cache.VersionPointerKey == "" {
		cfg.Cache.VersionPointerKey = "ratecards:active_version"
	}
}

// Get returns the global config instance.
func Get() *Config {
	if appConfig == nil {
		panic("config not loaded - call Load() first")
	}
	return appConfig
}

// MustLoad loads config or panics.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}
