package config

import (
	"time"

	"github.com/meganame/megacheck/internal/core"
	"github.com/meganame/megacheck/internal/core/engine"
	"github.com/meganame/megacheck/internal/core/registry"
)

// Config represents the complete application configuration.
// Values are layered: built-in defaults, optional YAML file, .env file,
// MEGACHECK_* environment variables, then command-line flags.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Registry RegistryConfig `mapstructure:"registry"`
	Batch    BatchConfig    `mapstructure:"batch"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Environment is attached to structured server logs
	Environment string `mapstructure:"environment"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated Prometheus exporter port.
	// Metrics are also proxied at /metrics on the main HTTP port.
	Port int `mapstructure:"port"`
}

// RegistryConfig describes how to reach the MegaNames contract.
type RegistryConfig struct {
	RPCURL            string        `mapstructure:"rpc_url"`
	NamesAddress      string        `mapstructure:"names_address"`
	MulticallAddress  string        `mapstructure:"multicall_address"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Concurrency       int           `mapstructure:"concurrency"`
	BatchSize         int           `mapstructure:"batch_size"`
	Multicall         bool          `mapstructure:"multicall"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MinLabelLength    int           `mapstructure:"min_label_length"`
	MaxLabelLength    int           `mapstructure:"max_label_length"`
}

// BatchConfig bounds a single check request.
type BatchConfig struct {
	MaxNames int `mapstructure:"max_names"`
}

// LabelRules returns the label constraints configured for the registry.
func (c *Config) LabelRules() core.LabelRules {
	return core.LabelRules{
		MinLength: c.Registry.MinLabelLength,
		MaxLength: c.Registry.MaxLabelLength,
	}
}

// CheckerConfig derives the batch checker settings.
func (c *Config) CheckerConfig() engine.Config {
	batchSize := c.Registry.BatchSize
	if !c.Registry.Multicall {
		batchSize = 1
	}
	return engine.Config{
		MaxBatch:    c.Batch.MaxNames,
		Concurrency: c.Registry.Concurrency,
		BatchSize:   batchSize,
		Timeout:     c.Registry.Timeout,
		Rules:       c.LabelRules(),
	}
}

// RegistryOptions derives the MegaNames client options.
func (c *Config) RegistryOptions() registry.Options {
	return registry.Options{
		RPCURL:            c.Registry.RPCURL,
		NamesAddress:      c.Registry.NamesAddress,
		MulticallAddress:  c.Registry.MulticallAddress,
		Timeout:           c.Registry.Timeout,
		RequestsPerSecond: c.Registry.RequestsPerSecond,
		Burst:             c.Registry.Burst,
	}
}
