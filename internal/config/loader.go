// Package config provides centralized configuration management for megacheck.
// Layering, lowest precedence first:
// 1. Built-in defaults (SetDefaults)
// 2. YAML config file (explicit path, XDG config dir, or ./config)
// 3. .env file in the working directory
// 4. MEGACHECK_* environment variables
// 5. Flags bound by the CLI
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/meganame/megacheck/internal/appid"
	"github.com/meganame/megacheck/internal/core"
	"github.com/meganame/megacheck/internal/core/engine"
	"github.com/meganame/megacheck/internal/core/registry"
)

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// SetDefaults registers built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.environment", "production")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("registry.rpc_url", registry.DefaultRPCURL)
	v.SetDefault("registry.names_address", registry.DefaultNamesAddress)
	v.SetDefault("registry.multicall_address", registry.DefaultMulticallAddress)
	v.SetDefault("registry.timeout", engine.DefaultTimeout)
	v.SetDefault("registry.concurrency", engine.DefaultConcurrency)
	v.SetDefault("registry.batch_size", engine.DefaultBatchSize)
	v.SetDefault("registry.multicall", true)
	v.SetDefault("registry.requests_per_second", 0)
	v.SetDefault("registry.burst", 1)
	v.SetDefault("registry.min_label_length", core.DefaultMinLabelLength)
	v.SetDefault("registry.max_label_length", core.DefaultMaxLabelLength)

	v.SetDefault("batch.max_names", engine.DefaultMaxBatch)
}

// Prepare wires defaults, environment binding and config file discovery into v.
// An explicit configFile must exist; discovered files are optional.
func Prepare(v *viper.Viper, configFile string) error {
	SetDefaults(v)

	if err := loadDotEnv(); err != nil {
		return err
	}

	v.SetEnvPrefix(strings.TrimSuffix(appid.EnvPrefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", configFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir := gfconfig.GetAppConfigDir(appid.ConfigName); strings.TrimSpace(dir) != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// Load decodes v into a typed Config and validates it.
// This function is safe to call multiple times (e.g., for config reload)
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Batch.MaxNames < 1 {
		problems = append(problems, "batch.max_names must be positive")
	}
	if c.Registry.Concurrency < 1 {
		problems = append(problems, "registry.concurrency must be positive")
	}
	if c.Registry.Timeout <= 0 {
		problems = append(problems, "registry.timeout must be positive")
	}
	if c.Registry.RequestsPerSecond < 0 {
		problems = append(problems, "registry.requests_per_second cannot be negative")
	}
	if c.Registry.MinLabelLength < 1 || c.Registry.MaxLabelLength < c.Registry.MinLabelLength {
		problems = append(problems, fmt.Sprintf("registry label length bounds %d..%d are invalid",
			c.Registry.MinLabelLength, c.Registry.MaxLabelLength))
	}
	if u, err := url.Parse(c.Registry.RPCURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("registry.rpc_url %q is not an absolute URL", c.Registry.RPCURL))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := gfconfig.GetAppConfigDir(appid.ConfigName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// loadDotEnv reads .env from the working directory without overriding
// variables already set in the process environment.
func loadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
