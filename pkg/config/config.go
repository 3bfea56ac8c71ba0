// Package config loads the process configuration from a YAML file and TRINO_RECONCILER_* env vars.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kyma-incubator/trino-reconciler/pkg/db"
	"github.com/kyma-incubator/trino-reconciler/pkg/engine"
	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
	file "github.com/kyma-incubator/trino-reconciler/pkg/files"
	"github.com/kyma-incubator/trino-reconciler/pkg/provisioner"
	"github.com/kyma-incubator/trino-reconciler/pkg/ssl"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	EnvVarPrefix = "TRINO_RECONCILER"

	InstallerSDK = "sdk"
	InstallerCLI = "cli"
)

type Config struct {
	Kubeconfig string          `mapstructure:"kubeconfig"`
	Server     ServerConfig    `mapstructure:"server"`
	Engine     EngineConfig    `mapstructure:"engine"`
	Rollout    RolloutConfig   `mapstructure:"rollout"`
	Catalog    CatalogConfig   `mapstructure:"catalog"`
	Inventory  InventoryConfig `mapstructure:"inventory"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	SSLCrt   string `mapstructure:"sslCrt"`
	SSLKey   string `mapstructure:"sslKey"`
	AuditLog string `mapstructure:"auditLog"`
}

type EngineConfig struct {
	Installer   string        `mapstructure:"installer"`
	Binary      string        `mapstructure:"binary"`
	ReleaseName string        `mapstructure:"releaseName"`
	Chart       string        `mapstructure:"chart"`
	RepoURL     string        `mapstructure:"repoURL"`
	Version     string        `mapstructure:"version"`
	Workers     int           `mapstructure:"workers"`
	Values      []string      `mapstructure:"values"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Wait        bool          `mapstructure:"wait"`
}

type RolloutConfig struct {
	Identity string        `mapstructure:"identity"`
	Wait     bool          `mapstructure:"wait"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type CatalogConfig struct {
	SensitivePrefixes []string          `mapstructure:"sensitivePrefixes"`
	Labels            map[string]string `mapstructure:"labels"`
}

type InventoryConfig struct {
	Enabled bool      `mapstructure:"enabled"`
	DB      db.Config `mapstructure:"db"`
}

func setDefaults(v *viper.Viper) {
	params := engine.DefaultParams()
	v.SetDefault("kubeconfig", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.sslCrt", "")
	v.SetDefault("server.sslKey", "")
	v.SetDefault("server.auditLog", "")
	v.SetDefault("engine.installer", InstallerSDK)
	v.SetDefault("engine.binary", "helm")
	v.SetDefault("engine.releaseName", params.ReleaseName)
	v.SetDefault("engine.chart", params.Chart)
	v.SetDefault("engine.repoURL", "https://trinodb.github.io/charts")
	v.SetDefault("engine.version", "")
	v.SetDefault("engine.workers", params.Workers)
	v.SetDefault("engine.values", []string{})
	v.SetDefault("engine.timeout", params.Timeout)
	v.SetDefault("engine.wait", false)
	v.SetDefault("rollout.identity", "trino")
	v.SetDefault("rollout.wait", false)
	v.SetDefault("rollout.interval", 5*time.Second)
	v.SetDefault("rollout.timeout", 5*time.Minute)
	v.SetDefault("catalog.sensitivePrefixes", []string{})
	v.SetDefault("inventory.enabled", false)
	v.SetDefault("inventory.db.driver", "sqlite")
	v.SetDefault("inventory.db.blockQueries", true)
	v.SetDefault("inventory.db.logQueries", false)
	v.SetDefault("inventory.db.sqlite.file", "trino-reconciler.db")
	v.SetDefault("inventory.db.sqlite.resetDatabase", false)
	v.SetDefault("inventory.db.postgres.host", "localhost")
	v.SetDefault("inventory.db.postgres.port", 5432)
	v.SetDefault("inventory.db.postgres.database", "trino-reconciler")
	v.SetDefault("inventory.db.postgres.user", "")
	v.SetDefault("inventory.db.postgres.password", "")
	v.SetDefault("inventory.db.postgres.sslMode", false)
	v.SetDefault("inventory.db.postgres.maxOpenConns", 10)
	v.SetDefault("inventory.db.postgres.maxIdleConns", 5)
	v.SetDefault("inventory.db.postgres.connMaxLifetime", 30*time.Minute)
}

// NewViper returns a viper instance with defaults and env var binding. Nested keys are
// mapped to env vars by replacing dots with underscores, e.g. TRINO_RECONCILER_ENGINE_WORKERS.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration file (optional) and env vars.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		if !file.Exists(configFile) {
			return nil, e.NewConfigurationError(nil, "configuration file '%s' not found", configFile)
		}
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, e.NewConfigurationError(err, "failed to read configuration file '%s'", configFile)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, e.NewConfigurationError(err, "failed to decode configuration")
	}
	return &cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return e.NewConfigurationError(nil, "port %d is out of range 1-65535", c.Server.Port)
	}
	if err := ssl.VerifyKeyPair(c.Server.SSLCrt, c.Server.SSLKey); err != nil {
		return e.NewConfigurationError(err, "invalid TLS configuration")
	}
	switch c.Engine.Installer {
	case InstallerSDK, InstallerCLI:
	default:
		return e.NewConfigurationError(nil, "engine installer '%s' not supported: choose between '%s' and '%s'",
			c.Engine.Installer, InstallerSDK, InstallerCLI)
	}
	if err := c.Engine.Params().Validate(); err != nil {
		return err
	}
	if c.Inventory.Enabled && !c.Inventory.DB.Enabled() {
		return e.NewConfigurationError(nil, "inventory is enabled but no database driver is configured")
	}
	return nil
}

// Params returns the release parameters of the engine.
func (c EngineConfig) Params() engine.Params {
	return engine.Params{
		ReleaseName: c.ReleaseName,
		Chart:       c.Chart,
		RepoURL:     c.RepoURL,
		Version:     c.Version,
		Workers:     c.Workers,
		Values:      c.Values,
		Timeout:     c.Timeout,
		Wait:        c.Wait,
	}
}

// Provisioner returns the configuration of the provisioning service.
func (c *Config) Provisioner() provisioner.Config {
	return provisioner.Config{
		Engine:            c.Engine.Params(),
		EngineIdentity:    c.Rollout.Identity,
		SensitivePrefixes: nonEmpty(c.Catalog.SensitivePrefixes),
		Labels:            nonEmptyMap(c.Catalog.Labels),
		WaitForRollout:    c.Rollout.Wait,
		RolloutInterval:   c.Rollout.Interval,
		RolloutTimeout:    c.Rollout.Timeout,
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("port=%d installer=%s release=%s chart=%s workers=%d inventory=%t",
		c.Server.Port, c.Engine.Installer, c.Engine.ReleaseName, c.Engine.Chart, c.Engine.Workers, c.Inventory.Enabled)
}

// empty lists fall back to the builder defaults
func nonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}

func nonEmptyMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	return values
}
