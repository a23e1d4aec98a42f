// Package config loads pidminter settings from flags, PIDMINTER_*
// environment variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable pidminter reads.
const EnvPrefix = "PIDMINTER"

// Config is the complete pidminter configuration.
type Config struct {
	Store   string `mapstructure:"store" yaml:"store"`
	Backend string `mapstructure:"backend" yaml:"backend"`
	DryRun  bool   `mapstructure:"dry-run" yaml:"dry-run"`
	Format  string `mapstructure:"format" yaml:"format"`
	Debug   bool   `mapstructure:"debug" yaml:"debug"`

	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Notify NotifyConfig `mapstructure:"notify" yaml:"notify"`
}

// LogConfig controls the application log and the transaction log.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Stdout bool   `mapstructure:"stdout" yaml:"stdout"`

	// Transaction log rotation
	MaxSizeMB  int  `mapstructure:"max-size-mb" yaml:"max-size-mb"`
	MaxBackups int  `mapstructure:"max-backups" yaml:"max-backups"`
	MaxAgeDays int  `mapstructure:"max-age-days" yaml:"max-age-days"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// NotifyConfig controls administrator error notification.
type NotifyConfig struct {
	Enabled           bool          `mapstructure:"enabled" yaml:"enabled"`
	SuppressionWindow time.Duration `mapstructure:"suppression-window" yaml:"suppression-window"`
	ErrorLifetime     time.Duration `mapstructure:"error-lifetime" yaml:"error-lifetime"`
	SMTPAddr          string        `mapstructure:"smtp-addr" yaml:"smtp-addr"`
	From              string        `mapstructure:"from" yaml:"from"`
	To                []string      `mapstructure:"to" yaml:"to"`
}

// Defaults
const (
	DefaultBackend           = "json"
	DefaultFormat            = "yaml"
	DefaultLogLevel          = "warn"
	DefaultMaxSizeMB         = 100
	DefaultMaxBackups        = 10
	DefaultSuppressionWindow = time.Hour
	DefaultErrorLifetime     = 24 * time.Hour
)

// NewViper returns a viper instance wired for pidminter: PIDMINTER_CONFIG
// names an explicit config file, otherwise pidminter.yaml is looked up in
// the current directory, $HOME/.pidminter and /etc/pidminter.
func NewViper() *viper.Viper {
	v := viper.New()

	if configFile := os.Getenv(EnvPrefix + "_CONFIG"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("pidminter")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.pidminter")
		v.AddConfigPath("/etc/pidminter")
	}

	v.SetEnvPrefix(EnvPrefix)
	// --dry-run -> PIDMINTER_DRY_RUN, log.level -> PIDMINTER_LOG_LEVEL
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	return v
}

// SetDefaults registers the default value of every setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend", DefaultBackend)
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("dry-run", false)
	v.SetDefault("debug", false)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.stdout", false)
	v.SetDefault("log.max-size-mb", DefaultMaxSizeMB)
	v.SetDefault("log.max-backups", DefaultMaxBackups)
	v.SetDefault("log.max-age-days", 0)
	v.SetDefault("log.compress", false)
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.suppression-window", DefaultSuppressionWindow)
	v.SetDefault("notify.error-lifetime", DefaultErrorLifetime)
	v.SetDefault("notify.smtp-addr", "")
	v.SetDefault("notify.from", "")
	v.SetDefault("notify.to", []string{})
}

// Load reads the config file, if any, and decodes every setting. A missing
// config file is not an error; a malformed one is.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}
