package main

import (
	"strings"
	"time"

	"github.com/logbuf/logbuf-go"
	"github.com/logbuf/logbuf-go/core"
	"github.com/logbuf/logbuf-go/internal/logbuffer"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the configuration of a replay run.
type Config struct {
	// Subscriptions is the number of independent assemblers, each polled by its own worker.
	Subscriptions int `mapstructure:"subscriptions"`
	// Sessions is the number of publishers interleaved on every subscription.
	Sessions int `mapstructure:"sessions"`
	// Messages is the number of messages published by every session.
	Messages int `mapstructure:"messages"`
	// MessageLength is the payload length of every message.
	MessageLength int `mapstructure:"message_length"`
	MTU           int `mapstructure:"mtu"`
	TermLength    int `mapstructure:"term_length"`
	// FragmentLimit is the number of fragments polled from an image before moving to the next one.
	FragmentLimit       int           `mapstructure:"fragment_limit"`
	InitialBufferLength int           `mapstructure:"initial_buffer_length"`
	MaxMessageLength    int           `mapstructure:"max_message_length"`
	IdleTimeout         time.Duration `mapstructure:"idle_timeout"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr or file paths
	Outputs  []string       `mapstructure:"outputs"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool `mapstructure:"enable"`
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Subscriptions:       1,
		Sessions:            4,
		Messages:            64,
		MessageLength:       1000,
		MTU:                 1408,
		TermLength:          16 * 1024 * 1024,
		FragmentLimit:       10,
		InitialBufferLength: logbuf.DefaultInitialBufferLength,
		MaxMessageLength:    logbuf.DefaultMaxMessageLength,
		IdleTimeout:         time.Second,
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
			},
		},
	}
}

// Load reads configuration from path if it is not empty, then applies environment overrides.
// Environment variables use the prefix LOGBUF, e.g. LOGBUF_LOG_LEVEL=debug.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("LOGBUF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("subscriptions", cfg.Subscriptions)
	v.SetDefault("sessions", cfg.Sessions)
	v.SetDefault("messages", cfg.Messages)
	v.SetDefault("message_length", cfg.MessageLength)
	v.SetDefault("mtu", cfg.MTU)
	v.SetDefault("term_length", cfg.TermLength)
	v.SetDefault("fragment_limit", cfg.FragmentLimit)
	v.SetDefault("initial_buffer_length", cfg.InitialBufferLength)
	v.SetDefault("max_message_length", cfg.MaxMessageLength)
	v.SetDefault("idle_timeout", cfg.IdleTimeout)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s failed", path)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config failed")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values which would make a run meaningless.
func (c *Config) Validate() error {
	if c.Subscriptions < 1 || c.Sessions < 1 || c.Messages < 0 || c.FragmentLimit < 1 {
		return errors.New("subscriptions, sessions and fragment limit must be positive")
	}
	if c.MessageLength < 0 || c.MessageLength > c.MaxMessageLength {
		return errors.Errorf("message length %d outside [0,%d]", c.MessageLength, c.MaxMessageLength)
	}
	if c.IdleTimeout < pollTick {
		return errors.Errorf("idle timeout %s is shorter than the poll tick %s", c.IdleTimeout, pollTick)
	}
	if err := core.CheckTermLength(c.TermLength); err != nil {
		return err
	}
	return logbuffer.CheckMTU(c.MTU)
}
