// Package config loads vozgraph settings from YAML and the environment
// with viper.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VOZGRAPH_"

// Config is the full runtime configuration of the vozgraph service and CLI.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	History    HistoryConfig    `mapstructure:"history" yaml:"history"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	Input      InputConfig      `mapstructure:"input" yaml:"input"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigin      string        `mapstructure:"cors_origin" yaml:"cors_origin"`
}

// StoreConfig selects and tunes the session store.
// Kind is one of "memory", "file" or "redis".
type StoreConfig struct {
	Kind            string        `mapstructure:"kind" yaml:"kind"`
	Dir             string        `mapstructure:"dir" yaml:"dir"`
	RedisAddr       string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db" yaml:"redis_db"`
	TTL             time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Prefix          string        `mapstructure:"prefix" yaml:"prefix"`
	DistributedLock bool          `mapstructure:"distributed_lock" yaml:"distributed_lock"`
	EncryptionKey   string        `mapstructure:"encryption_key" yaml:"encryption_key"`
	FallbackKeys    []string      `mapstructure:"fallback_keys" yaml:"fallback_keys"`
	Redact          []string      `mapstructure:"redact" yaml:"redact"`
}

type HistoryConfig struct {
	Limit int `mapstructure:"limit" yaml:"limit"`
}

type ClassifierConfig struct {
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

type InputConfig struct {
	MaxSize int `mapstructure:"max_size" yaml:"max_size"`
}

// LogConfig selects the slog level and handler. Format is "text" or "json".
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			CORSOrigin:      "*",
		},
		Store: StoreConfig{
			Kind: "memory",
			Dir:  ".vozgraph/sessions",
		},
		History: HistoryConfig{Limit: 20},
		Input:   InputConfig{MaxSize: 1024},
		Log:     LogConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads an optional YAML file, then applies VOZGRAPH_<SECTION>_<KEY>
// environment overrides. An empty path skips the file. Unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, Default())

	v.SetEnvPrefix(strings.TrimSuffix(EnvPrefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.UnmarshalExact(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so that environment overrides apply even
// when the file does not mention the key.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origin", d.Server.CORSOrigin)

	v.SetDefault("store.kind", d.Store.Kind)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.redis_addr", d.Store.RedisAddr)
	v.SetDefault("store.redis_password", d.Store.RedisPassword)
	v.SetDefault("store.redis_db", d.Store.RedisDB)
	v.SetDefault("store.ttl", d.Store.TTL)
	v.SetDefault("store.prefix", d.Store.Prefix)
	v.SetDefault("store.distributed_lock", d.Store.DistributedLock)
	v.SetDefault("store.encryption_key", d.Store.EncryptionKey)
	v.SetDefault("store.fallback_keys", []string{})
	v.SetDefault("store.redact", []string{})

	v.SetDefault("history.limit", d.History.Limit)
	v.SetDefault("classifier.strict", d.Classifier.Strict)
	v.SetDefault("input.max_size", d.Input.MaxSize)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}

// Validate checks values that cannot be expressed by types alone.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown store kind %q (want memory, file or redis)", c.Store.Kind)
	}
	if c.Store.Kind == "redis" && c.Store.RedisAddr == "" {
		return fmt.Errorf("store.redis_addr is required for the redis store")
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must not be negative")
	}
	if _, _, err := c.Store.Keys(); err != nil {
		return err
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q (want text or json)", c.Log.Format)
	}
	return nil
}

// Keys decodes the hex encryption keys. Both results are nil when encryption is off.
func (s StoreConfig) Keys() ([]byte, [][]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err := decodeKey(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	var fallback [][]byte
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("key must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// SlogLevel parses the configured level name.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
