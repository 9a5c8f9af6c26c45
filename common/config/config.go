// Package config provides configuration management for mediabridge.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvConfigDir names the directory holding config.yaml.
const (
	EnvConfigDir     = "MEDIABRIDGE_CONFIG_DIR"
	DefaultConfigDir = "/etc/mediabridge"
	EnvPrefix        = "MEDIABRIDGE"
)

// Config is the master configuration struct.
type Config struct {
	Translation TranslationConfig `mapstructure:"translation" yaml:"translation"`
	Video       VideoConfig       `mapstructure:"video" yaml:"video"`

	// Shared infrastructure configurations
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	NATS    NATSConfig    `mapstructure:"nats" yaml:"nats"`
	Redis   RedisConfig   `mapstructure:"redis" yaml:"redis"`
	DLQ     DLQConfig     `mapstructure:"dlq" yaml:"dlq"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// TranslationConfig holds the event translation tables. Tables are lists
// rather than maps because event and field names are case-sensitive.
type TranslationConfig struct {
	// ProductIdentifier is the product record key used as the product id.
	ProductIdentifier string `mapstructure:"product_identifier" yaml:"product_identifier"`

	// Prefix is prepended to unmapped properties. "a." means none.
	Prefix string `mapstructure:"prefix" yaml:"prefix"`

	// ContextValues maps event fields to context-data variables.
	ContextValues []FieldMapping `mapstructure:"context_values" yaml:"context_values"`

	// Actions maps track event names to backend action names. When
	// non-empty, unlisted generic track events are dropped.
	Actions []EventMapping `mapstructure:"actions" yaml:"actions"`

	// CommerceEvents adds event names for commerce actions, by backend
	// code ("purchase", "scAdd", ...). Replaces the defaults when set.
	CommerceEvents []EventMapping `mapstructure:"commerce_events" yaml:"commerce_events"`

	// VideoEvents adds aliases for video lifecycle events, targeting the
	// default event name ("Video Playback Started", ...).
	VideoEvents []EventMapping `mapstructure:"video_events" yaml:"video_events"`
}

// FieldMapping maps a field path to a destination variable.
type FieldMapping struct {
	Field    string `mapstructure:"field" yaml:"field"`
	Variable string `mapstructure:"variable" yaml:"variable"`
}

// EventMapping maps an upstream event name to a target name.
type EventMapping struct {
	Event  string `mapstructure:"event" yaml:"event"`
	Target string `mapstructure:"target" yaml:"target"`
}

// VideoConfig overrides the metadata tables of the video engine.
type VideoConfig struct {
	Metadata   []MetadataMapping `mapstructure:"metadata" yaml:"metadata"`
	AdMetadata []MetadataMapping `mapstructure:"ad_metadata" yaml:"ad_metadata"`
}

// MetadataMapping maps an event property to a standard metadata key.
type MetadataMapping struct {
	Field string `mapstructure:"field" yaml:"field"`
	Key   string `mapstructure:"key" yaml:"key"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Enabled             bool `mapstructure:"enabled" yaml:"enabled"`
	Port                int  `mapstructure:"port" yaml:"port"`
	ReadTimeoutSeconds  int  `mapstructure:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int  `mapstructure:"write_timeout_seconds" yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int  `mapstructure:"idle_timeout_seconds" yaml:"idle_timeout_seconds"`

	// AllowedOrigins lists browser origins allowed to post events.
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// ReadTimeout returns read timeout duration.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns write timeout duration.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// IdleTimeout returns idle timeout duration.
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// NATSConfig holds NATS message broker configuration
type NATSConfig struct {
	URL                  string `mapstructure:"url" yaml:"url"`
	Enabled              bool   `mapstructure:"enabled" yaml:"enabled"`
	Name                 string `mapstructure:"name" yaml:"name"`
	MaxReconnects        int    `mapstructure:"max_reconnects" yaml:"max_reconnects"`
	ReconnectWaitSeconds int    `mapstructure:"reconnect_wait_seconds" yaml:"reconnect_wait_seconds"`
	InboundSubject       string `mapstructure:"inbound_subject" yaml:"inbound_subject"`
	QueueGroup           string `mapstructure:"queue_group" yaml:"queue_group"`
	Token                string `mapstructure:"token" yaml:"token,omitempty"`
}

// ReconnectWait returns the reconnect wait as a time.Duration
func (n NATSConfig) ReconnectWait() time.Duration {
	return time.Duration(n.ReconnectWaitSeconds) * time.Second
}

// DLQConfig controls the on-disk dead-letter queue for inbound events that
// could not be decoded or translated.
type DLQConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// RedisConfig holds Redis configuration for the per-stream rate limiter.
type RedisConfig struct {
	URL               string `mapstructure:"url" yaml:"url"`
	Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
	MaxRetries        int    `mapstructure:"max_retries" yaml:"max_retries"`
	PoolSize          int    `mapstructure:"pool_size" yaml:"pool_size"`
	RateLimitEvents   int    `mapstructure:"rate_limit_events" yaml:"rate_limit_events"`
	RateWindowSeconds int    `mapstructure:"rate_window_seconds" yaml:"rate_window_seconds"`
}

// RateWindow returns the limiter window as a time.Duration.
func (r RedisConfig) RateWindow() time.Duration {
	return time.Duration(r.RateWindowSeconds) * time.Second
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Path returns the config file location: $MEDIABRIDGE_CONFIG_DIR/config.yaml,
// defaulting to /etc/mediabridge/config.yaml.
func Path() string {
	dir := os.Getenv(EnvConfigDir)
	if dir == "" {
		dir = DefaultConfigDir
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads configuration from Path() and environment variables.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads configuration from path and environment variables
// (MEDIABRIDGE_NATS_URL overrides nats.url). A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Read config file - don't fail if file doesn't exist
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration with every default applied and no
// file or environment input.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return &cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	// Translation defaults
	v.SetDefault("translation.product_identifier", "id")
	v.SetDefault("translation.prefix", "")

	// Server defaults
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8095)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// NATS defaults
	v.SetDefault("nats.url", "nats://nats:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.name", "mediabridge")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait_seconds", 2)
	v.SetDefault("nats.inbound_subject", "mediabridge.events.inbound")
	v.SetDefault("nats.queue_group", "mediabridge-workers")
	v.SetDefault("nats.token", "")

	// Redis defaults
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.rate_limit_events", 600)
	v.SetDefault("redis.rate_window_seconds", 60)

	v.SetDefault("dlq.enabled", false)
	v.SetDefault("dlq.path", "/var/lib/mediabridge/dlq")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks the configuration. checkPath validates one field path;
// translation tables are rejected at load time rather than per event.
func (c *Config) Validate(checkPath func(string) error) error {
	var errs []error

	seen := make(map[string]bool, len(c.Translation.ContextValues))
	for i, m := range c.Translation.ContextValues {
		if m.Variable == "" {
			errs = append(errs, fmt.Errorf("translation.context_values[%d]: empty variable", i))
		}
		if checkPath != nil {
			if err := checkPath(m.Field); err != nil {
				errs = append(errs, fmt.Errorf("translation.context_values[%d]: %w", i, err))
			}
		}
		if seen[m.Field] {
			errs = append(errs, fmt.Errorf("translation.context_values[%d]: duplicate field %q", i, m.Field))
		}
		seen[m.Field] = true
	}

	errs = append(errs, validateEvents("translation.actions", c.Translation.Actions)...)
	errs = append(errs, validateEvents("translation.commerce_events", c.Translation.CommerceEvents)...)
	errs = append(errs, validateEvents("translation.video_events", c.Translation.VideoEvents)...)
	errs = append(errs, validateMetadata("video.metadata", c.Video.Metadata)...)
	errs = append(errs, validateMetadata("video.ad_metadata", c.Video.AdMetadata)...)

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}
	if c.Redis.Enabled && (c.Redis.RateLimitEvents <= 0 || c.Redis.RateWindowSeconds <= 0) {
		errs = append(errs, errors.New("redis: rate_limit_events and rate_window_seconds must be positive"))
	}

	if c.DLQ.Enabled && c.DLQ.Path == "" {
		errs = append(errs, errors.New("dlq.path: required when dlq is enabled"))
	}

	return errors.Join(errs...)
}

func validateEvents(section string, mappings []EventMapping) []error {
	var errs []error
	for i, m := range mappings {
		if m.Event == "" || m.Target == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: event and target are required", section, i))
		}
	}
	return errs
}

func validateMetadata(section string, mappings []MetadataMapping) []error {
	var errs []error
	for i, m := range mappings {
		if m.Field == "" || m.Key == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: field and key are required", section, i))
		}
	}
	return errs
}

// Marshal renders c as YAML in the config.yaml layout.
func Marshal(c *Config) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// Save writes c to path, creating parent directories.
func Save(c *Config, path string) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
