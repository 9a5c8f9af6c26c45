package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
translation:
  product_identifier: sku
  prefix: myapp.
  context_values:
    - field: coupon
      variable: eVar4
    - field: .userId
      variable: eVar1
  actions:
    - event: Signed Up
      target: signup
  commerce_events:
    - event: Purchase Made
      target: purchase
  video_events:
    - event: Play Started
      target: Video Playback Started
video:
  metadata:
    - field: showTitle
      key: a.media.show
nats:
  url: nats://broker:4222
logging:
  level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "id", cfg.Translation.ProductIdentifier)
	assert.Empty(t, cfg.Translation.ContextValues)
	assert.Equal(t, 8095, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout())
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout())
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "mediabridge.events.inbound", cfg.NATS.InboundSubject)
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait())
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Minute, cfg.Redis.RateWindow())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_FromFileKeepsCase(t *testing.T) {
	t.Setenv(EnvConfigDir, writeConfig(t, sampleConfig))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sku", cfg.Translation.ProductIdentifier)
	assert.Equal(t, "myapp.", cfg.Translation.Prefix)
	assert.Equal(t, []FieldMapping{
		{Field: "coupon", Variable: "eVar4"},
		{Field: ".userId", Variable: "eVar1"},
	}, cfg.Translation.ContextValues)
	assert.Equal(t, []EventMapping{{Event: "Signed Up", Target: "signup"}}, cfg.Translation.Actions)
	assert.Equal(t, []EventMapping{{Event: "Purchase Made", Target: "purchase"}}, cfg.Translation.CommerceEvents)
	assert.Equal(t, []EventMapping{{Event: "Play Started", Target: "Video Playback Started"}}, cfg.Translation.VideoEvents)
	assert.Equal(t, []MetadataMapping{{Field: "showTitle", Key: "a.media.show"}}, cfg.Video.Metadata)
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// untouched sections keep defaults
	assert.Equal(t, 8095, cfg.Server.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvConfigDir, writeConfig(t, sampleConfig))
	t.Setenv("MEDIABRIDGE_NATS_URL", "nats://env:4222")
	t.Setenv("MEDIABRIDGE_SERVER_PORT", "9000")
	t.Setenv("MEDIABRIDGE_REDIS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadFile_Malformed(t *testing.T) {
	dir := writeConfig(t, "translation: [unclosed")
	_, err := LoadFile(filepath.Join(dir, "config.yaml"))
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	assert.Equal(t, "/etc/mediabridge/config.yaml", Path())

	t.Setenv(EnvConfigDir, "/tmp/mb")
	assert.Equal(t, "/tmp/mb/config.yaml", Path())
}

func TestValidate(t *testing.T) {
	errBadPath := errors.New("bad path")
	checkPath := func(p string) error {
		if p == "" || strings.HasSuffix(p, ".") {
			return errBadPath
		}
		return nil
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name: "invalid field path",
			mutate: func(c *Config) {
				c.Translation.ContextValues = []FieldMapping{{Field: "a.", Variable: "v"}}
			},
			wantErr: "context_values[0]: bad path",
		},
		{
			name: "duplicate field",
			mutate: func(c *Config) {
				c.Translation.ContextValues = []FieldMapping{{Field: "a", Variable: "x"}, {Field: "a", Variable: "y"}}
			},
			wantErr: `duplicate field "a"`,
		},
		{
			name: "empty variable",
			mutate: func(c *Config) {
				c.Translation.ContextValues = []FieldMapping{{Field: "a"}}
			},
			wantErr: "empty variable",
		},
		{
			name: "incomplete event mapping",
			mutate: func(c *Config) {
				c.Translation.VideoEvents = []EventMapping{{Event: "Play"}}
			},
			wantErr: "translation.video_events[0]",
		},
		{
			name: "incomplete metadata mapping",
			mutate: func(c *Config) {
				c.Video.AdMetadata = []MetadataMapping{{Key: "a.media.ad.advertiser"}}
			},
			wantErr: "video.ad_metadata[0]",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "dlq without path",
			mutate:  func(c *Config) { c.DLQ = DLQConfig{Enabled: true} },
			wantErr: "dlq.path",
		},
		{
			name: "limiter without window",
			mutate: func(c *Config) {
				c.Redis.Enabled = true
				c.Redis.RateWindowSeconds = 0
			},
			wantErr: "redis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate(checkPath)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := Default()
	cfg.Translation.Prefix = "app."
	cfg.Translation.ContextValues = []FieldMapping{{Field: "Coupon", Variable: "eVar4"}}
	require.NoError(t, Save(cfg, path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "app.", loaded.Translation.Prefix)
	assert.Equal(t, cfg.Translation.ContextValues, loaded.Translation.ContextValues)
	assert.Equal(t, cfg.Server, loaded.Server)
	assert.Equal(t, cfg.NATS, loaded.NATS)
	assert.Equal(t, cfg.Redis, loaded.Redis)
}

func TestMarshal_UsesFileKeys(t *testing.T) {
	out, err := Marshal(Default())
	require.NoError(t, err)
	assert.Contains(t, string(out), "product_identifier: id")
	assert.Contains(t, string(out), "read_timeout_seconds: 15")
}
