package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1500, cfg.Threshold)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 10, cfg.Parallelism)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxBodySize)
	assert.Equal(t, 5, cfg.MaxRedirects)
	assert.True(t, cfg.DenyPrivateIPs)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "zero threshold always fetches", mutate: func(c *Config) { c.Threshold = 0 }},
		{name: "negative threshold", mutate: func(c *Config) { c.Threshold = -1 }, wantErr: "threshold"},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: "timeout"},
		{name: "parallelism too low", mutate: func(c *Config) { c.Parallelism = 0 }, wantErr: "parallelism"},
		{name: "parallelism too high", mutate: func(c *Config) { c.Parallelism = 51 }, wantErr: "parallelism"},
		{name: "body too small", mutate: func(c *Config) { c.MaxBodySize = 512 }, wantErr: "max body size"},
		{name: "body too large", mutate: func(c *Config) { c.MaxBodySize = 200 * 1024 * 1024 }, wantErr: "max body size"},
		{name: "negative redirects", mutate: func(c *Config) { c.MaxRedirects = -1 }, wantErr: "max redirects"},
		{name: "too many redirects", mutate: func(c *Config) { c.MaxRedirects = 11 }, wantErr: "max redirects"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("CONTENT_FETCH_ENABLED", "false")
		t.Setenv("CONTENT_FETCH_THRESHOLD", "800")
		t.Setenv("CONTENT_FETCH_TIMEOUT", "3s")
		t.Setenv("CONTENT_FETCH_PARALLELISM", "4")
		t.Setenv("CONTENT_FETCH_MAX_REDIRECTS", "2")

		cfg, err := LoadConfigFromEnv()
		require.NoError(t, err)
		assert.False(t, cfg.Enabled)
		assert.Equal(t, 800, cfg.Threshold)
		assert.Equal(t, 3*time.Second, cfg.Timeout)
		assert.Equal(t, 4, cfg.Parallelism)
		assert.Equal(t, 2, cfg.MaxRedirects)
	})

	t.Run("unparseable value falls back", func(t *testing.T) {
		t.Setenv("CONTENT_FETCH_THRESHOLD", "lots")

		cfg, err := LoadConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, 1500, cfg.Threshold)
	})

	t.Run("out of range fails validation", func(t *testing.T) {
		t.Setenv("CONTENT_FETCH_PARALLELISM", "100")

		_, err := LoadConfigFromEnv()
		assert.Error(t, err)
	})
}
