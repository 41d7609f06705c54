package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanq16/fragget/internal/config"
)

func mockXDG(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	oldConfigHome := xdg.ConfigHome
	xdg.ConfigHome = tmpDir
	t.Cleanup(func() {
		xdg.ConfigHome = oldConfigHome
	})
	return tmpDir
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 4, cfg.Fragments)
	assert.Equal(t, 8192, cfg.ChunkSize)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, "./downloads", cfg.OutputDir)
	assert.True(t, cfg.VerifyTLS)
	assert.True(t, cfg.ShowProgress)
	assert.Equal(t, "inline", cfg.ProgressStyle)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		dir := mockXDG(t)
		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, config.Default(), cfg)
		assert.Equal(t, filepath.Join(dir, "fragget", "config.yaml"), config.DefaultPath())
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "fragments: 8\ntimeout: 45s\nverifyTLS: false\nprogressStyle: simple\nheaders:\n  X-Token: abc\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Fragments)
		assert.Equal(t, 45*time.Second, cfg.Timeout)
		assert.False(t, cfg.VerifyTLS)
		assert.Equal(t, "simple", cfg.ProgressStyle)
		assert.Equal(t, "abc", cfg.Headers["X-Token"])
		assert.Equal(t, 3, cfg.RetryAttempts)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("fragments: [oops"), 0644))
		_, err := config.Load(path)
		assert.Error(t, err)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	mockXDG(t)
	cfg := config.Default()
	cfg.Fragments = 12
	cfg.RateLimit = "2MB"
	cfg.Timeout = time.Minute
	require.NoError(t, cfg.Save(""))

	loaded, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero fragments", func(c *config.Config) { c.Fragments = 0 }},
		{"too many fragments", func(c *config.Config) { c.Fragments = config.MaxFragments + 1 }},
		{"zero chunk size", func(c *config.Config) { c.ChunkSize = 0 }},
		{"zero timeout", func(c *config.Config) { c.Timeout = 0 }},
		{"no attempts", func(c *config.Config) { c.RetryAttempts = 0 }},
		{"no output dir", func(c *config.Config) { c.OutputDir = "" }},
		{"bad style", func(c *config.Config) { c.ProgressStyle = "fancy" }},
		{"bad rate", func(c *config.Config) { c.RateLimit = "fast" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)
		})
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"", 0},
		{"100", 100},
		{"100B", 100},
		{"512K", 512 * 1024},
		{"2MB", 2 * 1024 * 1024},
		{"1.5GiB", 1536 * 1024 * 1024},
		{"5mb/s", 5 * 1024 * 1024},
	}
	for _, tt := range tests {
		got, err := config.ParseBytes(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
	_, err := config.ParseBytes("-1M")
	assert.Error(t, err)
	_, err = config.ParseBytes("lots")
	assert.Error(t, err)
}

func TestClientConfig(t *testing.T) {
	cfg := config.Default()
	cfg.VerifyTLS = false
	cfg.Fragments = 16
	cc := cfg.ClientConfig()
	assert.True(t, cc.InsecureSkipVerify)
	assert.True(t, cc.HighThreadMode)
	assert.Equal(t, cfg.Timeout, cc.Timeout)
}
