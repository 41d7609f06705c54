package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/tanq16/fragget/internal/output"
	"github.com/tanq16/fragget/internal/utils"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	configDirName  = "fragget"
	configFileName = "config.yaml"
	MaxFragments   = 64
)

// Config holds every persisted setting. Command-line flags override it.
type Config struct {
	Fragments     int               `yaml:"fragments"`
	ChunkSize     int               `yaml:"chunkSize"`
	Timeout       time.Duration     `yaml:"timeout"`
	RetryAttempts int               `yaml:"retryAttempts"`
	OutputDir     string            `yaml:"outputDir"`
	TempDir       string            `yaml:"tempDir,omitempty"`
	VerifyTLS     bool              `yaml:"verifyTLS"`
	ShowProgress  bool              `yaml:"showProgress"`
	ProgressStyle string            `yaml:"progressStyle"`
	KATimeout     time.Duration     `yaml:"keepAliveTimeout"`
	UserAgent     string            `yaml:"userAgent"`
	ProxyURL      string            `yaml:"proxy,omitempty"`
	ProxyUsername string            `yaml:"proxyUsername,omitempty"`
	ProxyPassword string            `yaml:"proxyPassword,omitempty"`
	Headers       map[string]string `yaml:"headers,omitempty"`
	BearerToken   string            `yaml:"token,omitempty"`
	RateLimit     string            `yaml:"rateLimit,omitempty"`
	LogFile       string            `yaml:"logFile,omitempty"`
}

func Default() Config {
	return Config{
		Fragments:     4,
		ChunkSize:     utils.DefaultChunkSize,
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		OutputDir:     "./downloads",
		VerifyTLS:     true,
		ShowProgress:  true,
		ProgressStyle: output.StyleInline,
		KATimeout:     90 * time.Second,
		UserAgent:     utils.ToolUserAgent,
	}
}

// DefaultPath is $XDG_CONFIG_HOME/fragget/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, configDirName, configFileName)
}

// Load reads path (DefaultPath when empty) over the defaults. A missing file
// is not an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("error reading config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Default(), fmt.Errorf("error parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

func (c Config) Validate() error {
	switch {
	case c.Fragments < 1 || c.Fragments > MaxFragments:
		return fmt.Errorf("%w: fragments must be between 1 and %d", ErrInvalidConfig, MaxFragments)
	case c.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	case c.RetryAttempts < 1:
		return fmt.Errorf("%w: retry attempts must be at least 1", ErrInvalidConfig)
	case c.OutputDir == "":
		return fmt.Errorf("%w: output directory is required", ErrInvalidConfig)
	case !output.ValidStyle(c.ProgressStyle):
		return fmt.Errorf("%w: unknown progress style %q", ErrInvalidConfig, c.ProgressStyle)
	}
	if _, err := ParseBytes(c.RateLimit); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.ProxyURL != "" {
		if _, err := url.Parse(c.ProxyURL); err != nil {
			return fmt.Errorf("%w: invalid proxy URL: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// ClientConfig derives the HTTP transport settings.
func (c Config) ClientConfig() utils.HTTPClientConfig {
	return utils.HTTPClientConfig{
		Timeout:            c.Timeout,
		KATimeout:          c.KATimeout,
		ProxyURL:           c.ProxyURL,
		ProxyUsername:      c.ProxyUsername,
		ProxyPassword:      c.ProxyPassword,
		UserAgent:          c.UserAgent,
		Headers:            c.Headers,
		BearerToken:        c.BearerToken,
		InsecureSkipVerify: !c.VerifyTLS,
		HighThreadMode:     c.Fragments > utils.HighThreadThreshold,
	}
}

// ParseBytes turns sizes like "512K", "2MB" or "1.5GiB" into bytes. Units are
// binary. An empty string is 0.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	upper := strings.ToUpper(s)
	upper = strings.TrimSuffix(upper, "/S")
	upper = strings.TrimSuffix(upper, "B")
	upper = strings.TrimSuffix(upper, "I")
	multiplier := int64(1)
	if n := len(upper); n > 0 {
		switch upper[n-1] {
		case 'K':
			multiplier = 1 << 10
		case 'M':
			multiplier = 1 << 20
		case 'G':
			multiplier = 1 << 30
		case 'T':
			multiplier = 1 << 40
		}
		if multiplier > 1 {
			upper = upper[:n-1]
		}
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(upper), 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return int64(value * float64(multiplier)), nil
}
