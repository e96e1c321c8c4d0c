// Package config loads SongScope settings from config.yaml, a .env file and
// the environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SONGSCOPE_YOUTUBE_API_KEY.
const EnvPrefix = "SONGSCOPE"

// Chat providers.
const (
	ProviderXAI    = "xai"
	ProviderGemini = "gemini"
)

// Player backends.
const (
	BackendMPV  = "mpv"
	BackendMock = "mock"
)

// YouTube configures the Data API v3 catalog.
type YouTube struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// Chat selects the language-model provider and configures the
// OpenAI-compatible endpoint (xAI by default).
type Chat struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Model    string `mapstructure:"model"`
}

// Gemini configures the Google Gemini chat backend.
type Gemini struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// Genius configures the primary lyrics source.
type Genius struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

// LyricsOVH configures the fallback lyrics source.
type LyricsOVH struct {
	BaseURL string `mapstructure:"base_url"`
}

// Lyrics controls how the primary and fallback sources combine.
type Lyrics struct {
	PrimaryErrorPolicy string `mapstructure:"primary_error_policy"`
}

// Player selects and tunes the playback widget backend.
type Player struct {
	Backend      string        `mapstructure:"backend"`
	MPVPath      string        `mapstructure:"mpv_path"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// Search tunes the search-as-you-type dropdown.
type Search struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// HTTP applies to every outbound client.
type HTTP struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Metrics configures the optional Prometheus endpoint.
type Metrics struct {
	// Listen is the address of the /metrics endpoint; empty disables it
	Listen string `mapstructure:"listen"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the full application configuration.
// Empty base URLs and models mean the adapter's own default.
type Config struct {
	YouTube   YouTube   `mapstructure:"youtube"`
	Chat      Chat      `mapstructure:"chat"`
	Gemini    Gemini    `mapstructure:"gemini"`
	Genius    Genius    `mapstructure:"genius"`
	LyricsOVH LyricsOVH `mapstructure:"lyricsovh"`
	Lyrics    Lyrics    `mapstructure:"lyrics"`
	Player    Player    `mapstructure:"player"`
	Search    Search    `mapstructure:"search"`
	HTTP      HTTP      `mapstructure:"http"`
	Metrics   Metrics   `mapstructure:"metrics"`
	Log       Log       `mapstructure:"log"`
}

// Options tune where Load looks.
type Options struct {
	// ConfigFile is an explicit config file; otherwise config.yaml is
	// searched in the working directory and in $HOME/.songscope.
	ConfigFile string

	// EnvFiles are loaded before reading the environment (default ".env").
	// Variables already set are not overridden.
	EnvFiles []string
}

// Alternative variable names accepted for some keys, in priority order after
// the SONGSCOPE_ one. They match the names used by the web client.
var aliases = map[string][]string{
	"youtube.api_key": {"VITE_YOUTUBE_API_KEY", "YOUTUBE_API_KEY"},
	"chat.api_key":    {"VITE_GROK_API_KEY", "XAI_API_KEY"},
	"gemini.api_key":  {"GEMINI_API_KEY"},
	"genius.token":    {"VITE_GENIUS_API_KEY", "GENIUS_ACCESS_TOKEN"},
}

var defaults = map[string]any{
	"youtube.api_key":             "",
	"youtube.base_url":            "",
	"chat.provider":               ProviderXAI,
	"chat.api_key":                "",
	"chat.base_url":               "",
	"chat.model":                  "",
	"gemini.api_key":              "",
	"gemini.model":                "",
	"genius.token":                "",
	"genius.base_url":             "",
	"lyricsovh.base_url":          "",
	"lyrics.primary_error_policy": "fallthrough",
	"player.backend":              BackendMPV,
	"player.mpv_path":             "mpv",
	"player.poll_interval":        "1s",
	"search.debounce":             "500ms",
	"http.timeout":                "15s",
	"metrics.listen":              "",
	"log.level":                   "info",
	"log.format":                  "text",
}

// Load reads the configuration. A missing config file or .env file is not an error.
func Load(opts Options) (*Config, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, names := range aliases {
		envNames := append([]string{envName(key)}, names...)
		if err := v.BindEnv(append([]string{key}, envNames...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".songscope"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (c *Config) normalize() {
	c.Chat.Provider = strings.ToLower(strings.TrimSpace(c.Chat.Provider))
	c.Player.Backend = strings.ToLower(strings.TrimSpace(c.Player.Backend))
	c.Lyrics.PrimaryErrorPolicy = strings.ToLower(strings.TrimSpace(c.Lyrics.PrimaryErrorPolicy))
}

// Validate checks the settings that have a closed set of values.
// Credentials are never checked here; a missing key fails per call.
func (c *Config) Validate() error {
	var errs []error

	switch c.Chat.Provider {
	case ProviderXAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("chat.provider: unknown provider %q", c.Chat.Provider))
	}

	switch c.Player.Backend {
	case BackendMPV, BackendMock:
	default:
		errs = append(errs, fmt.Errorf("player.backend: unknown backend %q", c.Player.Backend))
	}

	switch c.Lyrics.PrimaryErrorPolicy {
	case "fallthrough", "surface":
	default:
		errs = append(errs, fmt.Errorf("lyrics.primary_error_policy: unknown policy %q", c.Lyrics.PrimaryErrorPolicy))
	}

	if c.Player.PollInterval <= 0 {
		errs = append(errs, errors.New("player.poll_interval must be positive"))
	}
	if c.Search.Debounce < 0 {
		errs = append(errs, errors.New("search.debounce must not be negative"))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http.timeout must be positive"))
	}

	return errors.Join(errs...)
}
