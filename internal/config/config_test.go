package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate unsets every variable Load reads and points HOME at an empty dir.
// t.Setenv restores the previous values when the test ends.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var names []string
	for key := range defaults {
		names = append(names, envName(key))
	}
	for _, alts := range aliases {
		names = append(names, alts...)
	}
	for _, name := range names {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(Options{EnvFiles: []string{}})
	require.NoError(t, err)

	assert.Equal(t, ProviderXAI, cfg.Chat.Provider)
	assert.Equal(t, BackendMPV, cfg.Player.Backend)
	assert.Equal(t, "mpv", cfg.Player.MPVPath)
	assert.Equal(t, time.Second, cfg.Player.PollInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, 15*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "fallthrough", cfg.Lyrics.PrimaryErrorPolicy)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.YouTube.APIKey)
	assert.Empty(t, cfg.Metrics.Listen)
}

func TestLoad_FileThenEnv(t *testing.T) {
	isolate(t)
	path := writeFile(t, "config.yaml", `
youtube:
  api_key: from-file
chat:
  provider: gemini
player:
  backend: mock
  poll_interval: 250ms
search:
  debounce: 300ms
metrics:
  listen: 127.0.0.1:9310
`)
	t.Setenv("SONGSCOPE_YOUTUBE_API_KEY", "from-env")

	cfg, err := Load(Options{ConfigFile: path, EnvFiles: []string{}})
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.YouTube.APIKey)
	assert.Equal(t, ProviderGemini, cfg.Chat.Provider)
	assert.Equal(t, BackendMock, cfg.Player.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Player.PollInterval)
	assert.Equal(t, 300*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, "127.0.0.1:9310", cfg.Metrics.Listen)
}

func TestLoad_LegacyAliases(t *testing.T) {
	isolate(t)
	t.Setenv("VITE_YOUTUBE_API_KEY", "yt")
	t.Setenv("VITE_GROK_API_KEY", "grok")
	t.Setenv("VITE_GENIUS_API_KEY", "genius")
	t.Setenv("GEMINI_API_KEY", "gem")

	cfg, err := Load(Options{EnvFiles: []string{}})
	require.NoError(t, err)

	assert.Equal(t, "yt", cfg.YouTube.APIKey)
	assert.Equal(t, "grok", cfg.Chat.APIKey)
	assert.Equal(t, "genius", cfg.Genius.Token)
	assert.Equal(t, "gem", cfg.Gemini.APIKey)
}

func TestLoad_PrefixedNameWinsOverAlias(t *testing.T) {
	isolate(t)
	t.Setenv("VITE_GENIUS_API_KEY", "legacy")
	t.Setenv("SONGSCOPE_GENIUS_TOKEN", "current")

	cfg, err := Load(Options{EnvFiles: []string{}})
	require.NoError(t, err)
	assert.Equal(t, "current", cfg.Genius.Token)
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	envFile := writeFile(t, ".env", "VITE_YOUTUBE_API_KEY=dotenv-key\nSONGSCOPE_LOG_LEVEL=debug\n")

	cfg, err := Load(Options{EnvFiles: []string{envFile, filepath.Join(t.TempDir(), "missing.env")}})
	require.NoError(t, err)

	assert.Equal(t, "dotenv-key", cfg.YouTube.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown provider", func(t *testing.T) {
		isolate(t)
		t.Setenv("SONGSCOPE_CHAT_PROVIDER", "clippy")

		_, err := Load(Options{EnvFiles: []string{}})
		assert.ErrorContains(t, err, "chat.provider")
	})

	t.Run("unknown backend", func(t *testing.T) {
		isolate(t)
		t.Setenv("SONGSCOPE_PLAYER_BACKEND", "vlc")

		_, err := Load(Options{EnvFiles: []string{}})
		assert.ErrorContains(t, err, "player.backend")
	})

	t.Run("bad duration", func(t *testing.T) {
		isolate(t)
		t.Setenv("SONGSCOPE_HTTP_TIMEOUT", "soon")

		_, err := Load(Options{EnvFiles: []string{}})
		assert.Error(t, err)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		isolate(t)

		_, err := Load(Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"), EnvFiles: []string{}})
		assert.Error(t, err)
	})
}

func TestLoad_ProviderIsNormalized(t *testing.T) {
	isolate(t)
	t.Setenv("SONGSCOPE_CHAT_PROVIDER", " Gemini ")

	cfg, err := Load(Options{EnvFiles: []string{}})
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.Chat.Provider)
}
