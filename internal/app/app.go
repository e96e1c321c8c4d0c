// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/songscope/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/songscope/internal/adapter/llm"
	"github.com/tejashwikalptaru/songscope/internal/adapter/lyrics"
	"github.com/tejashwikalptaru/songscope/internal/adapter/player/mock"
	"github.com/tejashwikalptaru/songscope/internal/adapter/player/mpv"
	"github.com/tejashwikalptaru/songscope/internal/adapter/repository/memory"
	fyneui "github.com/tejashwikalptaru/songscope/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/songscope/internal/adapter/youtube"
	"github.com/tejashwikalptaru/songscope/internal/config"
	"github.com/tejashwikalptaru/songscope/internal/logger"
	"github.com/tejashwikalptaru/songscope/internal/platform/httpclient"
	"github.com/tejashwikalptaru/songscope/internal/platform/metrics"
	"github.com/tejashwikalptaru/songscope/internal/ports"
	"github.com/tejashwikalptaru/songscope/internal/service"
)

// shutdownTimeout bounds the metrics server shutdown.
const shutdownTimeout = 2 * time.Second

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	logger   *slog.Logger
	fyneApp  fyne.App
	settings *config.Config

	// Infrastructure
	eventBus      ports.FilteringEventBus
	metrics       *metrics.Metrics
	metricsServer *metrics.Server
	widgets       ports.PlayerWidgetFactory

	// Repositories
	preferencesRepo ports.PreferencesRepository

	// Services
	videoService      *service.VideoService
	playbackService   *service.PlaybackService
	analysisService   *service.AnalysisService
	preferenceService *service.PreferenceService

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	shutdownOnce sync.Once
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// AppName is the display name
	AppName string

	// Settings overrides loading the configuration (nil loads it)
	Settings *config.Config

	// LoadOptions tune where the configuration is loaded from
	LoadOptions config.Options

	// LogOutput receives log records (nil for stderr)
	LogOutput io.Writer

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	return Config{
		AppID:   "com.songscope.app",
		AppName: "SongScope",
	}
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(cfg Config) (*Application, error) {
	app := &Application{}

	// Step 1: Load settings
	settings := cfg.Settings
	if settings == nil {
		loaded, err := config.Load(cfg.LoadOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		settings = loaded
	}
	app.settings = settings

	// Step 2: Create logger
	app.logger = logger.NewLogger(logger.Config{
		Level:  logger.ParseLevel(settings.Log.Level, slog.LevelInfo),
		Format: settings.Log.Format,
		Output: cfg.LogOutput,
	})
	app.logger.Info("initializing application",
		slog.String("app_id", cfg.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 3: Create Fyne application
	if cfg.TestFyneApp != nil {
		app.fyneApp = cfg.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(cfg.AppID)
	}

	// Step 4: Metrics and event bus
	app.metrics = metrics.New()
	if settings.Metrics.Listen != "" {
		srv, err := app.metrics.Serve(settings.Metrics.Listen, app.logger.With(slog.String("component", "metrics")))
		if err != nil {
			return nil, fmt.Errorf("failed to start metrics endpoint: %w", err)
		}
		app.metricsServer = srv
	}
	app.eventBus = eventbus.NewSyncEventBus(app.logger.With(slog.String("component", "eventbus")))

	// Step 5: Create backend adapters
	catalog := youtube.New(youtube.Config{
		APIKey:     settings.YouTube.APIKey,
		BaseURL:    settings.YouTube.BaseURL,
		HTTPClient: httpclient.New("youtube", settings.HTTP.Timeout, app.metrics),
		Logger:     app.logger.With(slog.String("adapter", "youtube")),
	})
	chat := app.newChatCompleter(settings)
	genius := lyrics.NewGenius(lyrics.GeniusConfig{
		BaseURL:    settings.Genius.BaseURL,
		Token:      settings.Genius.Token,
		HTTPClient: httpclient.New("genius", settings.HTTP.Timeout, app.metrics),
		Logger:     app.logger.With(slog.String("adapter", "genius")),
	})
	ovh := lyrics.NewOVH(lyrics.OVHConfig{
		BaseURL:    settings.LyricsOVH.BaseURL,
		HTTPClient: httpclient.New("lyricsovh", settings.HTTP.Timeout, app.metrics),
		Logger:     app.logger.With(slog.String("adapter", "lyricsovh")),
	})
	app.widgets = app.newWidgetFactory(settings)

	// Step 6: Create repositories
	app.preferencesRepo = memory.NewPreferencesRepository(app.fyneApp.Preferences())

	// Step 7: Create services (with dependency injection)
	app.preferenceService = service.NewPreferenceService(
		app.logger.With(slog.String("service", "preference")),
		app.preferencesRepo,
		app.eventBus,
	)

	app.videoService = service.NewVideoService(
		app.logger.With(slog.String("service", "video")),
		catalog,
		app.eventBus,
	)

	app.playbackService = service.NewPlaybackService(
		app.logger.With(slog.String("service", "playback")),
		app.widgets,
		app.eventBus,
		settings.Player.PollInterval,
	)

	lyricsService := service.NewLyricsService(
		app.logger.With(slog.String("service", "lyrics")),
		genius,
		ovh,
		service.ParsePrimaryErrorPolicy(settings.Lyrics.PrimaryErrorPolicy),
		app.metrics,
	)

	app.analysisService = service.NewAnalysisService(
		app.logger.With(slog.String("service", "analysis")),
		service.NewSongIdentifierService(app.logger.With(slog.String("service", "identifier")), chat),
		lyricsService,
		app.eventBus,
		app.metrics,
	)

	// Step 8: Load saved state
	if err := app.loadSavedState(); err != nil {
		// Non-fatal - just log and continue
		app.logger.Warn("failed to load saved state", slog.Any("error", err))
	}

	// Step 9: Create UI
	app.mainWindow = fyneui.NewMainWindow(app.fyneApp, GetVersionInfo().Display())

	// Step 10: Create Presenter and wire with UI
	app.presenter = fyneui.NewPresenter(
		app.logger.With(slog.String("component", "presenter")),
		app.videoService,
		app.playbackService,
		app.analysisService,
		app.preferenceService,
		app.eventBus,
		app.mainWindow,
		settings.Search.Debounce,
	)

	// Connect presenter to the main window
	app.mainWindow.SetPresenter(app.presenter)

	// Stop background work before the window goes away, whichever way it is closed
	app.mainWindow.SetOnBeforeClose(app.presenter.Shutdown)

	return app, nil
}

// newChatCompleter picks the chat backend named in the settings.
func (a *Application) newChatCompleter(settings *config.Config) ports.ChatCompleter {
	if settings.Chat.Provider == config.ProviderGemini {
		return llm.NewGemini(llm.GeminiConfig{
			APIKey:     settings.Gemini.APIKey,
			Model:      settings.Gemini.Model,
			HTTPClient: httpclient.New("gemini", settings.HTTP.Timeout, a.metrics),
			Logger:     a.logger.With(slog.String("adapter", "gemini")),
		})
	}

	return llm.NewOpenAI(llm.OpenAIConfig{
		Service:    settings.Chat.Provider,
		BaseURL:    settings.Chat.BaseURL,
		APIKey:     settings.Chat.APIKey,
		Model:      settings.Chat.Model,
		HTTPClient: httpclient.New(settings.Chat.Provider, settings.HTTP.Timeout, a.metrics),
		Logger:     a.logger.With(slog.String("adapter", "chat")),
	})
}

// newWidgetFactory picks the playback backend named in the settings.
func (a *Application) newWidgetFactory(settings *config.Config) ports.PlayerWidgetFactory {
	if settings.Player.Backend == config.BackendMock {
		factory := mock.NewFactory(a.logger.With(slog.String("player", "mock")))
		factory.SetAutoEvents(true)
		return factory
	}
	return mpv.NewFactory(settings.Player.MPVPath, a.logger.With(slog.String("player", "mpv")))
}

// loadSavedState applies the saved volume and loop mode to the player.
func (a *Application) loadSavedState() error {
	prefs := a.preferenceService.Snapshot()
	if err := a.playbackService.SetDefaults(prefs.Volume, prefs.LoopEnabled); err != nil {
		return fmt.Errorf("failed to apply saved preferences: %w", err)
	}
	return nil
}

// Run starts the application.
// This is called from main.go after the application is created.
func (a *Application) Run() error {
	a.logger.Info("SongScope started")

	// Show and run UI (blocks until the window is closed)
	a.mainWindow.ShowAndRun()
	return nil
}

// Shutdown gracefully shuts down the application.
// It's safe to call multiple times (idempotent).
func (a *Application) Shutdown() error {
	var errs []error

	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		// Shutdown UI and presenter
		if a.presenter != nil {
			a.presenter.Shutdown()
		}

		// Shutdown services (in reverse order of creation)
		if a.playbackService != nil {
			if err := a.playbackService.Shutdown(); err != nil {
				a.logger.Warn("failed to shutdown playback service", slog.Any("error", err))
				errs = append(errs, err)
			}
		}

		if a.preferenceService != nil {
			if err := a.preferenceService.Shutdown(); err != nil {
				a.logger.Warn("failed to shutdown preference service", slog.Any("error", err))
				errs = append(errs, err)
			}
		}

		if a.metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := a.metricsServer.Shutdown(ctx); err != nil {
				a.logger.Warn("failed to shutdown metrics endpoint", slog.Any("error", err))
				errs = append(errs, err)
			}
			cancel()
		}

		if a.eventBus != nil {
			if err := a.eventBus.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		a.logger.Info("application shutdown complete")
	})

	return errors.Join(errs...)
}

// GetServices returns the application services (for testing).
func (a *Application) GetServices() (
	*service.VideoService,
	*service.PlaybackService,
	*service.AnalysisService,
	*service.PreferenceService,
) {
	return a.videoService, a.playbackService, a.analysisService, a.preferenceService
}

// GetEventBus returns the event bus (for testing).
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne application.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}

// GetMetrics returns the metrics registry.
func (a *Application) GetMetrics() *metrics.Metrics {
	return a.metrics
}

// GetWidgetFactory returns the playback widget factory.
func (a *Application) GetWidgetFactory() ports.PlayerWidgetFactory {
	return a.widgets
}
