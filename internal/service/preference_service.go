package service

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

// DefaultVolume is used until the user picks a volume.
const DefaultVolume = 1.0

// PreferenceService caches user preferences and keeps them persisted.
// Volume, loop mode and the last selected video are saved as the
// corresponding events go by on the bus.
// All operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PreferencesRepository
	bus        ports.EventBus

	// Cached preferences
	prefs domain.Preferences

	subs []domain.SubscriptionID

	// Concurrency control
	mu sync.RWMutex
}

// NewPreferenceService creates a new preference service and loads the saved values.
func NewPreferenceService(
	logger *slog.Logger,
	repository ports.PreferencesRepository,
	bus ports.EventBus,
) *PreferenceService {
	s := &PreferenceService{
		logger:     logger,
		repository: repository,
		bus:        bus,
		prefs:      domain.Preferences{Volume: DefaultVolume},
	}

	s.loadPreferences()
	s.subscribe()

	logger.Debug("preference service initialized",
		slog.Float64("volume", s.prefs.Volume),
		slog.Bool("loop", s.prefs.LoopEnabled))
	return s
}

// loadPreferences loads all preferences from the repository into the cache.
func (s *PreferenceService) loadPreferences() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vol, err := s.repository.LoadVolume(); err == nil && vol >= 0 && vol <= 1 {
		s.prefs.Volume = vol
	} else if err != nil {
		s.logger.Warn("failed to load volume", slog.Any("error", err))
	}

	if loop, err := s.repository.LoadLoopMode(); err == nil {
		s.prefs.LoopEnabled = loop
	}

	if url, err := s.repository.LoadLastVideoURL(); err == nil {
		s.prefs.LastVideoURL = url
	}
}

func (s *PreferenceService) subscribe() {
	s.subs = []domain.SubscriptionID{
		s.bus.Subscribe(domain.EventVolumeChanged, func(e domain.Event) {
			if ev, ok := e.(domain.VolumeChangedEvent); ok {
				s.logError("volume", s.SetVolume(ev.Volume))
			}
		}),
		s.bus.Subscribe(domain.EventLoopToggled, func(e domain.Event) {
			if ev, ok := e.(domain.LoopToggledEvent); ok {
				s.logError("loop", s.SetLoopMode(ev.Enabled))
			}
		}),
		s.bus.Subscribe(domain.EventVideoSelected, func(e domain.Event) {
			if ev, ok := e.(domain.VideoSelectedEvent); ok {
				s.logError("last video", s.SetLastVideoURL(ev.Ref.Source))
			}
		}),
	}
}

func (s *PreferenceService) logError(what string, err error) {
	if err != nil {
		s.logger.Warn("failed to save preference", slog.String("preference", what), slog.Any("error", err))
	}
}

// GetVolume returns the saved volume preference (0.0 to 1.0).
func (s *PreferenceService) GetVolume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Volume
}

// SetVolume saves the volume preference (0.0 to 1.0).
func (s *PreferenceService) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	s.mu.Lock()
	s.prefs.Volume = volume
	s.mu.Unlock()

	return s.repository.SaveVolume(volume)
}

// GetLoopMode returns the saved loop mode preference.
func (s *PreferenceService) GetLoopMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.LoopEnabled
}

// SetLoopMode saves the loop mode preference.
func (s *PreferenceService) SetLoopMode(enabled bool) error {
	s.mu.Lock()
	s.prefs.LoopEnabled = enabled
	s.mu.Unlock()

	return s.repository.SaveLoopMode(enabled)
}

// GetLastVideoURL returns the URL of the last selected video.
func (s *PreferenceService) GetLastVideoURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.LastVideoURL
}

// SetLastVideoURL saves the URL of the last selected video.
func (s *PreferenceService) SetLastVideoURL(url string) error {
	s.mu.Lock()
	s.prefs.LastVideoURL = url
	s.mu.Unlock()

	return s.repository.SaveLastVideoURL(url)
}

// Snapshot returns a copy of all preferences.
func (s *PreferenceService) Snapshot() domain.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// ResetToDefaults clears the saved preferences.
func (s *PreferenceService) ResetToDefaults() error {
	s.mu.Lock()
	s.prefs = domain.Preferences{Volume: DefaultVolume}
	s.mu.Unlock()

	return s.repository.Clear()
}

// Shutdown stops following the bus.
func (s *PreferenceService) Shutdown() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, id := range subs {
		s.bus.Unsubscribe(id)
	}
	return nil
}
