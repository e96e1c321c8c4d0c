// Package memory holds repositories backed by Fyne's preference storage.
package memory

import (
	"strings"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

const (
	keyVolume       = "preferences.volume"
	keyLoop         = "preferences.loop"
	keyLastVideoURL = "session.last_video_url"

	defaultVolume = 1.0
)

// storedKeys lists everything Clear removes.
var storedKeys = []string{keyVolume, keyLoop, keyLastVideoURL}

// PreferencesRepository keeps SongScope settings in the Fyne app's
// preference store, which persists them per AppID.
type PreferencesRepository struct {
	mu    sync.RWMutex
	prefs fyne.Preferences
}

// NewPreferencesRepository wraps prefs, usually fyne.App.Preferences().
func NewPreferencesRepository(prefs fyne.Preferences) *PreferencesRepository {
	return &PreferencesRepository{prefs: prefs}
}

func (r *PreferencesRepository) write(fn func(p fyne.Preferences)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.prefs)
	return nil
}

func read[T any](r *PreferencesRepository, fn func(p fyne.Preferences) T) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(r.prefs), nil
}

// SaveVolume rejects values outside [0, 1] with domain.ErrInvalidVolume.
func (r *PreferencesRepository) SaveVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}
	return r.write(func(p fyne.Preferences) { p.SetFloat(keyVolume, volume) })
}

// LoadVolume returns full volume when nothing valid is stored.
func (r *PreferencesRepository) LoadVolume() (float64, error) {
	return read(r, func(p fyne.Preferences) float64 {
		v := p.FloatWithFallback(keyVolume, defaultVolume)
		if v < 0 || v > 1 {
			return defaultVolume
		}
		return v
	})
}

func (r *PreferencesRepository) SaveLoopMode(enabled bool) error {
	return r.write(func(p fyne.Preferences) { p.SetBool(keyLoop, enabled) })
}

func (r *PreferencesRepository) LoadLoopMode() (bool, error) {
	return read(r, func(p fyne.Preferences) bool { return p.BoolWithFallback(keyLoop, false) })
}

func (r *PreferencesRepository) SaveLastVideoURL(url string) error {
	url = strings.TrimSpace(url)
	return r.write(func(p fyne.Preferences) {
		if url == "" {
			p.RemoveValue(keyLastVideoURL)
			return
		}
		p.SetString(keyLastVideoURL, url)
	})
}

func (r *PreferencesRepository) LoadLastVideoURL() (string, error) {
	return read(r, func(p fyne.Preferences) string { return p.String(keyLastVideoURL) })
}

func (r *PreferencesRepository) Clear() error {
	return r.write(func(p fyne.Preferences) {
		for _, key := range storedKeys {
			p.RemoveValue(key)
		}
	})
}

var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
