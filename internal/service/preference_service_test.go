package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/songscope/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/logger"
)

// Mock preferences repository for testing
type mockPreferencesRepository struct {
	mu      sync.RWMutex
	volume  float64
	loop    bool
	lastURL string
	failErr error
}

func newMockPreferencesRepository() *mockPreferencesRepository {
	return &mockPreferencesRepository{volume: 1.0}
}

func (m *mockPreferencesRepository) SaveVolume(volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.volume = volume
	return nil
}

func (m *mockPreferencesRepository) LoadVolume() (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume, nil
}

func (m *mockPreferencesRepository) SaveLoopMode(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loop = enabled
	return nil
}

func (m *mockPreferencesRepository) LoadLoopMode() (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loop, nil
}

func (m *mockPreferencesRepository) SaveLastVideoURL(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastURL = url
	return nil
}

func (m *mockPreferencesRepository) LoadLastVideoURL() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastURL, nil
}

func (m *mockPreferencesRepository) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = 1.0
	m.loop = false
	m.lastURL = ""
	return nil
}

// Helper to create a test preference service
func newTestPreferenceService(t *testing.T) (*PreferenceService, *mockPreferencesRepository, *eventbus.SyncEventBus) {
	t.Helper()
	repo := newMockPreferencesRepository()
	bus, _ := newTestBus(t)
	service := NewPreferenceService(logger.NewTestLogger(), repo, bus)
	t.Cleanup(func() { _ = service.Shutdown() })
	return service, repo, bus
}

func TestPreferenceService_Defaults(t *testing.T) {
	service, _, _ := newTestPreferenceService(t)

	assert.Equal(t, DefaultVolume, service.GetVolume())
	assert.False(t, service.GetLoopMode())
	assert.Empty(t, service.GetLastVideoURL())
}

func TestPreferenceService_SetVolume(t *testing.T) {
	service, repo, _ := newTestPreferenceService(t)

	require.NoError(t, service.SetVolume(0.6))
	assert.Equal(t, 0.6, service.GetVolume())

	saved, _ := repo.LoadVolume()
	assert.Equal(t, 0.6, saved)
}

func TestPreferenceService_SetVolume_InvalidRange(t *testing.T) {
	service, _, _ := newTestPreferenceService(t)

	assert.Equal(t, domain.ErrInvalidVolume, service.SetVolume(-0.1))
	assert.Equal(t, domain.ErrInvalidVolume, service.SetVolume(1.5))
	assert.Equal(t, DefaultVolume, service.GetVolume())
}

func TestPreferenceService_SetVolume_RepositoryFailure(t *testing.T) {
	service, repo, _ := newTestPreferenceService(t)
	repo.failErr = errors.New("disk full")

	assert.Error(t, service.SetVolume(0.2))
}

func TestPreferenceService_LoopAndLastURL(t *testing.T) {
	service, repo, _ := newTestPreferenceService(t)

	require.NoError(t, service.SetLoopMode(true))
	require.NoError(t, service.SetLastVideoURL("https://youtu.be/dQw4w9WgXcQ"))

	assert.True(t, service.GetLoopMode())
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", service.GetLastVideoURL())

	loop, _ := repo.LoadLoopMode()
	url, _ := repo.LoadLastVideoURL()
	assert.True(t, loop)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", url)
}

func TestPreferenceService_FollowsBusEvents(t *testing.T) {
	service, repo, bus := newTestPreferenceService(t)

	bus.Publish(domain.NewVolumeChangedEvent(0.4))
	bus.Publish(domain.NewLoopToggledEvent(true))
	bus.Publish(domain.NewVideoSelectedEvent(domain.VideoReference{ID: "dQw4w9WgXcQ", Source: "https://youtu.be/dQw4w9WgXcQ"}))

	assert.Equal(t, domain.Preferences{
		Volume:       0.4,
		LoopEnabled:  true,
		LastVideoURL: "https://youtu.be/dQw4w9WgXcQ",
	}, service.Snapshot())

	saved, _ := repo.LoadVolume()
	assert.Equal(t, 0.4, saved)
}

func TestPreferenceService_ShutdownStopsFollowing(t *testing.T) {
	service, _, bus := newTestPreferenceService(t)
	require.NoError(t, service.Shutdown())

	bus.Publish(domain.NewVolumeChangedEvent(0.1))
	assert.Equal(t, DefaultVolume, service.GetVolume())
}

func TestPreferenceService_ResetToDefaults(t *testing.T) {
	service, repo, _ := newTestPreferenceService(t)

	require.NoError(t, service.SetVolume(0.5))
	require.NoError(t, service.SetLoopMode(true))
	require.NoError(t, service.SetLastVideoURL("https://youtu.be/dQw4w9WgXcQ"))

	require.NoError(t, service.ResetToDefaults())

	assert.Equal(t, domain.Preferences{Volume: DefaultVolume}, service.Snapshot())
	saved, _ := repo.LoadVolume()
	assert.Equal(t, 1.0, saved)
}

func TestPreferenceService_Persistence(t *testing.T) {
	repo := newMockPreferencesRepository()
	bus, _ := newTestBus(t)

	first := NewPreferenceService(logger.NewTestLogger(), repo, bus)
	require.NoError(t, first.SetVolume(0.6))
	require.NoError(t, first.SetLoopMode(true))
	require.NoError(t, first.Shutdown())

	second := NewPreferenceService(logger.NewTestLogger(), repo, bus)
	defer second.Shutdown()

	assert.Equal(t, 0.6, second.GetVolume())
	assert.True(t, second.GetLoopMode())
}

func TestPreferenceService_ConcurrentMixedOperations(t *testing.T) {
	service, _, _ := newTestPreferenceService(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			if index%2 == 0 {
				_ = service.SetVolume(0.5)
			} else {
				_ = service.GetVolume()
			}
		}(i)
	}
	wg.Wait()

	volume := service.GetVolume()
	assert.GreaterOrEqual(t, volume, 0.0)
	assert.LessOrEqual(t, volume, 1.0)
}
