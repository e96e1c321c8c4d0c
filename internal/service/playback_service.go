// Package service provides business logic for the SongScope client.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

// DefaultPollInterval is how often the position is read while playing.
const DefaultPollInterval = time.Second

// PlaybackService owns the playback widget of the current video and its state.
// Every control is one widget call followed by an immediate local state update.
// All operations are thread-safe via sync.RWMutex.
type PlaybackService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	factory ports.PlayerWidgetFactory
	bus     ports.EventBus

	// State
	widget        ports.PlayerWidget
	state         domain.PlaybackState
	ready         bool
	generation    uint64 // bumped on every load/unload; stale widget callbacks compare against it
	defaultVolume float64
	defaultLoop   bool
	pollInterval  time.Duration
	closed        bool

	// Concurrency control
	mu       sync.RWMutex
	pollStop chan struct{}  // nil when no poller runs
	pollWg   sync.WaitGroup // WaitGroup to wait for poller goroutines to exit
}

// NewPlaybackService creates a new playback service.
// A non-positive pollInterval selects DefaultPollInterval.
func NewPlaybackService(
	logger *slog.Logger,
	factory ports.PlayerWidgetFactory,
	bus ports.EventBus,
	pollInterval time.Duration,
) *PlaybackService {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	s := &PlaybackService{
		logger:        logger,
		factory:       factory,
		bus:           bus,
		defaultVolume: 1.0,
		pollInterval:  pollInterval,
	}
	s.state = domain.DefaultPlaybackState(s.defaultVolume)

	logger.Debug("playback service initialized", slog.Duration("poll_interval", pollInterval))
	return s
}

// SetDefaults sets the volume and loop mode a newly loaded video starts with.
func (s *PlaybackService) SetDefaults(volume float64, loop bool) error {
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.defaultVolume = volume
	s.defaultLoop = loop
	if s.widget == nil {
		s.state.Volume = volume
		s.state.IsLooping = loop
	}
	return nil
}

// LoadVideo replaces the current widget with a new one bound to videoID.
// The previous widget is destroyed, polling stops and the state is reset.
func (s *PlaybackService) LoadVideo(videoID string) error {
	if videoID == "" {
		return domain.NewValidationError("videoID", videoID, "must not be empty")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("playback service is shut down")
	}

	s.logger.Debug("loading video", slog.String("video_id", videoID))
	s.teardownLocked()

	gen := s.generation
	s.state = domain.DefaultPlaybackState(s.defaultVolume)
	s.state.IsLooping = s.defaultLoop
	s.state.VideoID = videoID
	s.mu.Unlock()

	events := ports.WidgetEvents{
		OnReady:       func() { s.handleReady(gen) },
		OnStateChange: func(status domain.PlaybackStatus) { s.handleStateChange(gen, status) },
	}

	// Creating a widget may start a process; the lock is not held meanwhile
	widget, err := s.factory.Create(videoID, events)
	if err != nil {
		s.logger.Warn("failed to create player widget", slog.String("video_id", videoID), slog.Any("error", err))
		s.bus.Publish(domain.NewPlaybackErrorEvent(videoID, err))
		return fmt.Errorf("create player for %s: %w", videoID, err)
	}

	s.mu.Lock()
	if s.closed || gen != s.generation {
		// A newer load or an unload happened while creating
		s.mu.Unlock()
		if err := widget.Destroy(); err != nil {
			s.logger.Warn("failed to destroy superseded widget", slog.Any("error", err))
		}
		return domain.ErrSuperseded
	}
	s.widget = widget
	s.mu.Unlock()

	return nil
}

// Unload destroys the current widget, if any, and resets the state.
func (s *PlaybackService) Unload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.teardownLocked()
	s.state = domain.DefaultPlaybackState(s.defaultVolume)
	s.state.IsLooping = s.defaultLoop
	return err
}

// teardownLocked stops polling, invalidates callbacks and destroys the widget.
// Caller must hold the write lock.
func (s *PlaybackService) teardownLocked() error {
	s.stopPollerLocked()
	s.generation++
	s.ready = false

	if s.widget == nil {
		return nil
	}
	widget := s.widget
	s.widget = nil
	if err := widget.Destroy(); err != nil {
		s.logger.Warn("failed to destroy player widget", slog.Any("error", err))
		return err
	}
	return nil
}

// handleReady applies the current volume, mute and loop settings to a fresh widget.
func (s *PlaybackService) handleReady(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.widget == nil {
		s.mu.Unlock()
		return
	}

	s.ready = true
	if err := s.applySettingsLocked(); err != nil {
		s.logger.Warn("failed to apply settings to widget", slog.Any("error", err))
	}
	if d, err := s.widget.Duration(); err == nil {
		s.state.Duration = d
	}
	if s.state.Status == domain.StatusUnstarted {
		s.state.Status = domain.StatusCued
	}
	event := domain.NewPlayerReadyEvent(s.state.VideoID, s.state.Duration)
	s.mu.Unlock()

	s.logger.Debug("player ready", slog.String("video_id", event.VideoID), slog.Duration("duration", event.Duration))
	s.bus.Publish(event)
}

func (s *PlaybackService) applySettingsLocked() error {
	var errs []error
	errs = append(errs, s.widget.SetVolume(volumePercent(s.state.Volume)))
	if s.state.IsMuted {
		errs = append(errs, s.widget.Mute())
	}
	errs = append(errs, s.widget.SetLoop(s.state.IsLooping))
	return errors.Join(errs...)
}

// handleStateChange folds a status reported by the widget into the state.
// Only actual changes are published.
func (s *PlaybackService) handleStateChange(gen uint64, status domain.PlaybackStatus) {
	s.mu.Lock()
	if gen != s.generation || s.widget == nil {
		s.mu.Unlock()
		return
	}

	prev := s.state.Status
	s.state.Status = status
	var events []domain.Event

	switch status {
	case domain.StatusPlaying:
		s.startPollerLocked()
		if s.state.Duration == 0 {
			if d, err := s.widget.Duration(); err == nil {
				s.state.Duration = d
			}
		}
		if !s.state.IsPlaying {
			s.state.IsPlaying = true
			events = append(events, domain.NewPlaybackStartedEvent(s.state.VideoID))
		}

	case domain.StatusPaused:
		s.stopPollerLocked()
		if t, err := s.widget.CurrentTime(); err == nil {
			s.state.CurrentTime = t
		}
		if s.state.IsPlaying || prev != domain.StatusPaused {
			s.state.IsPlaying = false
			events = append(events, domain.NewPlaybackPausedEvent(s.state.VideoID, s.state.CurrentTime))
		}

	case domain.StatusEnded:
		s.stopPollerLocked()
		s.state.IsPlaying = false
		if s.state.Duration > 0 {
			s.state.CurrentTime = s.state.Duration
		}
		if prev != domain.StatusEnded {
			events = append(events,
				domain.NewPlaybackProgressEvent(s.state.CurrentTime, s.state.Duration),
				domain.NewPlaybackEndedEvent(s.state.VideoID))
		}
		if s.state.IsLooping && s.restartLocked() {
			events = append(events, domain.NewPlaybackStartedEvent(s.state.VideoID))
		}

	case domain.StatusCued:
		s.stopPollerLocked()
		s.state.IsPlaying = false
	}
	s.mu.Unlock()

	for _, e := range events {
		s.bus.Publish(e)
	}
}

// restartLocked replays from the start for loop mode.
func (s *PlaybackService) restartLocked() bool {
	if err := s.widget.SeekTo(0); err != nil {
		s.logger.Warn("failed to rewind for loop", slog.Any("error", err))
		return false
	}
	if err := s.widget.Play(); err != nil {
		s.logger.Warn("failed to replay for loop", slog.Any("error", err))
		return false
	}
	s.state.CurrentTime = 0
	s.state.IsPlaying = true
	s.state.Status = domain.StatusPlaying
	s.startPollerLocked()
	return true
}

// Play starts or resumes playback of the current video.
func (s *PlaybackService) Play() error {
	s.mu.Lock()
	if s.widget == nil {
		s.mu.Unlock()
		return domain.ErrNoVideoLoaded
	}
	if err := s.widget.Play(); err != nil {
		s.mu.Unlock()
		return err
	}

	wasPlaying := s.state.IsPlaying
	s.state.IsPlaying = true
	s.state.Status = domain.StatusPlaying
	s.startPollerLocked()
	videoID := s.state.VideoID
	s.mu.Unlock()

	if !wasPlaying {
		s.bus.Publish(domain.NewPlaybackStartedEvent(videoID))
	}
	return nil
}

// Pause pauses playback of the current video.
func (s *PlaybackService) Pause() error {
	s.mu.Lock()
	if s.widget == nil {
		s.mu.Unlock()
		return domain.ErrNoVideoLoaded
	}
	if err := s.widget.Pause(); err != nil {
		s.mu.Unlock()
		return err
	}

	s.stopPollerLocked()
	if t, err := s.widget.CurrentTime(); err == nil {
		s.state.CurrentTime = t
	}
	s.state.IsPlaying = false
	s.state.Status = domain.StatusPaused
	event := domain.NewPlaybackPausedEvent(s.state.VideoID, s.state.CurrentTime)
	s.mu.Unlock()

	s.bus.Publish(event)
	return nil
}

// TogglePlayPause pauses while playing and plays otherwise.
func (s *PlaybackService) TogglePlayPause() error {
	s.mu.RLock()
	playing := s.state.IsPlaying
	s.mu.RUnlock()

	if playing {
		return s.Pause()
	}
	return s.Play()
}

// Stop stops playback and rewinds to the start.
func (s *PlaybackService) Stop() error {
	s.mu.Lock()
	if s.widget == nil {
		s.mu.Unlock()
		return domain.ErrNoVideoLoaded
	}
	if err := s.widget.Stop(); err != nil {
		s.mu.Unlock()
		return err
	}

	s.stopPollerLocked()
	s.state.IsPlaying = false
	s.state.CurrentTime = 0
	s.state.Status = domain.StatusCued
	videoID, duration := s.state.VideoID, s.state.Duration
	s.mu.Unlock()

	s.bus.Publish(domain.NewPlaybackStoppedEvent(videoID))
	s.bus.Publish(domain.NewPlaybackProgressEvent(0, duration))
	return nil
}

// Seek jumps to position, clamped to the known duration.
func (s *PlaybackService) Seek(position time.Duration) error {
	s.mu.Lock()
	if s.widget == nil {
		s.mu.Unlock()
		return domain.ErrNoVideoLoaded
	}

	event, err := s.seekLocked(position)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.bus.Publish(event)
	return nil
}

func (s *PlaybackService) seekLocked(position time.Duration) (domain.PlaybackProgressEvent, error) {
	target := domain.ClampPosition(position, s.state.Duration)
	if err := s.widget.SeekTo(target); err != nil {
		return domain.PlaybackProgressEvent{}, err
	}
	s.state.CurrentTime = target
	return domain.NewPlaybackProgressEvent(target, s.state.Duration), nil
}

// SkipForward moves the position forward by d, stopping at the end.
func (s *PlaybackService) SkipForward(d time.Duration) error {
	return s.skip(d)
}

// SkipBackward moves the position back by d, stopping at the start.
func (s *PlaybackService) SkipBackward(d time.Duration) error {
	return s.skip(-d)
}

func (s *PlaybackService) skip(delta time.Duration) error {
	s.mu.Lock()
	if s.widget == nil {
		s.mu.Unlock()
		return domain.ErrNoVideoLoaded
	}

	current := s.state.CurrentTime
	if t, err := s.widget.CurrentTime(); err == nil {
		current = t
	}
	if s.state.Duration == 0 {
		if d, err := s.widget.Duration(); err == nil {
			s.state.Duration = d
		}
	}

	event, err := s.seekLocked(current + delta)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.bus.Publish(event)
	return nil
}

// SetVolume sets the playback volume (0.0 to 1.0). The mute state is unchanged.
func (s *PlaybackService) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	s.mu.Lock()
	if s.widget == nil {
		s.mu.Unlock()
		return domain.ErrNoVideoLoaded
	}
	if err := s.widget.SetVolume(volumePercent(volume)); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state.Volume = volume
	s.mu.Unlock()

	s.bus.Publish(domain.NewVolumeChangedEvent(volume))
	return nil
}

// SetMuted mutes or unmutes playback.
func (s *PlaybackService) SetMuted(muted bool) error {
	s.mu.Lock()
	if s.widget == nil {
		s.mu.Unlock()
		return domain.ErrNoVideoLoaded
	}
	if s.state.IsMuted == muted {
		s.mu.Unlock()
		return nil // Already in the desired state
	}

	var err error
	if muted {
		err = s.widget.Mute()
	} else {
		err = s.widget.Unmute()
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.state.IsMuted = muted
	s.mu.Unlock()

	s.bus.Publish(domain.NewMuteToggledEvent(muted))
	return nil
}

// ToggleMute flips the mute state.
func (s *PlaybackService) ToggleMute() error {
	s.mu.RLock()
	muted := s.state.IsMuted
	s.mu.RUnlock()

	return s.SetMuted(!muted)
}

// SetLoop enables or disables loop mode.
// When enabled, the current video restarts when it ends.
func (s *PlaybackService) SetLoop(loop bool) error {
	s.mu.Lock()
	if s.widget == nil {
		s.mu.Unlock()
		return domain.ErrNoVideoLoaded
	}
	if s.state.IsLooping == loop {
		s.mu.Unlock()
		return nil
	}
	if err := s.widget.SetLoop(loop); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state.IsLooping = loop
	s.mu.Unlock()

	s.bus.Publish(domain.NewLoopToggledEvent(loop))
	return nil
}

// ToggleLoop flips loop mode.
func (s *PlaybackService) ToggleLoop() error {
	s.mu.RLock()
	loop := s.state.IsLooping
	s.mu.RUnlock()

	return s.SetLoop(!loop)
}

// State returns a snapshot of the playback state.
func (s *PlaybackService) State() domain.PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsReady reports whether the current widget has signalled readiness.
func (s *PlaybackService) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Shutdown destroys the widget and waits for the poller to exit.
func (s *PlaybackService) Shutdown() error {
	s.mu.Lock()
	s.closed = true
	err := s.teardownLocked()
	// Release lock before waiting for the poller (it takes the lock on every tick)
	s.mu.Unlock()

	s.pollWg.Wait()
	return err
}

// startPollerLocked starts the position poller unless one is running.
// Caller must hold the write lock.
func (s *PlaybackService) startPollerLocked() {
	if s.pollStop != nil || s.closed {
		return
	}

	stop := make(chan struct{})
	s.pollStop = stop
	gen := s.generation
	s.pollWg.Add(1)

	go func() {
		defer s.pollWg.Done()
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.publishProgressUpdate(gen, stop)
			}
		}
	}()
}

// stopPollerLocked signals the poller to exit without waiting for it.
// Caller must hold the write lock.
func (s *PlaybackService) stopPollerLocked() {
	if s.pollStop == nil {
		return
	}
	close(s.pollStop)
	s.pollStop = nil
}

// publishProgressUpdate reads the position and publishes a progress event.
func (s *PlaybackService) publishProgressUpdate(gen uint64, stop chan struct{}) {
	s.mu.Lock()
	// A poller that was stopped may still see one more tick
	if gen != s.generation || s.widget == nil || s.pollStop != stop {
		s.mu.Unlock()
		return
	}

	if t, err := s.widget.CurrentTime(); err == nil {
		s.state.CurrentTime = t
	}
	if d, err := s.widget.Duration(); err == nil && d > 0 {
		s.state.Duration = d
	}
	event := domain.NewPlaybackProgressEvent(s.state.CurrentTime, s.state.Duration)
	s.mu.Unlock()

	// Publish progress event (no lock needed - event bus is thread-safe)
	s.bus.Publish(event)
}

// volumePercent converts 0..1 to the widget's 0..100 scale.
func volumePercent(v float64) int {
	return int(math.Round(v * 100))
}

// Verify that PlaybackService implements the expected interface patterns
var _ interface {
	LoadVideo(string) error
	Unload() error
	Play() error
	Pause() error
	TogglePlayPause() error
	Stop() error
	Seek(time.Duration) error
	SkipForward(time.Duration) error
	SkipBackward(time.Duration) error
	SetVolume(float64) error
	SetMuted(bool) error
	ToggleMute() error
	SetLoop(bool) error
	ToggleLoop() error
	State() domain.PlaybackState
	Shutdown() error
} = (*PlaybackService)(nil)
