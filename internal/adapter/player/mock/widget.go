// Package mock provides an in-memory implementation of the PlayerWidget interface.
// This is used for testing services without a real player, and for headless runs.
package mock

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

// DefaultDuration is the length every mock video reports unless configured.
const DefaultDuration = 3 * time.Minute

// ErrCommandFailed is returned by widget commands configured to fail.
var ErrCommandFailed = errors.New("mock widget command failed")

// Factory creates mock widgets and remembers them for inspection.
//
// Thread-safety: This implementation is thread-safe.
type Factory struct {
	logger *slog.Logger

	mu         sync.Mutex
	widgets    []*Widget
	duration   time.Duration
	failCreate bool
	autoEvents bool
	now        func() time.Time
}

// NewFactory creates a mock widget factory.
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Factory{
		logger:   logger,
		duration: DefaultDuration,
		now:      time.Now,
	}
}

// SetFailCreate configures the factory to fail creating widgets (for testing).
func (f *Factory) SetFailCreate(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCreate = fail
}

// SetDuration sets the duration of widgets created from now on.
func (f *Factory) SetDuration(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.duration = d
}

// SetClock replaces the clock used for elapsed playback time (for testing).
func (f *Factory) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// SetAutoEvents makes widgets report readiness and state changes on their own,
// asynchronously, the way a real player does. Tests usually leave this off and
// drive callbacks explicitly.
func (f *Factory) SetAutoEvents(auto bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoEvents = auto
}

// Create builds a widget bound to videoID.
func (f *Factory) Create(videoID string, events ports.WidgetEvents) (ports.PlayerWidget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCreate {
		return nil, fmt.Errorf("mock create %s: %w", videoID, ErrCommandFailed)
	}

	w := &Widget{
		videoID:    videoID,
		events:     events,
		duration:   f.duration,
		volume:     100,
		status:     domain.StatusUnstarted,
		autoEvents: f.autoEvents,
		now:        f.now,
	}
	f.widgets = append(f.widgets, w)
	f.logger.Debug("mock widget created", slog.String("video_id", videoID))

	if w.autoEvents {
		w.fireAsync(func() { w.SimulateReady() })
	}
	return w, nil
}

// Widgets returns every widget created so far, oldest first.
func (f *Factory) Widgets() []*Widget {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Widget(nil), f.widgets...)
}

// Last returns the most recently created widget, or nil.
func (f *Factory) Last() *Widget {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.widgets) == 0 {
		return nil
	}
	return f.widgets[len(f.widgets)-1]
}

// Widget is a mock playback widget that simulates a clock-driven position.
type Widget struct {
	videoID    string
	events     ports.WidgetEvents
	autoEvents bool
	now        func() time.Time

	mu           sync.Mutex
	duration     time.Duration
	position     time.Duration // position at playingSince, or the frozen position
	playingSince time.Time
	status       domain.PlaybackStatus
	volume       int
	muted        bool
	loop         bool
	destroyed    bool
	failCommands bool
	calls        []string

	pending sync.WaitGroup
}

// SetFailCommands configures every command to fail (for testing).
func (w *Widget) SetFailCommands(fail bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failCommands = fail
}

// command records name and checks the failure toggles. Caller must hold mu.
func (w *Widget) command(name string) error {
	if w.destroyed {
		return domain.ErrWidgetClosed
	}
	w.calls = append(w.calls, name)
	if w.failCommands {
		return fmt.Errorf("%s: %w", name, ErrCommandFailed)
	}
	return nil
}

// currentLocked returns the simulated position. Caller must hold mu.
func (w *Widget) currentLocked() time.Duration {
	pos := w.position
	if w.status == domain.StatusPlaying {
		pos += w.now().Sub(w.playingSince)
	}
	if w.duration > 0 && pos > w.duration {
		pos = w.duration
	}
	return pos
}

// Play starts or resumes playback.
func (w *Widget) Play() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.command("play"); err != nil {
		return err
	}
	if w.status == domain.StatusEnded {
		w.position = 0
	}
	if w.status != domain.StatusPlaying {
		w.playingSince = w.now()
		w.status = domain.StatusPlaying
		w.notifyLocked(domain.StatusPlaying)
	}
	return nil
}

// Pause freezes the position.
func (w *Widget) Pause() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.command("pause"); err != nil {
		return err
	}
	if w.status == domain.StatusPlaying {
		w.position = w.currentLocked()
		w.status = domain.StatusPaused
		w.notifyLocked(domain.StatusPaused)
	}
	return nil
}

// Stop rewinds and cues the video.
func (w *Widget) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.command("stop"); err != nil {
		return err
	}
	w.position = 0
	w.status = domain.StatusCued
	w.notifyLocked(domain.StatusCued)
	return nil
}

// SeekTo sets the position.
func (w *Widget) SeekTo(position time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.command(fmt.Sprintf("seek:%s", position)); err != nil {
		return err
	}
	w.position = position
	w.playingSince = w.now()
	return nil
}

// SetVolume sets the volume in percent.
func (w *Widget) SetVolume(percent int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.command(fmt.Sprintf("volume:%d", percent)); err != nil {
		return err
	}
	if percent < 0 || percent > 100 {
		return domain.ErrInvalidVolume
	}
	w.volume = percent
	return nil
}

// Mute silences the widget.
func (w *Widget) Mute() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.command("mute"); err != nil {
		return err
	}
	w.muted = true
	return nil
}

// Unmute restores sound.
func (w *Widget) Unmute() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.command("unmute"); err != nil {
		return err
	}
	w.muted = false
	return nil
}

// SetLoop sets loop mode.
func (w *Widget) SetLoop(enabled bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.command(fmt.Sprintf("loop:%t", enabled)); err != nil {
		return err
	}
	w.loop = enabled
	return nil
}

// CurrentTime returns the simulated position.
func (w *Widget) CurrentTime() (time.Duration, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.destroyed {
		return 0, domain.ErrWidgetClosed
	}
	return w.currentLocked(), nil
}

// Duration returns the configured duration.
func (w *Widget) Duration() (time.Duration, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.destroyed {
		return 0, domain.ErrWidgetClosed
	}
	return w.duration, nil
}

// Destroy releases the widget. It is safe to call more than once.
func (w *Widget) Destroy() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyed = true
	return nil
}

// WaitPending blocks until auto events already scheduled have been delivered.
func (w *Widget) WaitPending() {
	w.pending.Wait()
}

// notifyLocked schedules a state change callback when auto events are on.
func (w *Widget) notifyLocked(status domain.PlaybackStatus) {
	if !w.autoEvents {
		return
	}
	w.fireAsync(func() {
		if !w.IsDestroyed() {
			w.SimulateStateChange(status)
		}
	})
}

func (w *Widget) fireAsync(fn func()) {
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		fn()
	}()
}

// Test helpers

// SimulateReady invokes the OnReady callback, as a real player does once loaded.
func (w *Widget) SimulateReady() {
	w.mu.Lock()
	destroyed := w.destroyed
	w.mu.Unlock()

	if !destroyed && w.events.OnReady != nil {
		w.events.OnReady()
	}
}

// SimulateStateChange invokes OnStateChange. Ended also moves the position
// to the end; the callback is delivered even after Destroy so tests can check
// that stale callbacks are ignored.
func (w *Widget) SimulateStateChange(status domain.PlaybackStatus) {
	w.mu.Lock()
	if !w.destroyed {
		switch status {
		case domain.StatusEnded:
			w.position = w.duration
		case domain.StatusPaused, domain.StatusCued:
			w.position = w.currentLocked()
		case domain.StatusPlaying:
			if w.status != domain.StatusPlaying {
				w.playingSince = w.now()
			}
		}
		w.status = status
	}
	w.mu.Unlock()

	if w.events.OnStateChange != nil {
		w.events.OnStateChange(status)
	}
}

// SimulateProgress sets the position directly.
func (w *Widget) SimulateProgress(position time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.position = position
	w.playingSince = w.now()
}

// SetDuration changes the reported duration.
func (w *Widget) SetDuration(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.duration = d
}

// VideoID returns the video the widget was created for.
func (w *Widget) VideoID() string {
	return w.videoID
}

// Status returns the simulated status.
func (w *Widget) Status() domain.PlaybackStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Volume returns the last volume set, in percent.
func (w *Widget) Volume() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.volume
}

// IsMuted reports the mute flag.
func (w *Widget) IsMuted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.muted
}

// IsLooping reports the loop flag.
func (w *Widget) IsLooping() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loop
}

// IsDestroyed reports whether Destroy was called.
func (w *Widget) IsDestroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

// Calls returns the commands received so far, in order.
func (w *Widget) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

var (
	_ ports.PlayerWidgetFactory = (*Factory)(nil)
	_ ports.PlayerWidget        = (*Widget)(nil)
)
