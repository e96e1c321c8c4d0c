// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/songscope/internal/domain"
)

// PlayerWidget is a single embedded playback widget bound to one video.
// The widget is a black box: it plays, pauses, seeks and reports its state
// through the callbacks given to the factory that created it.
//
// A widget is created per video. Loading another video means destroying the
// current widget and creating a new one.
//
// Thread-safety: Implementations must be safe for concurrent use. Callbacks
// must never be invoked while an implementation holds its own lock, and never
// synchronously from inside one of the methods below.
type PlayerWidget interface {
	// Playback control

	// Play starts or resumes playback.
	Play() error

	// Pause pauses playback at the current position.
	Pause() error

	// Stop stops playback. The next Play starts from the beginning.
	Stop() error

	// SeekTo jumps to the given position.
	SeekTo(position time.Duration) error

	// Volume control

	// SetVolume sets the volume in percent (0 to 100).
	SetVolume(percent int) error

	// Mute silences the widget without changing its volume.
	Mute() error

	// Unmute restores sound at the current volume.
	Unmute() error

	// SetLoop enables or disables restarting at the end of the video.
	SetLoop(enabled bool) error

	// Position queries

	// CurrentTime returns the current playback position.
	CurrentTime() (time.Duration, error)

	// Duration returns the total length, zero if not yet known.
	Duration() (time.Duration, error)

	// Lifecycle

	// Destroy releases the widget. It is safe to call more than once.
	// After Destroy every other method returns domain.ErrWidgetClosed.
	Destroy() error
}

// WidgetEvents are the callbacks a widget reports through.
// They are injected per widget so no global hook is needed.
type WidgetEvents struct {
	// OnReady is called once when the widget can accept commands.
	OnReady func()

	// OnStateChange is called whenever the widget's status changes.
	OnStateChange func(status domain.PlaybackStatus)
}

// PlayerWidgetFactory creates playback widgets.
type PlayerWidgetFactory interface {
	// Create builds a widget bound to videoID.
	// events may have nil callbacks.
	Create(videoID string, events WidgetEvents) (PlayerWidget, error)
}
