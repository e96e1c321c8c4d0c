// Package domain defines events for the event-driven architecture.
// Events replace the callback system and enable loose coupling between components.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Video selection events
	EventVideoSelected   EventType = "video.selected"
	EventVideoLoaded     EventType = "video.loaded"
	EventVideoLoadFailed EventType = "video.load_failed"

	// Search events
	EventSearchResults EventType = "search.results"
	EventSearchFailed  EventType = "search.failed"

	// Playback events
	EventPlayerReady      EventType = "playback.ready"
	EventPlaybackStarted  EventType = "playback.started"
	EventPlaybackPaused   EventType = "playback.paused"
	EventPlaybackStopped  EventType = "playback.stopped"
	EventPlaybackEnded    EventType = "playback.ended"
	EventPlaybackProgress EventType = "playback.progress"
	EventPlaybackError    EventType = "playback.error"

	// Volume events
	EventVolumeChanged EventType = "volume.changed"
	EventMuteToggled   EventType = "mute.toggled"

	// Playback mode events
	EventLoopToggled EventType = "loop.toggled"

	// Analysis events
	EventAnalysisStarted   EventType = "analysis.started"
	EventAnalysisStage     EventType = "analysis.stage"
	EventAnalysisCompleted EventType = "analysis.completed"
	EventAnalysisFailed    EventType = "analysis.failed"
	EventAnalysisReset     EventType = "analysis.reset"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// VideoSelectedEvent is published as soon as a valid video reference is chosen,
// before its metadata arrives.
type VideoSelectedEvent struct {
	baseEvent
	Ref VideoReference
}

// Type returns the event type.
func (e VideoSelectedEvent) Type() EventType {
	return EventVideoSelected
}

// NewVideoSelectedEvent creates a new VideoSelectedEvent.
func NewVideoSelectedEvent(ref VideoReference) VideoSelectedEvent {
	return VideoSelectedEvent{
		baseEvent: newBaseEvent(),
		Ref:       ref,
	}
}

// VideoLoadedEvent is published when metadata for the current video arrives.
type VideoLoadedEvent struct {
	baseEvent
	Ref      VideoReference
	Metadata VideoMetadata
}

// Type returns the event type.
func (e VideoLoadedEvent) Type() EventType {
	return EventVideoLoaded
}

// NewVideoLoadedEvent creates a new VideoLoadedEvent.
func NewVideoLoadedEvent(ref VideoReference, metadata VideoMetadata) VideoLoadedEvent {
	return VideoLoadedEvent{
		baseEvent: newBaseEvent(),
		Ref:       ref,
		Metadata:  metadata,
	}
}

// VideoLoadFailedEvent is published when metadata could not be fetched.
// FallbackTitle is what the view should show instead.
type VideoLoadFailedEvent struct {
	baseEvent
	Ref           VideoReference
	FallbackTitle string
	Error         error
}

// Type returns the event type.
func (e VideoLoadFailedEvent) Type() EventType {
	return EventVideoLoadFailed
}

// NewVideoLoadFailedEvent creates a new VideoLoadFailedEvent.
func NewVideoLoadFailedEvent(ref VideoReference, fallbackTitle string, err error) VideoLoadFailedEvent {
	return VideoLoadFailedEvent{
		baseEvent:     newBaseEvent(),
		Ref:           ref,
		FallbackTitle: fallbackTitle,
		Error:         err,
	}
}

// SearchResultsEvent is published when a search completes.
type SearchResultsEvent struct {
	baseEvent
	Query   string
	Results []SearchResultEntry
}

// Type returns the event type.
func (e SearchResultsEvent) Type() EventType {
	return EventSearchResults
}

// NewSearchResultsEvent creates a new SearchResultsEvent.
func NewSearchResultsEvent(query string, results []SearchResultEntry) SearchResultsEvent {
	return SearchResultsEvent{
		baseEvent: newBaseEvent(),
		Query:     query,
		Results:   results,
	}
}

// SearchFailedEvent is published when a search request fails.
type SearchFailedEvent struct {
	baseEvent
	Query string
	Error error
}

// Type returns the event type.
func (e SearchFailedEvent) Type() EventType {
	return EventSearchFailed
}

// NewSearchFailedEvent creates a new SearchFailedEvent.
func NewSearchFailedEvent(query string, err error) SearchFailedEvent {
	return SearchFailedEvent{
		baseEvent: newBaseEvent(),
		Query:     query,
		Error:     err,
	}
}

// PlayerReadyEvent is published when the widget reports it is ready.
type PlayerReadyEvent struct {
	baseEvent
	VideoID  string
	Duration time.Duration
}

// Type returns the event type.
func (e PlayerReadyEvent) Type() EventType {
	return EventPlayerReady
}

// NewPlayerReadyEvent creates a new PlayerReadyEvent.
func NewPlayerReadyEvent(videoID string, duration time.Duration) PlayerReadyEvent {
	return PlayerReadyEvent{
		baseEvent: newBaseEvent(),
		VideoID:   videoID,
		Duration:  duration,
	}
}

// PlaybackStartedEvent is published when playback starts.
type PlaybackStartedEvent struct {
	baseEvent
	VideoID string
}

// Type returns the event type.
func (e PlaybackStartedEvent) Type() EventType {
	return EventPlaybackStarted
}

// NewPlaybackStartedEvent creates a new PlaybackStartedEvent.
func NewPlaybackStartedEvent(videoID string) PlaybackStartedEvent {
	return PlaybackStartedEvent{
		baseEvent: newBaseEvent(),
		VideoID:   videoID,
	}
}

// PlaybackPausedEvent is published when playback is paused.
type PlaybackPausedEvent struct {
	baseEvent
	VideoID  string
	Position time.Duration
}

// Type returns the event type.
func (e PlaybackPausedEvent) Type() EventType {
	return EventPlaybackPaused
}

// NewPlaybackPausedEvent creates a new PlaybackPausedEvent.
func NewPlaybackPausedEvent(videoID string, position time.Duration) PlaybackPausedEvent {
	return PlaybackPausedEvent{
		baseEvent: newBaseEvent(),
		VideoID:   videoID,
		Position:  position,
	}
}

// PlaybackStoppedEvent is published when playback is stopped.
type PlaybackStoppedEvent struct {
	baseEvent
	VideoID string
}

// Type returns the event type.
func (e PlaybackStoppedEvent) Type() EventType {
	return EventPlaybackStopped
}

// NewPlaybackStoppedEvent creates a new PlaybackStoppedEvent.
func NewPlaybackStoppedEvent(videoID string) PlaybackStoppedEvent {
	return PlaybackStoppedEvent{
		baseEvent: newBaseEvent(),
		VideoID:   videoID,
	}
}

// PlaybackEndedEvent is published when a video plays to its end.
type PlaybackEndedEvent struct {
	baseEvent
	VideoID string
}

// Type returns the event type.
func (e PlaybackEndedEvent) Type() EventType {
	return EventPlaybackEnded
}

// NewPlaybackEndedEvent creates a new PlaybackEndedEvent.
func NewPlaybackEndedEvent(videoID string) PlaybackEndedEvent {
	return PlaybackEndedEvent{
		baseEvent: newBaseEvent(),
		VideoID:   videoID,
	}
}

// PlaybackProgressEvent is published while polling and after seeks.
type PlaybackProgressEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e PlaybackProgressEvent) Type() EventType {
	return EventPlaybackProgress
}

// NewPlaybackProgressEvent creates a new PlaybackProgressEvent.
func NewPlaybackProgressEvent(position, duration time.Duration) PlaybackProgressEvent {
	return PlaybackProgressEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// PlaybackErrorEvent is published when the widget cannot be created or driven.
type PlaybackErrorEvent struct {
	baseEvent
	VideoID string
	Error   error
}

// Type returns the event type.
func (e PlaybackErrorEvent) Type() EventType {
	return EventPlaybackError
}

// NewPlaybackErrorEvent creates a new PlaybackErrorEvent.
func NewPlaybackErrorEvent(videoID string, err error) PlaybackErrorEvent {
	return PlaybackErrorEvent{
		baseEvent: newBaseEvent(),
		VideoID:   videoID,
		Error:     err,
	}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64 // 0.0 to 1.0
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// MuteToggledEvent is published when mute is toggled.
type MuteToggledEvent struct {
	baseEvent
	Muted bool
}

// Type returns the event type.
func (e MuteToggledEvent) Type() EventType {
	return EventMuteToggled
}

// NewMuteToggledEvent creates a new MuteToggledEvent.
func NewMuteToggledEvent(muted bool) MuteToggledEvent {
	return MuteToggledEvent{
		baseEvent: newBaseEvent(),
		Muted:     muted,
	}
}

// LoopToggledEvent is published when loop mode is toggled.
type LoopToggledEvent struct {
	baseEvent
	Enabled bool
}

// Type returns the event type.
func (e LoopToggledEvent) Type() EventType {
	return EventLoopToggled
}

// NewLoopToggledEvent creates a new LoopToggledEvent.
func NewLoopToggledEvent(enabled bool) LoopToggledEvent {
	return LoopToggledEvent{
		baseEvent: newBaseEvent(),
		Enabled:   enabled,
	}
}

// AnalysisStartedEvent is published when a run enters the loading state.
type AnalysisStartedEvent struct {
	baseEvent
	RunID string
	Title string
}

// Type returns the event type.
func (e AnalysisStartedEvent) Type() EventType {
	return EventAnalysisStarted
}

// NewAnalysisStartedEvent creates a new AnalysisStartedEvent.
func NewAnalysisStartedEvent(runID, title string) AnalysisStartedEvent {
	return AnalysisStartedEvent{
		baseEvent: newBaseEvent(),
		RunID:     runID,
		Title:     title,
	}
}

// AnalysisStageEvent is published as each stage of a run begins.
type AnalysisStageEvent struct {
	baseEvent
	RunID string
	Stage AnalysisStage
}

// Type returns the event type.
func (e AnalysisStageEvent) Type() EventType {
	return EventAnalysisStage
}

// NewAnalysisStageEvent creates a new AnalysisStageEvent.
func NewAnalysisStageEvent(runID string, stage AnalysisStage) AnalysisStageEvent {
	return AnalysisStageEvent{
		baseEvent: newBaseEvent(),
		RunID:     runID,
		Stage:     stage,
	}
}

// AnalysisCompletedEvent carries the populated result of a successful run.
type AnalysisCompletedEvent struct {
	baseEvent
	Result AnalysisResult
}

// Type returns the event type.
func (e AnalysisCompletedEvent) Type() EventType {
	return EventAnalysisCompleted
}

// NewAnalysisCompletedEvent creates a new AnalysisCompletedEvent.
func NewAnalysisCompletedEvent(result AnalysisResult) AnalysisCompletedEvent {
	return AnalysisCompletedEvent{
		baseEvent: newBaseEvent(),
		Result:    result,
	}
}

// AnalysisFailedEvent is published when a run stops at a failed stage.
type AnalysisFailedEvent struct {
	baseEvent
	RunID   string
	Stage   AnalysisStage
	Message string
	Error   error
}

// Type returns the event type.
func (e AnalysisFailedEvent) Type() EventType {
	return EventAnalysisFailed
}

// NewAnalysisFailedEvent creates a new AnalysisFailedEvent.
func NewAnalysisFailedEvent(runID string, stage AnalysisStage, message string, err error) AnalysisFailedEvent {
	return AnalysisFailedEvent{
		baseEvent: newBaseEvent(),
		RunID:     runID,
		Stage:     stage,
		Message:   message,
		Error:     err,
	}
}

// AnalysisResetEvent is published when the current result is cleared.
type AnalysisResetEvent struct {
	baseEvent
}

// Type returns the event type.
func (e AnalysisResetEvent) Type() EventType {
	return EventAnalysisReset
}

// NewAnalysisResetEvent creates a new AnalysisResetEvent.
func NewAnalysisResetEvent() AnalysisResetEvent {
	return AnalysisResetEvent{baseEvent: newBaseEvent()}
}
