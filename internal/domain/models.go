// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the SongScope client.
package domain

import (
	"time"
)

// VideoReference identifies the video the user picked.
// It is created when a URL is pasted or a search result is selected and
// lives for as long as the video stays current.
type VideoReference struct {
	// ID is the platform video identifier (11 characters in practice)
	ID string

	// Source is the raw URL (or reconstructed watch URL) the ID came from
	Source string
}

// IsZero reports whether the reference is unset.
func (r VideoReference) IsZero() bool {
	return r.ID == ""
}

// VideoMetadata describes a single video as reported by the metadata backend.
// It has no persistence and is replaced on every load.
type VideoMetadata struct {
	ID           string
	Title        string
	Description  string
	ThumbnailURL string

	// Duration is the parsed ISO-8601 duration of the video
	Duration time.Duration
}

// DurationSeconds returns the duration in whole seconds.
func (m VideoMetadata) DurationSeconds() int {
	return int(m.Duration / time.Second)
}

// SearchResultEntry is one candidate in the search dropdown.
type SearchResultEntry struct {
	ID           string
	Title        string
	ThumbnailURL string
	ChannelTitle string
}

// PlaybackState is the snapshot owned by the playback controller.
// It is mutated only by user control actions and by polling the widget.
type PlaybackState struct {
	// VideoID is the video bound to the current widget ("" if none)
	VideoID string

	// Status is the last state reported by (or requested from) the widget
	Status PlaybackStatus

	// IsPlaying is true while playback is active
	IsPlaying bool

	// CurrentTime is the last known playback position
	CurrentTime time.Duration

	// Duration is the total length, zero until the widget reports it
	Duration time.Duration

	// Volume is the volume level (0.0 to 1.0)
	Volume float64

	IsMuted   bool
	IsLooping bool
}

// DefaultPlaybackState returns the state a freshly loaded video starts with.
func DefaultPlaybackState(volume float64) PlaybackState {
	return PlaybackState{
		Status: StatusUnstarted,
		Volume: volume,
	}
}

// PlaybackStatus mirrors the state codes of the embeddable player.
type PlaybackStatus int

const (
	// StatusUnstarted indicates the video has not started yet
	StatusUnstarted PlaybackStatus = -1

	// StatusEnded indicates playback reached the end
	StatusEnded PlaybackStatus = 0

	// StatusPlaying indicates playback is active
	StatusPlaying PlaybackStatus = 1

	// StatusPaused indicates playback is paused
	StatusPaused PlaybackStatus = 2

	// StatusBuffering indicates the widget is buffering
	StatusBuffering PlaybackStatus = 3

	// StatusCued indicates the video is cued and ready to play
	StatusCued PlaybackStatus = 5
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusUnstarted:
		return "unstarted"
	case StatusEnded:
		return "ended"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusBuffering:
		return "buffering"
	case StatusCued:
		return "cued"
	default:
		return "unknown"
	}
}

// SongIdentity is the (song, artist) pair derived from a video title.
// Empty strings mean "unknown".
type SongIdentity struct {
	SongName   string
	ArtistName string
}

// IsUnknown reports whether neither field could be identified.
func (s SongIdentity) IsUnknown() bool {
	return s.SongName == "" && s.ArtistName == ""
}

// AnalysisResult is the single mutable record of one analysis run.
//
// IsLoading is true only while a stage is outstanding. A run either ends with
// Song, Trivia and Lyrics populated, or with ErrorMessage set and the
// remaining fields left empty.
type AnalysisResult struct {
	// RunID identifies the run that produced this result
	RunID string

	Song         SongIdentity
	Trivia       string
	Lyrics       string
	IsLoading    bool
	ErrorMessage string
}

// Succeeded reports whether the run finished with all fields populated.
func (r AnalysisResult) Succeeded() bool {
	return !r.IsLoading && r.ErrorMessage == "" && r.RunID != ""
}

// AnalysisStage names one step of the analysis workflow.
type AnalysisStage string

const (
	StageIdentify AnalysisStage = "identify"
	StageTrivia   AnalysisStage = "trivia"
	StageLyrics   AnalysisStage = "lyrics"
)

// ChatRole is the role tag of a chat message.
type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one role-tagged message sent to a chat-completion backend.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// Preferences contain user preferences and settings.
type Preferences struct {
	// Volume is the default volume for newly loaded videos (0.0 to 1.0)
	Volume float64

	// LoopEnabled indicates if loop mode is enabled by default
	LoopEnabled bool

	// LastVideoURL is the URL that was loaded last
	LastVideoURL string
}
