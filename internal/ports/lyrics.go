package ports

import (
	"context"

	"github.com/tejashwikalptaru/songscope/internal/domain"
)

// LyricsProvider is one lyrics lookup strategy.
type LyricsProvider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// FetchLyrics returns the lyrics text for a song.
	// An empty string with a nil error means the provider found nothing usable.
	// domain.ErrNotFound means the provider has no match for the song.
	FetchLyrics(ctx context.Context, song domain.SongIdentity) (string, error)
}

// SongIdentifier derives song facts from a video title.
type SongIdentifier interface {
	// IdentifySong extracts (song, artist) from a title.
	IdentifySong(ctx context.Context, title string) (domain.SongIdentity, error)

	// FetchTrivia returns a paragraph of trivia about a song.
	FetchTrivia(ctx context.Context, song domain.SongIdentity) (string, error)
}

// LyricsFetcher returns lyrics for a song, trying every strategy it knows.
type LyricsFetcher interface {
	FetchLyrics(ctx context.Context, song domain.SongIdentity) (string, error)
}
