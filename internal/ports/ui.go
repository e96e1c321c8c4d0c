package ports

import (
	"time"

	"github.com/tejashwikalptaru/songscope/internal/domain"
)

// UI is what the presenter drives. The Fyne main window implements it;
// presenter tests use a recording fake.
//
// Methods may be called from any goroutine. Implementations move the work
// onto their toolkit's UI goroutine.
type UI interface {
	// Video information
	SetURL(url string)
	SetVideoInfo(title, description string)
	SetThumbnail(imageData []byte)
	ClearThumbnail()
	SetSearchResults(options []string)

	// Playback state updates
	SetControlsEnabled(enabled bool)
	SetPlayState(playing bool)
	SetMuteState(muted bool)
	SetLoopState(enabled bool)
	SetVolume(volume float64)
	SetProgress(position, duration time.Duration)

	// Analysis panes
	SetAnalysisLoading(loading bool, status string)
	SetSong(song domain.SongIdentity)
	SetTrivia(paragraphs []string)
	SetLyrics(lines []string)
	ShowAnalysisError(message string)
	ClearAnalysis()

	// Notifications
	ShowError(title, message string)
}
