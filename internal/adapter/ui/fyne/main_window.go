package fyne

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // thumbnails are served as JPEG
	_ "image/png"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	xwidget "fyne.io/x/fyne/widget"

	"github.com/tejashwikalptaru/songscope/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

const (
	APPNAME = "SongScope"
	WIDTH   = 1100
	HEIGHT  = 700

	// volumeStep is the Alt+Up/Alt+Down change in percent
	volumeStep = 5

	// shortcutSkip is the Alt+Left/Alt+Right skip
	shortcutSkip = 5 * time.Second
)

// skipSteps are the skip buttons, in display order.
var skipSteps = []time.Duration{
	-20 * time.Second, -10 * time.Second, -5 * time.Second,
	5 * time.Second, 10 * time.Second, 20 * time.Second,
}

// MainWindow is the main UI window implementing ports.UI.
// It handles all UI rendering and user interactions.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter
//
// ports.UI methods may be called from any goroutine; they hand their work to
// the Fyne main goroutine with fyne.Do.
type MainWindow struct {
	app     fyneapp.App
	window  fyneapp.Window
	version string

	// Video selection
	searchEntry   *xwidget.CompletionEntry
	urlEntry      *widget.Entry
	loadButton    *widget.Button
	analyzeButton *widget.Button

	// Video information
	thumbnail        *widgets.VideoThumbnail
	titleLabel       *widget.Label
	descriptionLabel *widget.Label

	// Playback controls
	playButton     *widget.Button
	stopButton     *widget.Button
	skipButtons    []*widget.Button
	muteButton     *widget.Button
	loopButton     *widget.Button
	volumeSlider   *widget.Slider
	progressSlider *widget.Slider
	currentTime    *widget.Label
	endTime        *widget.Label

	// Analysis
	songLabel      *widget.Label
	analysisBar    *widget.ProgressBarInfinite
	analysisStatus *widget.Label
	analysisError  *widget.Label
	triviaBox      *fyneapp.Container
	lyricsBox      *fyneapp.Container

	// State (main goroutine only)
	seeking bool

	// Lifecycle management
	closeOnce     sync.Once
	onBeforeClose func()

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window.
func NewMainWindow(app fyneapp.App, version string) *MainWindow {
	w := &MainWindow{
		app:     app,
		version: version,
	}

	// Create a window
	w.window = app.NewWindow(APPNAME)

	// Build UI
	w.buildUI()

	// Set window properties
	w.window.Resize(fyneapp.Size{
		Width:  WIDTH,
		Height: HEIGHT,
	})
	w.app.SetIcon(theme.MediaMusicIcon())

	w.window.SetCloseIntercept(func() {
		w.Close()
	})

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

// SetOnBeforeClose sets a callback run once before the window closes.
func (w *MainWindow) SetOnBeforeClose(fn func()) {
	w.onBeforeClose = fn
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI() {
	// Search and URL entry
	w.searchEntry = xwidget.NewCompletionEntry([]string{})
	w.searchEntry.SetPlaceHolder("Search for a music video...")

	w.urlEntry = widget.NewEntry()
	w.urlEntry.SetPlaceHolder("Paste a YouTube URL")
	w.loadButton = widget.NewButtonWithIcon("Load", theme.DownloadIcon(), nil)
	w.analyzeButton = widget.NewButtonWithIcon("Analyze", theme.SearchIcon(), nil)
	urlRow := container.NewBorder(nil, nil, nil,
		container.NewHBox(w.loadButton, w.analyzeButton), w.urlEntry)
	header := container.NewVBox(w.searchEntry, urlRow)

	// Thumbnail and video info
	// Click toggles playback, right-click opens the video menu
	w.thumbnail = widgets.NewVideoThumbnail(fyneapp.NewSize(480, 270))
	w.thumbnail.OnTapped = func() {
		if w.presenter != nil {
			w.presenter.OnPlayPauseClicked()
		}
	}
	w.thumbnail.OnTappedSecondary = func(pe *fyneapp.PointEvent) {
		if w.presenter != nil {
			w.showVideoMenu(pe)
		}
	}

	w.titleLabel = widget.NewLabel("No video loaded")
	w.titleLabel.Wrapping = fyneapp.TextWrapWord
	w.titleLabel.TextStyle = fyneapp.TextStyle{Bold: true}

	w.descriptionLabel = widget.NewLabel("")
	w.descriptionLabel.Wrapping = fyneapp.TextWrapWord

	// Control buttons
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.stopButton = widget.NewButtonWithIcon("", theme.MediaStopIcon(), nil)
	w.muteButton = widget.NewButtonWithIcon("", theme.VolumeUpIcon(), nil)
	w.loopButton = widget.NewButtonWithIcon("", theme.MediaReplayIcon(), nil)

	buttons := container.NewHBox()
	for i, step := range skipSteps {
		if i == len(skipSteps)/2 {
			buttons.Add(w.playButton)
			buttons.Add(w.stopButton)
		}
		b := widget.NewButton(skipLabel(step), nil)
		w.skipButtons = append(w.skipButtons, b)
		buttons.Add(b)
	}
	buttons.Add(w.loopButton)
	buttons.Add(w.muteButton)

	// Volume slider
	w.volumeSlider = widget.NewSlider(0, 100)
	w.volumeSlider.Orientation = widget.Horizontal
	volIcon := canvas.NewImageFromResource(theme.VolumeUpIcon())
	volIcon.SetMinSize(fyneapp.NewSize(20, 20))
	volumeHolder := container.NewBorder(nil, nil, volIcon, nil, w.volumeSlider)
	buttonsHolder := container.NewBorder(nil, nil, buttons, nil, volumeHolder)

	// Progress slider
	w.progressSlider = widget.NewSlider(0, 1)
	w.currentTime = widget.NewLabel(domain.FormatClock(0))
	w.endTime = widget.NewLabel(domain.FormatClock(0))
	sliderHolder := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)

	videoPane := container.NewBorder(
		w.thumbnail,
		container.NewVBox(sliderHolder, buttonsHolder),
		nil, nil,
		container.NewVScroll(container.NewVBox(w.titleLabel, w.descriptionLabel)),
	)

	// Analysis pane
	w.songLabel = widget.NewLabel("")
	w.songLabel.TextStyle = fyneapp.TextStyle{Bold: true, Italic: true}
	w.songLabel.Wrapping = fyneapp.TextWrapWord

	w.analysisBar = widget.NewProgressBarInfinite()
	w.analysisBar.Stop()
	w.analysisBar.Hide()
	w.analysisStatus = widget.NewLabel("")
	w.analysisError = widget.NewLabel("")
	w.analysisError.Importance = widget.DangerImportance
	w.analysisError.Wrapping = fyneapp.TextWrapWord
	w.analysisError.Hide()

	w.triviaBox = container.NewVBox()
	w.lyricsBox = container.NewVBox()
	tabs := container.NewAppTabs(
		container.NewTabItemWithIcon("Trivia", theme.InfoIcon(), container.NewVScroll(w.triviaBox)),
		container.NewTabItemWithIcon("Lyrics", theme.DocumentIcon(), container.NewVScroll(w.lyricsBox)),
	)
	analysisPane := container.NewBorder(
		container.NewVBox(w.songLabel, w.analysisStatus, w.analysisBar, w.analysisError),
		nil, nil, nil,
		tabs,
	)

	split := container.NewHSplit(videoPane, analysisPane)
	split.Offset = 0.55

	w.window.SetContent(container.NewPadded(container.NewBorder(header, nil, nil, nil, split)))
	w.setControlsEnabled(false)

	// Menu
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

func skipLabel(d time.Duration) string {
	return fmt.Sprintf("%+ds", int(d/time.Second))
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.searchEntry.OnChanged = func(text string) {
		w.presenter.OnSearchChanged(text)
	}
	w.urlEntry.OnSubmitted = func(text string) {
		w.presenter.OnLoadRequested(text)
	}
	w.loadButton.OnTapped = func() {
		w.presenter.OnLoadRequested(w.urlEntry.Text)
	}
	w.analyzeButton.OnTapped = func() {
		w.presenter.OnAnalyzeClicked()
	}

	// Button handlers
	w.playButton.OnTapped = func() {
		w.presenter.OnPlayPauseClicked()
	}

	w.stopButton.OnTapped = func() {
		w.presenter.OnStopClicked()
	}

	for i, b := range w.skipButtons {
		step := skipSteps[i]
		b.OnTapped = func() {
			w.presenter.OnSkip(step)
		}
	}

	w.muteButton.OnTapped = func() {
		w.presenter.OnMuteClicked()
	}

	w.loopButton.OnTapped = func() {
		w.presenter.OnLoopClicked()
	}

	// Volume slider
	w.volumeSlider.OnChanged = func(value float64) {
		w.presenter.OnVolumeChanged(value)
	}

	// Progress slider: follow the drag, seek when released
	w.progressSlider.OnChanged = func(value float64) {
		w.seeking = true
		w.currentTime.SetText(domain.FormatClock(time.Duration(value * float64(time.Second))))
	}
	w.progressSlider.OnChangeEnded = func(value float64) {
		w.seeking = false
		w.presenter.OnSeekRequested(value)
	}
}

// showVideoMenu shows the context menu of the current video.
func (w *MainWindow) showVideoMenu(pe *fyneapp.PointEvent) {
	copyURL := fyneapp.NewMenuItem("Copy Video URL", func() {
		if url := w.presenter.OnCopyURLRequested(); url != "" {
			w.app.Clipboard().SetContent(url)
		}
	})
	analyze := fyneapp.NewMenuItem("Analyze", func() {
		w.presenter.OnAnalyzeClicked()
	})
	menu := fyneapp.NewMenu("", copyURL, analyze)
	widget.ShowPopUpMenuAtPosition(menu, w.window.Canvas(), pe.AbsolutePosition)
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	separator := fyneapp.NewMenuItemSeparator()

	resetPrefs := fyneapp.NewMenuItem("Reset Preferences", func() {
		if w.presenter == nil {
			return
		}
		confirmResetPreferences(w.window, w.presenter.OnResetPreferences)
	})

	exitMenu := fyneapp.NewMenuItem("Exit", func() {
		w.Close()
	})
	exitMenu.IsQuit = true

	about := fyneapp.NewMenuItem("About", func() {
		showAboutDialog(w.window, w.version)
	})

	return []*fyneapp.Menu{
		fyneapp.NewMenu("File", resetPrefs, separator, exitMenu),
		fyneapp.NewMenu("Help", about),
	}
}

// addShortcuts adds keyboard shortcuts.
func (w *MainWindow) addShortcuts() {
	c := w.window.Canvas()

	c.AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyUp,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.presenter.OnVolumeChanged(min(w.volumeSlider.Value+volumeStep, 100))
	})

	c.AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyDown,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.presenter.OnVolumeChanged(max(w.volumeSlider.Value-volumeStep, 0))
	})

	c.AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyLeft,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.presenter.OnSkip(-shortcutSkip)
	})

	c.AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyRight,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.presenter.OnSkip(shortcutSkip)
	})

	c.AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeySpace,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.presenter.OnPlayPauseClicked()
	})
}

// ShowAndRun shows the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close runs the before-close callback and closes the window.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		if w.onBeforeClose != nil {
			w.onBeforeClose()
		}
		w.window.Close()
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// ports.UI implementation

// SetURL replaces the URL box text.
func (w *MainWindow) SetURL(url string) {
	fyneapp.Do(func() {
		w.urlEntry.SetText(url)
	})
}

// SetVideoInfo shows the video title and description.
func (w *MainWindow) SetVideoInfo(title, description string) {
	fyneapp.Do(func() {
		w.titleLabel.SetText(title)
		w.descriptionLabel.SetText(description)
		w.window.SetTitle(APPNAME + " - " + title)
	})
}

// SetThumbnail shows the video thumbnail.
func (w *MainWindow) SetThumbnail(imageData []byte) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		// If decode fails, use default
		w.ClearThumbnail()
		return
	}

	fyneapp.Do(func() { w.thumbnail.SetImage(img) })
}

// ClearThumbnail resets the thumbnail to the placeholder.
func (w *MainWindow) ClearThumbnail() {
	fyneapp.Do(w.thumbnail.ShowPlaceholder)
}

// SetSearchResults fills the search dropdown. An empty list hides it.
func (w *MainWindow) SetSearchResults(options []string) {
	fyneapp.Do(func() {
		w.searchEntry.SetOptions(options)
		if len(options) == 0 {
			w.searchEntry.HideCompletion()
			return
		}
		w.searchEntry.ShowCompletion()
	})
}

// SetControlsEnabled enables the playback controls once a player is ready.
func (w *MainWindow) SetControlsEnabled(enabled bool) {
	fyneapp.Do(func() {
		w.setControlsEnabled(enabled)
	})
}

func (w *MainWindow) setControlsEnabled(enabled bool) {
	controls := []fyneapp.Disableable{w.playButton, w.stopButton, w.thumbnail}
	for _, b := range w.skipButtons {
		controls = append(controls, b)
	}
	for _, c := range controls {
		if enabled {
			c.Enable()
		} else {
			c.Disable()
		}
	}
}

// SetPlayState updates the play/pause button state.
func (w *MainWindow) SetPlayState(playing bool) {
	fyneapp.Do(func() {
		if playing {
			w.playButton.SetIcon(theme.MediaPauseIcon())
		} else {
			w.playButton.SetIcon(theme.MediaPlayIcon())
		}
	})
}

// SetMuteState updates the mute button state.
func (w *MainWindow) SetMuteState(muted bool) {
	fyneapp.Do(func() {
		if muted {
			w.muteButton.SetIcon(theme.VolumeMuteIcon())
		} else {
			w.muteButton.SetIcon(theme.VolumeUpIcon())
		}
	})
}

// SetLoopState updates the loop button state.
func (w *MainWindow) SetLoopState(enabled bool) {
	fyneapp.Do(func() {
		if enabled {
			w.loopButton.Importance = widget.HighImportance
		} else {
			w.loopButton.Importance = widget.MediumImportance
		}
		w.loopButton.Refresh()
	})
}

// SetVolume updates the volume slider.
func (w *MainWindow) SetVolume(volume float64) {
	fyneapp.Do(func() {
		// Convert from 0.0-1.0 to 0-100
		w.volumeSlider.Value = volume * 100.0
		w.volumeSlider.Refresh()
	})
}

// SetProgress updates the progress slider and time labels.
// Updates are ignored while the user drags the slider.
func (w *MainWindow) SetProgress(position, duration time.Duration) {
	fyneapp.Do(func() {
		if w.seeking {
			return
		}
		w.currentTime.SetText(domain.FormatClock(position))
		w.endTime.SetText(domain.FormatClock(duration))

		maxValue := duration.Seconds()
		if maxValue <= 0 {
			maxValue = 1
		}
		w.progressSlider.Max = maxValue
		w.progressSlider.Value = min(position.Seconds(), maxValue)
		w.progressSlider.Refresh()
	})
}

// SetAnalysisLoading shows or hides the analysis progress indicator.
func (w *MainWindow) SetAnalysisLoading(loading bool, status string) {
	fyneapp.Do(func() {
		w.analysisStatus.SetText(status)
		if loading {
			w.analyzeButton.Disable()
			w.analysisError.Hide()
			w.analysisBar.Show()
			w.analysisBar.Start()
			return
		}
		w.analyzeButton.Enable()
		w.analysisBar.Stop()
		w.analysisBar.Hide()
	})
}

// SetSong shows the identified song.
func (w *MainWindow) SetSong(song domain.SongIdentity) {
	fyneapp.Do(func() {
		w.songLabel.SetText(SongBadge(song))
	})
}

// SetTrivia shows the trivia paragraphs.
func (w *MainWindow) SetTrivia(paragraphs []string) {
	fyneapp.Do(func() {
		fillLabels(w.triviaBox, paragraphs, fyneapp.TextWrapWord)
	})
}

// SetLyrics shows the lyrics, one label per line.
func (w *MainWindow) SetLyrics(lines []string) {
	fyneapp.Do(func() {
		fillLabels(w.lyricsBox, lines, fyneapp.TextWrapOff)
	})
}

func fillLabels(box *fyneapp.Container, texts []string, wrap fyneapp.TextWrap) {
	objects := make([]fyneapp.CanvasObject, 0, len(texts))
	for _, text := range texts {
		l := widget.NewLabel(text)
		l.Wrapping = wrap
		objects = append(objects, l)
	}
	box.Objects = objects
	box.Refresh()
}

// ShowAnalysisError shows the message of a failed analysis.
func (w *MainWindow) ShowAnalysisError(message string) {
	fyneapp.Do(func() {
		w.analysisError.SetText(message)
		w.analysisError.Show()
	})
}

// ClearAnalysis empties the analysis panes.
func (w *MainWindow) ClearAnalysis() {
	fyneapp.Do(func() {
		w.songLabel.SetText("")
		w.analysisError.SetText("")
		w.analysisError.Hide()
		fillLabels(w.triviaBox, nil, fyneapp.TextWrapWord)
		fillLabels(w.lyricsBox, nil, fyneapp.TextWrapOff)
	})
}

// ShowError displays an error dialog.
func (w *MainWindow) ShowError(title, message string) {
	fyneapp.Do(func() {
		showErrorDialog(w.window, title, message)
	})
}

var _ ports.UI = (*MainWindow)(nil)
