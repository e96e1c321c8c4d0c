// Package fyne provides Fyne UI adapter implementations.
// This package implements the UI layer using the Fyne toolkit.
package fyne

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/songscope/internal/debounce"
	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/ports"
	"github.com/tejashwikalptaru/songscope/internal/service"
)

// DefaultSearchDebounce is the quiet period before a search is sent.
const DefaultSearchDebounce = 500 * time.Millisecond

// Presenter implements the Presenter pattern (MVP architecture).
// It coordinates between services and the UI, handling all event-driven updates.
//
// Network work never runs on the caller's goroutine: every command that
// reaches a backend is handed to a worker goroutine owned by the presenter
// and stopped by Shutdown.
//
// Thread-safety: All operations are thread-safe via sync.Mutex.
type Presenter struct {
	// Dependencies
	logger *slog.Logger

	// Services (injected)
	videoService      *service.VideoService
	playbackService   *service.PlaybackService
	analysisService   *service.AnalysisService
	preferenceService *service.PreferenceService

	eventBus ports.FilteringEventBus
	view     ports.UI

	search *debounce.Debouncer[string]

	// Workers
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Presentation state
	mu           sync.Mutex
	results      map[string]domain.SearchResultEntry
	cancelSearch context.CancelFunc
	runID        string
	subs         []domain.SubscriptionID
	closed       bool

	shutdownOnce sync.Once
}

// NewPresenter creates a new presenter and syncs the view with the services.
func NewPresenter(
	logger *slog.Logger,
	videoService *service.VideoService,
	playbackService *service.PlaybackService,
	analysisService *service.AnalysisService,
	preferenceService *service.PreferenceService,
	eventBus ports.FilteringEventBus,
	view ports.UI,
	searchDebounce time.Duration,
) *Presenter {
	if searchDebounce <= 0 {
		searchDebounce = DefaultSearchDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Presenter{
		logger:            logger,
		videoService:      videoService,
		playbackService:   playbackService,
		analysisService:   analysisService,
		preferenceService: preferenceService,
		eventBus:          eventBus,
		view:              view,
		ctx:               ctx,
		cancel:            cancel,
		results:           make(map[string]domain.SearchResultEntry),
	}
	p.search = debounce.New(searchDebounce, p.runSearch)

	p.subscribeToEvents()
	p.syncInitialState()

	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		// Video events
		domain.EventVideoSelected:   p.onVideoSelected,
		domain.EventVideoLoaded:     p.onVideoLoaded,
		domain.EventVideoLoadFailed: p.onVideoLoadFailed,
		domain.EventSearchResults:   p.onSearchResults,
		domain.EventSearchFailed:    p.onSearchFailed,

		// Playback events
		domain.EventPlayerReady:      p.onPlayerReady,
		domain.EventPlaybackStarted:  p.onPlaybackStarted,
		domain.EventPlaybackPaused:   p.onPlaybackHalted,
		domain.EventPlaybackStopped:  p.onPlaybackHalted,
		domain.EventPlaybackEnded:    p.onPlaybackHalted,
		domain.EventPlaybackProgress: p.onPlaybackProgress,
		domain.EventPlaybackError:    p.onPlaybackError,

		// Volume events
		domain.EventVolumeChanged: p.onVolumeChanged,
		domain.EventMuteToggled:   p.onMuteToggled,
		domain.EventLoopToggled:   p.onLoopToggled,

		// Analysis events
		domain.EventAnalysisStarted:   p.onAnalysisStarted,
		domain.EventAnalysisCompleted: p.onAnalysisCompleted,
		domain.EventAnalysisReset:     p.onAnalysisReset,
	}

	// Progress and failures only count for the run the panes show
	perRun := map[domain.EventType]domain.EventHandler{
		domain.EventAnalysisStage:  p.onAnalysisStage,
		domain.EventAnalysisFailed: p.onAnalysisFailed,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for eventType, handler := range subscriptions {
		p.subs = append(p.subs, p.eventBus.Subscribe(eventType, handler))
	}
	for eventType, handler := range perRun {
		p.subs = append(p.subs, p.eventBus.SubscribeFiltered(eventType, p.isCurrentRun, handler))
	}
}

// isCurrentRun accepts run-scoped analysis events of the latest started run.
func (p *Presenter) isCurrentRun(event domain.Event) bool {
	var runID string
	switch e := event.(type) {
	case domain.AnalysisStageEvent:
		runID = e.RunID
	case domain.AnalysisFailedEvent:
		runID = e.RunID
	default:
		return true
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return runID == p.runID
}

// syncInitialState synchronizes the UI with the current application state.
func (p *Presenter) syncInitialState() {
	state := p.playbackService.State()

	p.view.SetVolume(state.Volume)
	p.view.SetLoopState(state.IsLooping)
	p.view.SetMuteState(state.IsMuted)
	p.view.SetPlayState(state.IsPlaying)
	p.view.SetControlsEnabled(p.playbackService.IsReady())
	p.view.SetProgress(state.CurrentTime, state.Duration)

	if url := p.preferenceService.GetLastVideoURL(); url != "" {
		p.view.SetURL(url)
	}
}

// goAsync runs fn on a worker goroutine that Shutdown waits for.
func (p *Presenter) goAsync(fn func(ctx context.Context)) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		fn(p.ctx)
	}()
}

// Event handlers

func (p *Presenter) onVideoSelected(event domain.Event) {
	e, ok := event.(domain.VideoSelectedEvent)
	if !ok {
		return
	}

	p.view.SetVideoInfo("Loading...", "")
	p.view.ClearThumbnail()
	p.view.SetControlsEnabled(false)
	p.view.SetPlayState(false)
	p.view.SetProgress(0, 0)

	err := p.playbackService.LoadVideo(e.Ref.ID)
	if err != nil && !errors.Is(err, domain.ErrSuperseded) {
		p.logger.Error("failed to load video into player",
			slog.String("video_id", e.Ref.ID),
			slog.Any("error", err))
	}
}

func (p *Presenter) onVideoLoaded(event domain.Event) {
	e, ok := event.(domain.VideoLoadedEvent)
	if !ok {
		return
	}

	p.view.SetVideoInfo(e.Metadata.Title, e.Metadata.Description)

	meta := e.Metadata
	p.goAsync(func(ctx context.Context) {
		data, err := p.videoService.Thumbnail(ctx, meta)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, context.Canceled) {
				p.logger.Warn("failed to fetch thumbnail", slog.Any("error", err))
			}
			return
		}
		if ref, _, _ := p.videoService.Current(); ref.ID != meta.ID {
			return
		}
		p.view.SetThumbnail(data)
	})
}

func (p *Presenter) onVideoLoadFailed(event domain.Event) {
	e, ok := event.(domain.VideoLoadFailedEvent)
	if !ok {
		return
	}

	p.view.SetVideoInfo(e.FallbackTitle, "")
	p.view.ClearThumbnail()
}

func (p *Presenter) onSearchResults(event domain.Event) {
	e, ok := event.(domain.SearchResultsEvent)
	if !ok {
		return
	}

	options := make([]string, 0, len(e.Results))
	results := make(map[string]domain.SearchResultEntry, len(e.Results))
	for _, entry := range e.Results {
		option := ResultOption(entry)
		if _, dup := results[option]; dup {
			continue
		}
		results[option] = entry
		options = append(options, option)
	}

	p.mu.Lock()
	p.results = results
	p.mu.Unlock()

	p.view.SetSearchResults(options)
}

func (p *Presenter) onSearchFailed(event domain.Event) {
	p.mu.Lock()
	p.results = make(map[string]domain.SearchResultEntry)
	p.mu.Unlock()

	p.view.SetSearchResults(nil)
}

func (p *Presenter) onPlayerReady(event domain.Event) {
	e, ok := event.(domain.PlayerReadyEvent)
	if !ok {
		return
	}

	p.view.SetControlsEnabled(true)
	p.view.SetProgress(0, e.Duration)
}

func (p *Presenter) onPlaybackStarted(domain.Event) {
	p.view.SetPlayState(true)
}

func (p *Presenter) onPlaybackHalted(domain.Event) {
	p.view.SetPlayState(false)
}

func (p *Presenter) onPlaybackProgress(event domain.Event) {
	e, ok := event.(domain.PlaybackProgressEvent)
	if !ok {
		return
	}

	p.view.SetProgress(e.Position, e.Duration)
}

func (p *Presenter) onPlaybackError(event domain.Event) {
	e, ok := event.(domain.PlaybackErrorEvent)
	if !ok {
		return
	}

	p.view.ShowError("Playback Error", "The video could not be played: "+e.Error.Error())
}

func (p *Presenter) onVolumeChanged(event domain.Event) {
	e, ok := event.(domain.VolumeChangedEvent)
	if !ok {
		return
	}

	p.view.SetVolume(e.Volume)
}

func (p *Presenter) onMuteToggled(event domain.Event) {
	e, ok := event.(domain.MuteToggledEvent)
	if !ok {
		return
	}

	p.view.SetMuteState(e.Muted)
}

func (p *Presenter) onLoopToggled(event domain.Event) {
	e, ok := event.(domain.LoopToggledEvent)
	if !ok {
		return
	}

	p.view.SetLoopState(e.Enabled)
}

func (p *Presenter) onAnalysisStarted(event domain.Event) {
	if e, ok := event.(domain.AnalysisStartedEvent); ok {
		p.mu.Lock()
		p.runID = e.RunID
		p.mu.Unlock()
	}

	p.view.ClearAnalysis()
	p.view.SetAnalysisLoading(true, StageLabel(""))
}

func (p *Presenter) onAnalysisStage(event domain.Event) {
	e, ok := event.(domain.AnalysisStageEvent)
	if !ok {
		return
	}

	p.view.SetAnalysisLoading(true, StageLabel(e.Stage))
}

func (p *Presenter) onAnalysisCompleted(event domain.Event) {
	e, ok := event.(domain.AnalysisCompletedEvent)
	if !ok {
		return
	}

	p.view.SetAnalysisLoading(false, "")
	p.view.SetSong(e.Result.Song)
	p.view.SetTrivia(SplitParagraphs(e.Result.Trivia))
	p.view.SetLyrics(SplitLines(e.Result.Lyrics))
}

func (p *Presenter) onAnalysisFailed(event domain.Event) {
	e, ok := event.(domain.AnalysisFailedEvent)
	if !ok {
		return
	}

	p.view.SetAnalysisLoading(false, "")
	p.view.ShowAnalysisError(e.Message)
}

func (p *Presenter) onAnalysisReset(domain.Event) {
	p.mu.Lock()
	p.runID = ""
	p.mu.Unlock()

	p.view.SetAnalysisLoading(false, "")
	p.view.ClearAnalysis()
}

// UI Command handlers (called by UI)

// OnLoadRequested loads the video behind a pasted URL.
func (p *Presenter) OnLoadRequested(raw string) {
	if _, err := domain.ParseVideoReference(raw); err != nil {
		p.view.ShowError("Invalid URL", "Please enter a valid YouTube video URL.")
		return
	}

	p.analysisService.Reset()
	p.goAsync(func(ctx context.Context) {
		_, err := p.videoService.Load(ctx, raw)
		p.logLoadError(err)
	})
}

// OnSearchChanged handles edits of the search box. Picking a dropdown
// option sets the box to that option's text, which selects the result.
func (p *Presenter) OnSearchChanged(text string) {
	p.mu.Lock()
	entry, picked := p.results[text]
	p.mu.Unlock()

	if picked {
		p.OnResultSelected(entry)
		return
	}
	p.search.Trigger(text)
}

// OnResultSelected loads a search result.
func (p *Presenter) OnResultSelected(entry domain.SearchResultEntry) {
	p.search.Cancel()
	p.videoService.CancelSearch()

	p.mu.Lock()
	p.results = make(map[string]domain.SearchResultEntry)
	p.mu.Unlock()
	p.view.SetSearchResults(nil)
	p.view.SetURL(domain.WatchURL(entry.ID))

	p.analysisService.Reset()
	p.goAsync(func(ctx context.Context) {
		_, err := p.videoService.Select(ctx, entry)
		p.logLoadError(err)
	})
}

func (p *Presenter) logLoadError(err error) {
	switch {
	case err == nil, errors.Is(err, domain.ErrSuperseded), errors.Is(err, context.Canceled):
	default:
		p.logger.Warn("video load failed", slog.Any("error", err))
	}
}

// runSearch is the debounced search callback.
func (p *Presenter) runSearch(query string) {
	p.goAsync(func(ctx context.Context) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		p.mu.Lock()
		if p.cancelSearch != nil {
			p.cancelSearch()
		}
		p.cancelSearch = cancel
		p.mu.Unlock()

		_, err := p.videoService.Search(ctx, query)
		if err != nil && !errors.Is(err, domain.ErrSuperseded) && !errors.Is(err, context.Canceled) {
			p.logger.Debug("search failed", slog.String("query", query), slog.Any("error", err))
		}
	})
}

// OnAnalyzeClicked starts an analysis of the current video.
func (p *Presenter) OnAnalyzeClicked() {
	title := p.videoService.CurrentTitle()
	p.goAsync(func(ctx context.Context) {
		_, err := p.analysisService.Analyze(ctx, title)
		if err != nil && !errors.Is(err, domain.ErrSuperseded) {
			p.logger.Debug("analysis ended with error", slog.Any("error", err))
		}
	})
}

// OnPlayPauseClicked handles the play/pause button click.
func (p *Presenter) OnPlayPauseClicked() {
	p.control("Playback Error", p.playbackService.TogglePlayPause())
}

// OnStopClicked handles the stop button click.
func (p *Presenter) OnStopClicked() {
	p.control("Playback Error", p.playbackService.Stop())
}

// OnSkip moves the position by delta; negative values skip backward.
func (p *Presenter) OnSkip(delta time.Duration) {
	var err error
	if delta < 0 {
		err = p.playbackService.SkipBackward(-delta)
	} else {
		err = p.playbackService.SkipForward(delta)
	}
	p.control("Seek Error", err)
}

// OnSeekRequested handles seek requests from the progress slider.
func (p *Presenter) OnSeekRequested(seconds float64) {
	p.control("Seek Error", p.playbackService.Seek(time.Duration(seconds*float64(time.Second))))
}

// OnVolumeChanged handles volume slider changes (0 to 100).
func (p *Presenter) OnVolumeChanged(volume float64) {
	p.control("Volume Error", p.playbackService.SetVolume(volume/100.0))
}

// OnMuteClicked handles the mute button click.
func (p *Presenter) OnMuteClicked() {
	p.control("Volume Error", p.playbackService.ToggleMute())
}

// OnLoopClicked handles the loop button click.
func (p *Presenter) OnLoopClicked() {
	p.control("Playback Error", p.playbackService.ToggleLoop())
}

// OnCopyURLRequested returns the watch URL of the current video, "" if none.
func (p *Presenter) OnCopyURLRequested() string {
	ref, _, _ := p.videoService.Current()
	if ref.IsZero() {
		return ""
	}
	return domain.WatchURL(ref.ID)
}

// OnResetPreferences restores the saved volume and loop mode to defaults.
func (p *Presenter) OnResetPreferences() {
	if err := p.preferenceService.ResetToDefaults(); err != nil {
		p.logger.Error("failed to reset preferences", slog.Any("error", err))
		p.view.ShowError("Preferences", "Could not reset preferences: "+err.Error())
		return
	}
	prefs := p.preferenceService.Snapshot()
	if err := p.playbackService.SetDefaults(prefs.Volume, prefs.LoopEnabled); err != nil {
		p.logger.Warn("failed to apply default preferences", slog.Any("error", err))
	}
	p.view.SetURL("")
}

// control reports a failed control action. A control used before a video
// is loaded is not an error worth showing.
func (p *Presenter) control(title string, err error) {
	if err == nil || errors.Is(err, domain.ErrNoVideoLoaded) {
		return
	}
	p.logger.Error("control action failed", slog.String("action", title), slog.Any("error", err))
	p.view.ShowError(title, err.Error())
}

// Shutdown stops workers and event handling.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.search.Stop()
		p.cancel()

		p.mu.Lock()
		p.closed = true
		subs := p.subs
		p.subs = nil
		p.mu.Unlock()
		for _, id := range subs {
			p.eventBus.Unsubscribe(id)
		}

		p.wg.Wait()
	})
}
