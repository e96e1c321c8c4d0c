package fyne

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/songscope/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/songscope/internal/adapter/player/mock"
	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/logger"
	"github.com/tejashwikalptaru/songscope/internal/ports"
	"github.com/tejashwikalptaru/songscope/internal/service"
	"github.com/tejashwikalptaru/songscope/internal/testutil"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond

	videoA = "dQw4w9WgXcQ"
	videoB = "9bZkp7q19f0"
)

// fakeView records what the presenter shows.
type fakeView struct {
	mu sync.Mutex

	url         string
	title       string
	description string
	thumbnail   []byte
	options     []string
	enabled     bool
	playing     bool
	muted       bool
	looping     bool
	volume      float64
	position    time.Duration
	duration    time.Duration
	loading     bool
	status      string
	song        domain.SongIdentity
	trivia      []string
	lyrics      []string
	analysisErr string
	errors      []string
}

func (v *fakeView) set(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn()
}

func (v *fakeView) SetURL(url string) { v.set(func() { v.url = url }) }
func (v *fakeView) SetVideoInfo(title, description string) {
	v.set(func() { v.title, v.description = title, description })
}
func (v *fakeView) SetThumbnail(data []byte)          { v.set(func() { v.thumbnail = data }) }
func (v *fakeView) ClearThumbnail()                   { v.set(func() { v.thumbnail = nil }) }
func (v *fakeView) SetSearchResults(options []string) { v.set(func() { v.options = options }) }
func (v *fakeView) SetControlsEnabled(enabled bool)   { v.set(func() { v.enabled = enabled }) }
func (v *fakeView) SetPlayState(playing bool)         { v.set(func() { v.playing = playing }) }
func (v *fakeView) SetMuteState(muted bool)           { v.set(func() { v.muted = muted }) }
func (v *fakeView) SetLoopState(enabled bool)         { v.set(func() { v.looping = enabled }) }
func (v *fakeView) SetVolume(volume float64)          { v.set(func() { v.volume = volume }) }
func (v *fakeView) SetProgress(position, duration time.Duration) {
	v.set(func() { v.position, v.duration = position, duration })
}
func (v *fakeView) SetAnalysisLoading(loading bool, status string) {
	v.set(func() { v.loading, v.status = loading, status })
}
func (v *fakeView) SetSong(song domain.SongIdentity) { v.set(func() { v.song = song }) }
func (v *fakeView) SetTrivia(p []string)             { v.set(func() { v.trivia = p }) }
func (v *fakeView) SetLyrics(l []string)             { v.set(func() { v.lyrics = l }) }
func (v *fakeView) ShowAnalysisError(msg string)     { v.set(func() { v.analysisErr = msg }) }
func (v *fakeView) ClearAnalysis() {
	v.set(func() {
		v.song = domain.SongIdentity{}
		v.trivia, v.lyrics, v.analysisErr = nil, nil, ""
	})
}
func (v *fakeView) ShowError(title, message string) {
	v.set(func() { v.errors = append(v.errors, title+": "+message) })
}

var _ ports.UI = (*fakeView)(nil)

func (v *fakeView) snapshot() fakeView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fakeView{
		url: v.url, title: v.title, description: v.description, thumbnail: v.thumbnail,
		options: v.options, enabled: v.enabled, playing: v.playing, muted: v.muted,
		looping: v.looping, volume: v.volume, position: v.position, duration: v.duration,
		loading: v.loading, status: v.status, song: v.song, trivia: v.trivia,
		lyrics: v.lyrics, analysisErr: v.analysisErr, errors: v.errors,
	}
}

type fakeCatalog struct {
	mu      sync.Mutex
	details map[string]domain.VideoMetadata
	results []domain.SearchResultEntry
	queries []string
}

func (c *fakeCatalog) FetchVideoDetails(_ context.Context, id string) (domain.VideoMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	meta, ok := c.details[id]
	if !ok {
		return domain.VideoMetadata{}, domain.ErrNotFound
	}
	return meta, nil
}

func (c *fakeCatalog) SearchVideos(_ context.Context, query string) ([]domain.SearchResultEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, query)
	return c.results, nil
}

func (c *fakeCatalog) FetchThumbnail(_ context.Context, url string) ([]byte, error) {
	return []byte("img:" + url), nil
}

func (c *fakeCatalog) searched() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.queries...)
}

type fakeIdentifier struct{ err error }

func (f fakeIdentifier) IdentifySong(_ context.Context, title string) (domain.SongIdentity, error) {
	if f.err != nil {
		return domain.SongIdentity{}, f.err
	}
	return domain.SongIdentity{SongName: "Never Gonna Give You Up", ArtistName: "Rick Astley"}, nil
}

func (f fakeIdentifier) FetchTrivia(context.Context, domain.SongIdentity) (string, error) {
	return "Released in 1987.\n\nA number one hit.", nil
}

type fakeLyrics struct{}

func (fakeLyrics) FetchLyrics(context.Context, domain.SongIdentity) (string, error) {
	return "We're no strangers to love\nYou know the rules", nil
}

type memPrefs struct {
	mu      sync.Mutex
	volume  float64
	loop    bool
	lastURL string
}

func (m *memPrefs) SaveVolume(v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = v
	return nil
}

func (m *memPrefs) LoadVolume() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume, nil
}

func (m *memPrefs) SaveLoopMode(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loop = enabled
	return nil
}

func (m *memPrefs) LoadLoopMode() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loop, nil
}

func (m *memPrefs) SaveLastVideoURL(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastURL = url
	return nil
}

func (m *memPrefs) LoadLastVideoURL() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastURL, nil
}

func (m *memPrefs) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume, m.loop, m.lastURL = 1.0, false, ""
	return nil
}

type presenterFixture struct {
	presenter *Presenter
	view      *fakeView
	bus       *eventbus.SyncEventBus
	catalog   *fakeCatalog
	factory   *mock.Factory
	playback  *service.PlaybackService
	prefs     *service.PreferenceService
}

func newPresenterFixture(t *testing.T, repo *memPrefs, identifier fakeIdentifier) *presenterFixture {
	t.Helper()

	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	catalog := &fakeCatalog{
		details: map[string]domain.VideoMetadata{
			videoA: {ID: videoA, Title: "Rick Astley - Never Gonna Give You Up", Description: "Official video", ThumbnailURL: "thumb-a"},
			videoB: {ID: videoB, Title: "PSY - GANGNAM STYLE", ThumbnailURL: "thumb-b"},
		},
		results: []domain.SearchResultEntry{
			{ID: videoA, Title: "Never Gonna Give You Up", ChannelTitle: "Rick Astley"},
			{ID: videoB, Title: "GANGNAM STYLE", ChannelTitle: "officialpsy"},
		},
	}
	factory := mock.NewFactory(log)

	prefs := service.NewPreferenceService(log, repo, bus)
	playback := service.NewPlaybackService(log, factory, bus, time.Hour)
	require.NoError(t, playback.SetDefaults(prefs.GetVolume(), prefs.GetLoopMode()))
	videos := service.NewVideoService(log, catalog, bus)
	lyrics := fakeLyrics{}
	analysis := service.NewAnalysisService(log, identifier, lyrics, bus, nil)

	view := &fakeView{}
	p := NewPresenter(log, videos, playback, analysis, prefs, bus, view, 10*time.Millisecond)

	t.Cleanup(func() {
		p.Shutdown()
		assert.NoError(t, playback.Shutdown())
		assert.NoError(t, prefs.Shutdown())
		for _, w := range factory.Widgets() {
			w.WaitPending()
		}
		assert.NoError(t, bus.Close())
	})

	return &presenterFixture{
		presenter: p,
		view:      view,
		bus:       bus,
		catalog:   catalog,
		factory:   factory,
		playback:  playback,
		prefs:     prefs,
	}
}

func TestPresenter_SyncsInitialState(t *testing.T) {
	repo := &memPrefs{volume: 0.4, loop: true, lastURL: domain.WatchURL(videoB)}
	f := newPresenterFixture(t, repo, fakeIdentifier{})

	v := f.view.snapshot()
	assert.InDelta(t, 0.4, v.volume, 0.001)
	assert.True(t, v.looping)
	assert.False(t, v.enabled)
	assert.Equal(t, domain.WatchURL(videoB), v.url)
}

func TestPresenter_LoadShowsMetadataAndCreatesPlayer(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	f := newPresenterFixture(t, &memPrefs{volume: 1}, fakeIdentifier{})
	f.presenter.OnLoadRequested("https://youtu.be/" + videoA)

	require.Eventually(t, func() bool {
		return string(f.view.snapshot().thumbnail) == "img:thumb-a"
	}, waitFor, tick)

	v := f.view.snapshot()
	assert.Equal(t, "Rick Astley - Never Gonna Give You Up", v.title)
	assert.Equal(t, "Official video", v.description)

	w := f.factory.Last()
	require.NotNil(t, w)
	assert.Equal(t, videoA, w.VideoID())
	assert.Equal(t, "https://youtu.be/"+videoA, f.prefs.GetLastVideoURL())
}

func TestPresenter_InvalidURLShowsError(t *testing.T) {
	f := newPresenterFixture(t, &memPrefs{volume: 1}, fakeIdentifier{})
	f.presenter.OnLoadRequested("https://example.com/watch")

	v := f.view.snapshot()
	require.Len(t, v.errors, 1)
	assert.Contains(t, v.errors[0], "Invalid URL")
	assert.Nil(t, f.factory.Last())
}

func TestPresenter_UnknownVideoShowsFallbackTitle(t *testing.T) {
	f := newPresenterFixture(t, &memPrefs{volume: 1}, fakeIdentifier{})
	f.presenter.OnLoadRequested(domain.WatchURL("aaaaaaaaaaa"))

	require.Eventually(t, func() bool {
		return f.view.snapshot().title == service.UnknownVideoTitle
	}, waitFor, tick)
	assert.Nil(t, f.view.snapshot().thumbnail)
}

func TestPresenter_SearchThenPickResult(t *testing.T) {
	f := newPresenterFixture(t, &memPrefs{volume: 1}, fakeIdentifier{})

	f.presenter.OnSearchChanged("g")
	f.presenter.OnSearchChanged("gan")
	f.presenter.OnSearchChanged("gangnam")

	require.Eventually(t, func() bool {
		return len(f.view.snapshot().options) == 2
	}, waitFor, tick)
	assert.Equal(t, []string{"gangnam"}, f.catalog.searched())

	option := f.view.snapshot().options[1]
	assert.Equal(t, "GANGNAM STYLE (officialpsy)", option)

	// Choosing an option writes its text into the search box
	f.presenter.OnSearchChanged(option)

	require.Eventually(t, func() bool {
		return f.view.snapshot().title == "PSY - GANGNAM STYLE"
	}, waitFor, tick)

	v := f.view.snapshot()
	assert.Empty(t, v.options)
	assert.Equal(t, domain.WatchURL(videoB), v.url)
	require.NotNil(t, f.factory.Last())
	assert.Equal(t, videoB, f.factory.Last().VideoID())
	assert.Len(t, f.catalog.searched(), 1)
}

func TestPresenter_PlayerReadyEnablesControls(t *testing.T) {
	f := newPresenterFixture(t, &memPrefs{volume: 1}, fakeIdentifier{})
	f.presenter.OnLoadRequested(domain.WatchURL(videoA))

	// Metadata arrives after the player was created
	require.Eventually(t, func() bool {
		return f.view.snapshot().title == "Rick Astley - Never Gonna Give You Up"
	}, waitFor, tick)
	f.factory.Last().SimulateReady()

	v := f.view.snapshot()
	assert.True(t, v.enabled)
	assert.Equal(t, mock.DefaultDuration, v.duration)

	f.presenter.OnPlayPauseClicked()
	assert.True(t, f.view.snapshot().playing)

	f.presenter.OnPlayPauseClicked()
	assert.False(t, f.view.snapshot().playing)

	f.presenter.OnVolumeChanged(25)
	assert.InDelta(t, 0.25, f.view.snapshot().volume, 0.001)
	assert.Equal(t, 25, f.factory.Last().Volume())

	f.presenter.OnMuteClicked()
	assert.True(t, f.view.snapshot().muted)

	f.presenter.OnLoopClicked()
	assert.True(t, f.view.snapshot().looping)

	f.presenter.OnSeekRequested(30)
	assert.Equal(t, 30*time.Second, f.view.snapshot().position)

	f.presenter.OnSkip(-10 * time.Second)
	assert.Equal(t, 20*time.Second, f.view.snapshot().position)

	f.presenter.OnStopClicked()
	v = f.view.snapshot()
	assert.False(t, v.playing)
	assert.Zero(t, v.position)
	assert.Empty(t, v.errors)
}

func TestPresenter_ControlsWithoutVideoAreQuiet(t *testing.T) {
	f := newPresenterFixture(t, &memPrefs{volume: 1}, fakeIdentifier{})

	f.presenter.OnPlayPauseClicked()
	f.presenter.OnStopClicked()
	f.presenter.OnSkip(5 * time.Second)

	assert.Empty(t, f.view.snapshot().errors)
}

func TestPresenter_AnalyzeFillsPanes(t *testing.T) {
	f := newPresenterFixture(t, &memPrefs{volume: 1}, fakeIdentifier{})
	f.presenter.OnLoadRequested(domain.WatchURL(videoA))
	require.Eventually(t, func() bool {
		return f.view.snapshot().title == "Rick Astley - Never Gonna Give You Up"
	}, waitFor, tick)

	f.presenter.OnAnalyzeClicked()

	require.Eventually(t, func() bool {
		return len(f.view.snapshot().lyrics) > 0
	}, waitFor, tick)

	v := f.view.snapshot()
	assert.False(t, v.loading)
	assert.Equal(t, "Rick Astley", v.song.ArtistName)
	assert.Equal(t, []string{"Released in 1987.", "A number one hit."}, v.trivia)
	assert.Equal(t, []string{"We're no strangers to love", "You know the rules"}, v.lyrics)
	assert.Empty(t, v.analysisErr)
}

func TestPresenter_AnalyzeWithoutTitleShowsError(t *testing.T) {
	f := newPresenterFixture(t, &memPrefs{volume: 1}, fakeIdentifier{})
	f.presenter.OnAnalyzeClicked()

	require.Eventually(t, func() bool {
		return f.view.snapshot().analysisErr != ""
	}, waitFor, tick)
	assert.Equal(t, service.MsgNoTitle, f.view.snapshot().analysisErr)
	assert.False(t, f.view.snapshot().loading)
}

func TestPresenter_AnalysisFailureShowsMessage(t *testing.T) {
	f := newPresenterFixture(t, &memPrefs{volume: 1}, fakeIdentifier{err: errors.New("boom")})
	f.presenter.OnLoadRequested(domain.WatchURL(videoA))
	require.Eventually(t, func() bool {
		return f.view.snapshot().title == "Rick Astley - Never Gonna Give You Up"
	}, waitFor, tick)

	f.presenter.OnAnalyzeClicked()

	require.Eventually(t, func() bool {
		return f.view.snapshot().analysisErr != ""
	}, waitFor, tick)
	v := f.view.snapshot()
	assert.Equal(t, service.MsgIdentifyFailed, v.analysisErr)
	assert.Empty(t, v.lyrics)
}

func TestPresenter_IgnoresEventsOfOtherRuns(t *testing.T) {
	f := newPresenterFixture(t, &memPrefs{volume: 1}, fakeIdentifier{})

	f.bus.Publish(domain.NewAnalysisStartedEvent("run-2", "Some Title"))
	f.bus.Publish(domain.NewAnalysisStageEvent("run-1", domain.StageLyrics))
	f.bus.Publish(domain.NewAnalysisFailedEvent("run-1", domain.StageIdentify, "stale", errors.New("old")))

	v := f.view.snapshot()
	assert.True(t, v.loading)
	assert.Equal(t, StageLabel(""), v.status)
	assert.Empty(t, v.analysisErr)

	f.bus.Publish(domain.NewAnalysisStageEvent("run-2", domain.StageTrivia))
	assert.Equal(t, StageLabel(domain.StageTrivia), f.view.snapshot().status)

	f.bus.Publish(domain.NewAnalysisFailedEvent("run-2", domain.StageTrivia, service.MsgTriviaFailed, errors.New("down")))
	v = f.view.snapshot()
	assert.False(t, v.loading)
	assert.Equal(t, service.MsgTriviaFailed, v.analysisErr)

	// After a reset no run is current
	f.bus.Publish(domain.NewAnalysisResetEvent())
	f.bus.Publish(domain.NewAnalysisFailedEvent("run-2", domain.StageLyrics, "late", errors.New("late")))
	assert.Empty(t, f.view.snapshot().analysisErr)
}

func TestPresenter_LoadClearsPreviousAnalysis(t *testing.T) {
	f := newPresenterFixture(t, &memPrefs{volume: 1}, fakeIdentifier{})
	f.presenter.OnLoadRequested(domain.WatchURL(videoA))
	require.Eventually(t, func() bool {
		return f.view.snapshot().title != "" && f.view.snapshot().title != "Loading..."
	}, waitFor, tick)

	f.presenter.OnAnalyzeClicked()
	require.Eventually(t, func() bool { return len(f.view.snapshot().lyrics) > 0 }, waitFor, tick)

	f.presenter.OnLoadRequested(domain.WatchURL(videoB))
	assert.Empty(t, f.view.snapshot().lyrics)
	assert.Empty(t, f.view.snapshot().trivia)
}

func TestPresenter_ShutdownIsIdempotent(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	f := newPresenterFixture(t, &memPrefs{volume: 1}, fakeIdentifier{})
	f.presenter.OnSearchChanged("pending")

	f.presenter.Shutdown()
	f.presenter.Shutdown()

	// Commands after shutdown start no work
	f.presenter.OnLoadRequested(domain.WatchURL(videoA))
	time.Sleep(30 * time.Millisecond)
	assert.Nil(t, f.factory.Last())
	assert.Empty(t, f.catalog.searched())
}
