package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/logger"
)

// fakeCatalog serves canned metadata. A gate, when set, blocks the matching id.
type fakeCatalog struct {
	mu       sync.Mutex
	details  map[string]domain.VideoMetadata
	err      error
	results  []domain.SearchResultEntry
	gates    map[string]chan struct{}
	searches []string
	thumbs   []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		details: map[string]domain.VideoMetadata{},
		gates:   map[string]chan struct{}{},
	}
}

func (c *fakeCatalog) FetchVideoDetails(ctx context.Context, id string) (domain.VideoMetadata, error) {
	c.mu.Lock()
	gate := c.gates[id]
	c.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.VideoMetadata{}, ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return domain.VideoMetadata{}, c.err
	}
	meta, ok := c.details[id]
	if !ok {
		return domain.VideoMetadata{}, domain.ErrNotFound
	}
	return meta, nil
}

func (c *fakeCatalog) SearchVideos(_ context.Context, query string) ([]domain.SearchResultEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searches = append(c.searches, query)
	if c.err != nil {
		return nil, c.err
	}
	return c.results, nil
}

func (c *fakeCatalog) FetchThumbnail(_ context.Context, url string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thumbs = append(c.thumbs, url)
	return []byte("jpeg"), nil
}

const (
	idA = "dQw4w9WgXcQ"
	idB = "9bZkp7q19f0"
)

func TestVideoService_Load(t *testing.T) {
	bus, rec := newTestBus(t)
	catalog := newFakeCatalog()
	catalog.details[idA] = domain.VideoMetadata{ID: idA, Title: "Never Gonna Give You Up", Duration: 213 * time.Second}
	s := NewVideoService(logger.NewTestLogger(), catalog, bus)

	meta, err := s.Load(context.Background(), "https://youtu.be/"+idA)
	require.NoError(t, err)
	assert.Equal(t, "Never Gonna Give You Up", meta.Title)

	ref, cur, loaded := s.Current()
	assert.Equal(t, idA, ref.ID)
	assert.Equal(t, "https://youtu.be/"+idA, ref.Source)
	assert.Equal(t, meta, cur)
	assert.True(t, loaded)
	assert.Equal(t, "Never Gonna Give You Up", s.CurrentTitle())

	assert.Equal(t, 1, rec.count(domain.EventVideoSelected))
	loadedEvs := rec.ofType(domain.EventVideoLoaded)
	require.Len(t, loadedEvs, 1)
	assert.Equal(t, meta, loadedEvs[0].(domain.VideoLoadedEvent).Metadata)
}

func TestVideoService_LoadInvalidURL(t *testing.T) {
	bus, rec := newTestBus(t)
	s := NewVideoService(logger.NewTestLogger(), newFakeCatalog(), bus)

	_, err := s.Load(context.Background(), "https://example.com/not-a-video")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, rec.count(domain.EventVideoSelected))
}

func TestVideoService_LoadFailureFallsBack(t *testing.T) {
	bus, rec := newTestBus(t)
	catalog := newFakeCatalog()
	catalog.err = domain.NewServiceError("youtube", "videos", 403, "quota exceeded", nil)
	s := NewVideoService(logger.NewTestLogger(), catalog, bus)

	meta, err := s.Load(context.Background(), domain.WatchURL(idA))
	assert.True(t, domain.IsServiceError(err))
	assert.Equal(t, UnknownVideoTitle, meta.Title)
	assert.Equal(t, idA, meta.ID)

	_, _, loaded := s.Current()
	assert.False(t, loaded)
	assert.Empty(t, s.CurrentTitle())

	failed := rec.ofType(domain.EventVideoLoadFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, UnknownVideoTitle, failed[0].(domain.VideoLoadFailedEvent).FallbackTitle)
	assert.Equal(t, 1, rec.count(domain.EventVideoSelected))
}

func TestVideoService_StaleLoadIsDiscarded(t *testing.T) {
	bus, rec := newTestBus(t)
	catalog := newFakeCatalog()
	catalog.details[idA] = domain.VideoMetadata{ID: idA, Title: "A"}
	catalog.details[idB] = domain.VideoMetadata{ID: idB, Title: "B"}
	gate := make(chan struct{})
	catalog.gates[idA] = gate
	s := NewVideoService(logger.NewTestLogger(), catalog, bus)

	done := make(chan error, 1)
	go func() {
		_, err := s.Load(context.Background(), domain.WatchURL(idA))
		done <- err
	}()
	rec.waitFor(t, domain.EventVideoSelected, 1)

	meta, err := s.Load(context.Background(), domain.WatchURL(idB))
	require.NoError(t, err)
	assert.Equal(t, "B", meta.Title)

	close(gate)
	assert.ErrorIs(t, <-done, domain.ErrSuperseded)

	_, cur, _ := s.Current()
	assert.Equal(t, "B", cur.Title)
	assert.Equal(t, 1, rec.count(domain.EventVideoLoaded))
}

func TestVideoService_ConcurrentLoadsEndOnLatest(t *testing.T) {
	bus, rec := newTestBus(t)
	catalog := newFakeCatalog()
	ids := make([]string, 40)
	for i := range ids {
		ids[i] = fmt.Sprintf("vid%08d", i)
		catalog.details[ids[i]] = domain.VideoMetadata{ID: ids[i], Title: "Video " + ids[i]}
	}
	s := NewVideoService(logger.NewTestLogger(), catalog, bus)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Load(context.Background(), domain.WatchURL(id))
		}()
	}
	wg.Wait()

	ref, meta, loaded := s.Current()
	require.True(t, loaded)
	assert.Equal(t, ref.ID, meta.ID)

	selected := rec.ofType(domain.EventVideoSelected)
	require.Len(t, selected, len(ids))
	assert.Equal(t, ref.ID, selected[len(selected)-1].(domain.VideoSelectedEvent).Ref.ID)

	loadedEvs := rec.ofType(domain.EventVideoLoaded)
	require.NotEmpty(t, loadedEvs)
	assert.Equal(t, ref.ID, loadedEvs[len(loadedEvs)-1].(domain.VideoLoadedEvent).Ref.ID)
	assert.Equal(t, "Video "+ref.ID, s.CurrentTitle())
}

func TestVideoService_TitleMatchingFallbackIsAnalyzable(t *testing.T) {
	bus, _ := newTestBus(t)
	catalog := newFakeCatalog()
	catalog.details[idA] = domain.VideoMetadata{ID: idA, Title: UnknownVideoTitle}
	s := NewVideoService(logger.NewTestLogger(), catalog, bus)

	_, err := s.Load(context.Background(), domain.WatchURL(idA))
	require.NoError(t, err)
	assert.Equal(t, UnknownVideoTitle, s.CurrentTitle())
}

func TestVideoService_TitleEmptyWhileLoading(t *testing.T) {
	bus, rec := newTestBus(t)
	catalog := newFakeCatalog()
	catalog.details[idA] = domain.VideoMetadata{ID: idA, Title: "A"}
	gate := make(chan struct{})
	catalog.gates[idA] = gate
	s := NewVideoService(logger.NewTestLogger(), catalog, bus)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Load(context.Background(), domain.WatchURL(idA))
	}()
	rec.waitFor(t, domain.EventVideoSelected, 1)
	assert.Empty(t, s.CurrentTitle())

	close(gate)
	<-done
	assert.Equal(t, "A", s.CurrentTitle())
}

func TestVideoService_Select(t *testing.T) {
	bus, _ := newTestBus(t)
	catalog := newFakeCatalog()
	catalog.details[idB] = domain.VideoMetadata{ID: idB, Title: "Gangnam Style"}
	s := NewVideoService(logger.NewTestLogger(), catalog, bus)

	meta, err := s.Select(context.Background(), domain.SearchResultEntry{ID: idB, Title: "Gangnam Style"})
	require.NoError(t, err)
	assert.Equal(t, "Gangnam Style", meta.Title)

	ref, _, _ := s.Current()
	assert.Equal(t, domain.WatchURL(idB), ref.Source)
}

func TestVideoService_Search(t *testing.T) {
	bus, rec := newTestBus(t)
	catalog := newFakeCatalog()
	catalog.results = []domain.SearchResultEntry{{ID: idA, Title: "Rick Astley"}}
	s := NewVideoService(logger.NewTestLogger(), catalog, bus)

	results, err := s.Search(context.Background(), "rick")
	require.NoError(t, err)
	assert.Len(t, results, 1)

	evs := rec.ofType(domain.EventSearchResults)
	require.Len(t, evs, 1)
	assert.Equal(t, "rick", evs[0].(domain.SearchResultsEvent).Query)
}

func TestVideoService_SearchFailure(t *testing.T) {
	bus, rec := newTestBus(t)
	catalog := newFakeCatalog()
	catalog.err = domain.NewServiceError("youtube", "search", 500, "backend error", nil)
	s := NewVideoService(logger.NewTestLogger(), catalog, bus)

	results, err := s.Search(context.Background(), "rick")
	assert.Error(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 1, rec.count(domain.EventSearchFailed))
}

func TestVideoService_Thumbnail(t *testing.T) {
	bus, _ := newTestBus(t)
	catalog := newFakeCatalog()
	s := NewVideoService(logger.NewTestLogger(), catalog, bus)

	_, err := s.Thumbnail(context.Background(), domain.VideoMetadata{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	data, err := s.Thumbnail(context.Background(), domain.VideoMetadata{ThumbnailURL: "https://i.ytimg.com/x.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
}
