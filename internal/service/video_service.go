package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

// UnknownVideoTitle is shown when metadata cannot be fetched.
const UnknownVideoTitle = "Unknown Video Title"

// VideoService resolves user input to the current video and runs searches.
// Responses of requests that were superseded by a newer one are discarded.
type VideoService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	catalog ports.VideoCatalog
	bus     ports.EventBus

	// Sequence numbers of the latest load and search
	loadSeq   atomic.Uint64
	searchSeq atomic.Uint64

	// publishMu orders load state changes with their events, so the last
	// event a subscriber sees always describes the current video.
	// Handlers must not call Load synchronously.
	publishMu sync.Mutex

	// State
	mu       sync.RWMutex
	current  domain.VideoReference
	metadata domain.VideoMetadata
	loaded   bool
}

// NewVideoService creates a new video service.
func NewVideoService(logger *slog.Logger, catalog ports.VideoCatalog, bus ports.EventBus) *VideoService {
	logger.Debug("video service initialized")
	return &VideoService{
		logger:  logger,
		catalog: catalog,
		bus:     bus,
	}
}

// Load makes the video behind raw current and fetches its metadata.
//
// The reference is published as soon as it parses so playback can start
// while metadata is in flight. When the metadata fetch fails, the fallback
// title is published and the error returned. domain.ErrSuperseded is returned
// when another Load started meanwhile.
func (s *VideoService) Load(ctx context.Context, raw string) (domain.VideoMetadata, error) {
	ref, err := domain.ParseVideoReference(raw)
	if err != nil {
		return domain.VideoMetadata{}, err
	}

	s.publishMu.Lock()
	s.mu.Lock()
	seq := s.loadSeq.Add(1)
	s.current = ref
	s.metadata = domain.VideoMetadata{ID: ref.ID}
	s.loaded = false
	s.mu.Unlock()

	s.logger.Info("video selected", slog.String("video_id", ref.ID))
	s.bus.Publish(domain.NewVideoSelectedEvent(ref))
	s.publishMu.Unlock()

	meta, fetchErr := s.catalog.FetchVideoDetails(ctx, ref.ID)

	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	if s.loadSeq.Load() != seq {
		s.logger.Debug("discarding stale video details", slog.String("video_id", ref.ID))
		return domain.VideoMetadata{}, domain.ErrSuperseded
	}

	if fetchErr != nil {
		s.logger.Warn("failed to fetch video details",
			slog.String("video_id", ref.ID),
			slog.Any("error", fetchErr))

		fallback := domain.VideoMetadata{ID: ref.ID, Title: UnknownVideoTitle}
		s.mu.Lock()
		s.metadata = fallback
		s.mu.Unlock()

		s.bus.Publish(domain.NewVideoLoadFailedEvent(ref, UnknownVideoTitle, fetchErr))
		return fallback, fetchErr
	}

	s.mu.Lock()
	s.metadata = meta
	s.loaded = true
	s.mu.Unlock()

	s.bus.Publish(domain.NewVideoLoadedEvent(ref, meta))
	return meta, nil
}

// Select loads a search result through its canonical watch URL.
func (s *VideoService) Select(ctx context.Context, entry domain.SearchResultEntry) (domain.VideoMetadata, error) {
	return s.Load(ctx, domain.WatchURL(entry.ID))
}

// Search runs a search and publishes the results.
// A blank query yields no results. Results of a superseded search are
// discarded with domain.ErrSuperseded; failures degrade to no results.
func (s *VideoService) Search(ctx context.Context, query string) ([]domain.SearchResultEntry, error) {
	seq := s.searchSeq.Add(1)

	results, err := s.catalog.SearchVideos(ctx, query)
	if s.searchSeq.Load() != seq {
		return nil, domain.ErrSuperseded
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("search failed", slog.String("query", query), slog.Any("error", err))
		}
		s.bus.Publish(domain.NewSearchFailedEvent(query, err))
		return nil, err
	}

	s.bus.Publish(domain.NewSearchResultsEvent(query, results))
	return results, nil
}

// CancelSearch invalidates any search in flight.
func (s *VideoService) CancelSearch() {
	s.searchSeq.Add(1)
}

// Thumbnail downloads the thumbnail of the given metadata.
func (s *VideoService) Thumbnail(ctx context.Context, meta domain.VideoMetadata) ([]byte, error) {
	if meta.ThumbnailURL == "" {
		return nil, domain.ErrNotFound
	}
	return s.catalog.FetchThumbnail(ctx, meta.ThumbnailURL)
}

// Current returns the current reference and its metadata.
// The last result reports whether metadata was fetched successfully.
func (s *VideoService) Current() (domain.VideoReference, domain.VideoMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.metadata, s.loaded
}

// CurrentTitle returns the title of the current video, or "" until its
// metadata has been fetched.
func (s *VideoService) CurrentTitle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return ""
	}
	return s.metadata.Title
}
