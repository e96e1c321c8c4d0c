package ports

import (
	"context"

	"github.com/tejashwikalptaru/songscope/internal/domain"
)

// VideoCatalog is the video metadata and search backend.
//
// Thread-safety: Implementations must be thread-safe.
type VideoCatalog interface {
	// FetchVideoDetails returns metadata for a single video.
	// Returns domain.ErrNotFound when the backend reports no such video and
	// a *domain.ServiceError for non-success responses.
	FetchVideoDetails(ctx context.Context, videoID string) (domain.VideoMetadata, error)

	// SearchVideos returns up to ten music videos matching query.
	// A blank query returns an empty slice without contacting the backend.
	SearchVideos(ctx context.Context, query string) ([]domain.SearchResultEntry, error)

	// FetchThumbnail downloads a thumbnail image.
	FetchThumbnail(ctx context.Context, url string) ([]byte, error)
}
