// Package youtube implements ports.VideoCatalog on the YouTube Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/platform/cache"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

const (
	// DefaultBaseURL is the public Data API endpoint.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	serviceName = "youtube"

	// musicCategoryID restricts search to the Music category.
	musicCategoryID = "10"
	maxResults      = "10"

	detailsTTL       = time.Hour
	thumbnailTTL     = time.Hour
	maxThumbnailSize = 4 << 20
)

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client wraps the two Data API calls the app relies on plus thumbnail downloads.
// Credentials are not validated upfront: an empty key reaches the backend
// and comes back as an auth error.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	details    *cache.Cache[domain.VideoMetadata]
	thumbnails *cache.Cache[[]byte]
}

// New creates a client with sane defaults.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger.With(slog.String("adapter", serviceName)),
		details:    cache.New[domain.VideoMetadata](64),
		thumbnails: cache.New[[]byte](32),
	}
}

type thumbnail struct {
	URL string `json:"url"`
}

type thumbnails struct {
	Default thumbnail `json:"default"`
	Medium  thumbnail `json:"medium"`
	High    thumbnail `json:"high"`
	Maxres  thumbnail `json:"maxres"`
}

// best prefers the largest rendition available.
func (t thumbnails) best() string {
	for _, u := range []string{t.Maxres.URL, t.High.URL, t.Medium.URL, t.Default.URL} {
		if u != "" {
			return u
		}
	}
	return ""
}

// smallest prefers the smallest rendition, for dropdown rows.
func (t thumbnails) smallest() string {
	for _, u := range []string{t.Default.URL, t.Medium.URL, t.High.URL, t.Maxres.URL} {
		if u != "" {
			return u
		}
	}
	return ""
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string     `json:"title"`
			Description string     `json:"description"`
			Thumbnails  thumbnails `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string     `json:"title"`
			ChannelTitle string     `json:"channelTitle"`
			Thumbnails   thumbnails `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FetchVideoDetails returns title, description, best thumbnail and duration.
func (c *Client) FetchVideoDetails(ctx context.Context, videoID string) (domain.VideoMetadata, error) {
	if strings.TrimSpace(videoID) == "" {
		return domain.VideoMetadata{}, domain.NewValidationError("videoID", videoID, "must not be empty")
	}
	if m, ok := c.details.Get(videoID); ok {
		return m, nil
	}

	q := url.Values{}
	q.Set("part", "snippet,contentDetails")
	q.Set("id", videoID)

	var decoded videosResponse
	if err := c.getJSON(ctx, "videos", q, &decoded); err != nil {
		return domain.VideoMetadata{}, err
	}
	if len(decoded.Items) == 0 {
		return domain.VideoMetadata{}, fmt.Errorf("video %s: %w", videoID, domain.ErrNotFound)
	}

	item := decoded.Items[0]
	meta := domain.VideoMetadata{
		ID:           videoID,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		ThumbnailURL: item.Snippet.Thumbnails.best(),
		Duration:     domain.ParseDuration(item.ContentDetails.Duration),
	}
	c.details.Set(videoID, meta, detailsTTL)
	return meta, nil
}

// SearchVideos returns up to ten music videos. A blank query returns no
// results without a request.
func (c *Client) SearchVideos(ctx context.Context, query string) ([]domain.SearchResultEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResultEntry{}, nil
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("maxResults", maxResults)
	q.Set("type", "video")
	q.Set("videoCategoryId", musicCategoryID)
	q.Set("q", query)

	var decoded searchResponse
	if err := c.getJSON(ctx, "search", q, &decoded); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResultEntry, 0, len(decoded.Items))
	for _, item := range decoded.Items {
		if item.ID.VideoID == "" {
			continue
		}
		// Search snippets come back HTML-escaped
		results = append(results, domain.SearchResultEntry{
			ID:           item.ID.VideoID,
			Title:        html.UnescapeString(item.Snippet.Title),
			ThumbnailURL: item.Snippet.Thumbnails.smallest(),
			ChannelTitle: html.UnescapeString(item.Snippet.ChannelTitle),
		})
	}

	c.logger.Debug("search completed", slog.String("query", query), slog.Int("results", len(results)))
	return results, nil
}

// FetchThumbnail downloads image bytes from rawURL.
func (c *Client) FetchThumbnail(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, domain.NewValidationError("url", rawURL, "must not be empty")
	}
	if b, ok := c.thumbnails.Get(rawURL); ok {
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, domain.NewValidationError("url", rawURL, err.Error())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewServiceError(serviceName, "thumbnail", 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NewServiceError(serviceName, "thumbnail", resp.StatusCode, resp.Status, nil)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailSize))
	if err != nil {
		return nil, domain.NewServiceError(serviceName, "thumbnail", resp.StatusCode, "read body failed", err)
	}
	c.thumbnails.Set(rawURL, b, thumbnailTTL)
	return b, nil
}

// getJSON performs GET <base>/<endpoint>?<q>&key=<apiKey> and decodes into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values, out any) error {
	q.Set("key", c.apiKey)
	u := c.baseURL + "/" + endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.NewServiceError(serviceName, endpoint, 0, "build request failed", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewServiceError(serviceName, endpoint, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := resp.Status
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		c.logger.Warn("request failed",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("message", msg))
		return domain.NewServiceError(serviceName, endpoint, resp.StatusCode, msg, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.NewServiceError(serviceName, endpoint, resp.StatusCode, "read body failed", err)
		}
		return domain.NewParseError(serviceName+"."+endpoint, "decode response", err)
	}
	return nil
}

var _ ports.VideoCatalog = (*Client)(nil)
