package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

const (
	// DefaultGeniusBaseURL is the public Genius API.
	DefaultGeniusBaseURL = "https://api.genius.com"

	// GeniusName identifies the Genius provider.
	GeniusName = "genius"

	lyricsContainerClass = "Lyrics__Container"
	maxPageSize          = 8 << 20
)

// GeniusConfig configures the Genius provider.
type GeniusConfig struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Genius searches the Genius API and scrapes the lyrics from the song page.
type Genius struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGenius creates a Genius provider.
func NewGenius(cfg GeniusConfig) *Genius {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeniusBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Genius{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger.With(slog.String("provider", GeniusName)),
	}
}

// Name returns the provider identifier.
func (g *Genius) Name() string {
	return GeniusName
}

type geniusHit struct {
	Result struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		PrimaryArtist struct {
			Name string `json:"name"`
		} `json:"primary_artist"`
	} `json:"result"`
}

type geniusSearchResponse struct {
	Response struct {
		Hits []geniusHit `json:"hits"`
	} `json:"response"`
}

// FetchLyrics finds the best search hit and extracts the lyrics from its page.
// Returns domain.ErrNotFound when no hit matches both song and artist, and ""
// when the page has no lyrics containers.
func (g *Genius) FetchLyrics(ctx context.Context, song domain.SongIdentity) (string, error) {
	pageURL, err := g.search(ctx, song)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", domain.NewServiceError(GeniusName, "page", 0, "build request failed", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", domain.NewServiceError(GeniusName, "page", 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", domain.NewServiceError(GeniusName, "page", resp.StatusCode, resp.Status, nil)
	}

	text, err := ExtractText(io.LimitReader(resp.Body, maxPageSize), ClassContains(lyricsContainerClass))
	if err != nil {
		return "", domain.NewParseError(GeniusName+".page", "parse html", err)
	}

	g.logger.Debug("page scraped", slog.String("url", pageURL), slog.Int("chars", len(text)))
	return text, nil
}

// search returns the page URL of the first hit whose title contains the song
// name and whose primary artist contains the artist name, case-insensitively.
func (g *Genius) search(ctx context.Context, song domain.SongIdentity) (string, error) {
	q := url.Values{}
	q.Set("q", song.SongName+" "+song.ArtistName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return "", domain.NewServiceError(GeniusName, "search", 0, "build request failed", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", domain.NewServiceError(GeniusName, "search", 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", domain.NewServiceError(GeniusName, "search", resp.StatusCode, "Failed to search on Genius", nil)
	}

	var decoded geniusSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", domain.NewParseError(GeniusName+".search", "decode response", err)
	}

	wantSong := strings.ToLower(song.SongName)
	wantArtist := strings.ToLower(song.ArtistName)
	for _, hit := range decoded.Response.Hits {
		title := strings.ToLower(hit.Result.Title)
		artist := strings.ToLower(hit.Result.PrimaryArtist.Name)
		if strings.Contains(title, wantSong) && strings.Contains(artist, wantArtist) && hit.Result.URL != "" {
			return hit.Result.URL, nil
		}
	}

	return "", fmt.Errorf("genius: no hit for %q by %q: %w", song.SongName, song.ArtistName, domain.ErrNotFound)
}

var _ ports.LyricsProvider = (*Genius)(nil)
