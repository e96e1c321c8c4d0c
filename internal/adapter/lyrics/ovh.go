package lyrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

const (
	// DefaultOVHBaseURL is the public lyrics.ovh API.
	DefaultOVHBaseURL = "https://api.lyrics.ovh"

	// OVHName identifies the lyrics.ovh provider.
	OVHName = "lyricsovh"

	// NotAvailable is returned when lyrics.ovh knows the song but has no text.
	NotAvailable = "Lyrics not available"
)

// OVHConfig configures the lyrics.ovh provider.
type OVHConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// OVH looks lyrics up by artist and title on lyrics.ovh.
type OVH struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOVH creates a lyrics.ovh provider.
func NewOVH(cfg OVHConfig) *OVH {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOVHBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &OVH{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger.With(slog.String("provider", OVHName)),
	}
}

// Name returns the provider identifier.
func (o *OVH) Name() string {
	return OVHName
}

// FetchLyrics returns the lyrics, or NotAvailable when the response has none.
// Any non-success status is reported as a ServiceError wrapping domain.ErrNotFound.
func (o *OVH) FetchLyrics(ctx context.Context, song domain.SongIdentity) (string, error) {
	u := o.baseURL + "/v1/" + url.PathEscape(song.ArtistName) + "/" + url.PathEscape(song.SongName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", domain.NewServiceError(OVHName, "lyrics", 0, "build request failed", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", domain.NewServiceError(OVHName, "lyrics", 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", domain.NewServiceError(OVHName, "lyrics", resp.StatusCode, "Lyrics not found", domain.ErrNotFound)
	}

	var decoded struct {
		Lyrics string `json:"lyrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", domain.NewParseError(OVHName+".lyrics", "decode response", err)
	}

	text := strings.TrimSpace(strings.ReplaceAll(decoded.Lyrics, "\r\n", "\n"))
	if text == "" {
		return NotAvailable, nil
	}
	return text, nil
}

var _ ports.LyricsProvider = (*OVH)(nil)
