package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/platform/metrics"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

// PrimaryErrorPolicy decides what a failing primary lyrics provider does to the chain.
type PrimaryErrorPolicy string

const (
	// PolicyFallthrough tries the fallback after any primary failure.
	PolicyFallthrough PrimaryErrorPolicy = "fallthrough"

	// PolicySurface tries the fallback only when the primary had no match.
	// Transport and service errors of the primary are returned as they are.
	PolicySurface PrimaryErrorPolicy = "surface"
)

// ParsePrimaryErrorPolicy maps a config value to a policy.
// Unknown values yield PolicyFallthrough.
func ParsePrimaryErrorPolicy(s string) PrimaryErrorPolicy {
	if PrimaryErrorPolicy(strings.ToLower(strings.TrimSpace(s))) == PolicySurface {
		return PolicySurface
	}
	return PolicyFallthrough
}

// LyricsService fetches lyrics from a primary provider and falls back to a
// second one when the primary yields no usable text.
type LyricsService struct {
	logger   *slog.Logger
	primary  ports.LyricsProvider
	fallback ports.LyricsProvider
	policy   PrimaryErrorPolicy
	metrics  *metrics.Metrics
}

// NewLyricsService creates a lyrics chain. fallback may be nil.
func NewLyricsService(
	logger *slog.Logger,
	primary, fallback ports.LyricsProvider,
	policy PrimaryErrorPolicy,
	m *metrics.Metrics,
) *LyricsService {
	if policy != PolicySurface {
		policy = PolicyFallthrough
	}
	return &LyricsService{
		logger:   logger,
		primary:  primary,
		fallback: fallback,
		policy:   policy,
		metrics:  m,
	}
}

// FetchLyrics returns lyrics for song. The fallback is consulted exactly
// once, and only when the primary produced no usable text.
func (s *LyricsService) FetchLyrics(ctx context.Context, song domain.SongIdentity) (string, error) {
	text, err := s.try(ctx, s.primary, song)
	if err == nil && text != "" {
		return text, nil
	}

	if err != nil {
		if s.policy == PolicySurface && !errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
	}

	if s.fallback == nil {
		if err != nil {
			return "", err
		}
		return "", fmt.Errorf("lyrics for %q: %w", song.SongName, domain.ErrNotFound)
	}

	s.logger.Info("falling back to secondary lyrics provider",
		slog.String("primary", s.primary.Name()),
		slog.String("fallback", s.fallback.Name()))

	text, err = s.try(ctx, s.fallback, song)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("lyrics for %q: %w", song.SongName, domain.ErrNotFound)
	}
	return text, nil
}

// try runs one provider and records its outcome. Whitespace-only text counts as empty.
func (s *LyricsService) try(ctx context.Context, p ports.LyricsProvider, song domain.SongIdentity) (string, error) {
	text, err := p.FetchLyrics(ctx, song)
	text = strings.TrimSpace(text)

	switch {
	case err != nil:
		s.metrics.ObserveLyrics(p.Name(), metrics.OutcomeFailure)
		s.logger.Warn("lyrics provider failed",
			slog.String("provider", p.Name()),
			slog.Any("error", err))
	case text == "":
		s.metrics.ObserveLyrics(p.Name(), metrics.OutcomeEmpty)
		s.logger.Debug("lyrics provider found nothing", slog.String("provider", p.Name()))
	default:
		s.metrics.ObserveLyrics(p.Name(), metrics.OutcomeSuccess)
	}
	return text, err
}

var _ ports.LyricsFetcher = (*LyricsService)(nil)
