package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/platform/metrics"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

// Messages shown to the user when a run fails.
const (
	MsgNoTitle          = "Unable to retrieve video title."
	MsgIdentifyFailed   = "Failed to identify the song."
	MsgTriviaFailed     = "Failed to fetch trivia."
	MsgLyricsNotFound   = "Lyrics not found."
	MsgLyricsFailed     = "Failed to fetch lyrics."
	MsgAnalysisCanceled = "Analysis canceled."
)

// AnalysisService runs identify, trivia and lyrics in order for a title.
//
// Each run gets an ID and a sequence number. Only the latest run may change
// the result; the others finish with domain.ErrSuperseded.
type AnalysisService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	identifier ports.SongIdentifier
	lyrics     ports.LyricsFetcher
	bus        ports.EventBus
	metrics    *metrics.Metrics

	seq atomic.Uint64

	mu     sync.RWMutex
	result domain.AnalysisResult
}

// NewAnalysisService creates a new analysis orchestrator.
func NewAnalysisService(
	logger *slog.Logger,
	identifier ports.SongIdentifier,
	lyrics ports.LyricsFetcher,
	bus ports.EventBus,
	m *metrics.Metrics,
) *AnalysisService {
	return &AnalysisService{
		logger:     logger,
		identifier: identifier,
		lyrics:     lyrics,
		bus:        bus,
		metrics:    m,
	}
}

// Analyze runs a full analysis of title and returns its result.
//
// A failing stage stops the run: the returned result then carries the
// message and the stage error is returned alongside it. Nothing but the
// loading flag is published until the run ends.
func (s *AnalysisService) Analyze(ctx context.Context, title string) (domain.AnalysisResult, error) {
	seq := s.seq.Add(1)
	runID := uuid.NewString()
	started := time.Now()
	log := s.logger.With(slog.String("run_id", runID))

	s.mu.Lock()
	s.result = domain.AnalysisResult{RunID: runID, IsLoading: true}
	s.mu.Unlock()

	title = strings.TrimSpace(title)
	log.Info("analysis started", slog.String("title", title))
	s.bus.Publish(domain.NewAnalysisStartedEvent(runID, title))

	if title == "" {
		err := domain.NewValidationError("title", title, "must not be empty")
		return s.fail(seq, runID, domain.StageIdentify, MsgNoTitle, err, started)
	}

	// Stage 1
	if !s.stage(seq, runID, domain.StageIdentify) {
		return s.superseded(runID)
	}
	song, err := s.identifier.IdentifySong(ctx, title)
	if err != nil {
		return s.fail(seq, runID, domain.StageIdentify, stageMessage(ctx, MsgIdentifyFailed, err), err, started)
	}
	// An unparseable reply is not fatal; trivia and lyrics run with the
	// empty identity and fail on their own if they must.
	if song.IsUnknown() {
		log.Info("song not identified, continuing with empty identity")
	} else {
		log.Debug("song identified", slog.String("song", song.SongName), slog.String("artist", song.ArtistName))
	}

	// Stage 2
	if !s.stage(seq, runID, domain.StageTrivia) {
		return s.superseded(runID)
	}
	trivia, err := s.identifier.FetchTrivia(ctx, song)
	if err != nil {
		return s.fail(seq, runID, domain.StageTrivia, stageMessage(ctx, MsgTriviaFailed, err), err, started)
	}

	// Stage 3
	if !s.stage(seq, runID, domain.StageLyrics) {
		return s.superseded(runID)
	}
	lyrics, err := s.lyrics.FetchLyrics(ctx, song)
	if err != nil {
		msg := MsgLyricsFailed
		if errors.Is(err, domain.ErrNotFound) {
			msg = MsgLyricsNotFound
		}
		return s.fail(seq, runID, domain.StageLyrics, stageMessage(ctx, msg, err), err, started)
	}

	result := domain.AnalysisResult{
		RunID:  runID,
		Song:   song,
		Trivia: trivia,
		Lyrics: lyrics,
	}

	s.mu.Lock()
	if s.seq.Load() != seq {
		s.mu.Unlock()
		return s.superseded(runID)
	}
	s.result = result
	s.mu.Unlock()

	s.metrics.ObserveAnalysis(metrics.OutcomeSuccess, time.Since(started))
	log.Info("analysis completed", slog.Duration("elapsed", time.Since(started)))
	s.bus.Publish(domain.NewAnalysisCompletedEvent(result))
	return result, nil
}

// Reset clears the result and invalidates any run in flight.
func (s *AnalysisService) Reset() {
	s.seq.Add(1)

	s.mu.Lock()
	s.result = domain.AnalysisResult{}
	s.mu.Unlock()

	s.bus.Publish(domain.NewAnalysisResetEvent())
}

// Current returns a copy of the current result.
func (s *AnalysisService) Current() domain.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// stage reports progress for a run that is still the latest.
func (s *AnalysisService) stage(seq uint64, runID string, stage domain.AnalysisStage) bool {
	if s.seq.Load() != seq {
		return false
	}
	s.bus.Publish(domain.NewAnalysisStageEvent(runID, stage))
	return true
}

func (s *AnalysisService) fail(
	seq uint64,
	runID string,
	stage domain.AnalysisStage,
	message string,
	cause error,
	started time.Time,
) (domain.AnalysisResult, error) {
	result := domain.AnalysisResult{RunID: runID, ErrorMessage: message}

	s.mu.Lock()
	if s.seq.Load() != seq {
		s.mu.Unlock()
		return s.superseded(runID)
	}
	s.result = result
	s.mu.Unlock()

	s.metrics.ObserveAnalysis(metrics.OutcomeFailure, time.Since(started))
	s.logger.Warn("analysis failed",
		slog.String("run_id", runID),
		slog.String("stage", string(stage)),
		slog.Any("error", cause))
	s.bus.Publish(domain.NewAnalysisFailedEvent(runID, stage, message, cause))
	return result, cause
}

func (s *AnalysisService) superseded(runID string) (domain.AnalysisResult, error) {
	s.metrics.ObserveAnalysis(metrics.OutcomeSuperseded, 0)
	s.logger.Debug("discarding superseded analysis", slog.String("run_id", runID))
	return domain.AnalysisResult{}, domain.ErrSuperseded
}

func stageMessage(ctx context.Context, msg string, err error) string {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return MsgAnalysisCanceled
	}
	return msg
}
