package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

// NoTriviaAvailable is returned when the backend answers with nothing.
const NoTriviaAvailable = "No trivia available."

const (
	identifySystemPrompt = "You are a system that identifies songs and artists from YouTube video titles."
	identifyUserPrompt   = "Extract the song and artist from the YouTube title: %s . The song and artist should be in the format of **Song:** followed by the Song name  and **Artist:** followed by the Artist name, nothing else is to be returned here, no other commentaries"

	triviaSystemPrompt = "You are a system that provides trivia about songs."
	triviaUserPrompt   = "I need a paragraph of trivia about the song \"%s\" by %s. I'm interested in learning something I probably wouldn't already know. Focus on details like: The song's writing or composition process, any interesting stories from the recording sessions, the song's chart performance or cultural impact beyond just 'it was a hit,' and any unusual or surprising facts about the song's creation or reception. Avoid generic information like 'it was a popular song."
)

// The bold markers are optional: models drop them often enough.
var (
	songLinePattern   = regexp.MustCompile(`(?i)(?:^|[^a-z])song(?:\s+name)?\s*(?:\*\*)?\s*:\s*(?:\*\*)?[ \t]*([^\n]*)`)
	artistLinePattern = regexp.MustCompile(`(?i)(?:^|[^a-z])artist(?:\s+name)?\s*(?:\*\*)?\s*:\s*(?:\*\*)?[ \t]*([^\n]*)`)

	songValueEnd   = regexp.MustCompile(`(?i)\s*(?:\*\*|\bartist(?:\s+name)?\s*:)`)
	artistValueEnd = regexp.MustCompile(`(?i)\s*(?:\*\*|\bsong(?:\s+name)?\s*:)`)
)

// SongIdentifierService derives song facts from a chat backend.
// Each call restates its full context; nothing is remembered between calls.
type SongIdentifierService struct {
	logger *slog.Logger
	chat   ports.ChatCompleter
}

// NewSongIdentifierService creates a new song identifier.
func NewSongIdentifierService(logger *slog.Logger, chat ports.ChatCompleter) *SongIdentifierService {
	return &SongIdentifierService{logger: logger, chat: chat}
}

// IdentifySong asks the backend for the song and artist of a video title.
// A field the response does not name is left empty.
func (s *SongIdentifierService) IdentifySong(ctx context.Context, title string) (domain.SongIdentity, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.SongIdentity{}, domain.NewValidationError("title", title, "must not be empty")
	}

	reply, err := s.chat.Complete(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: identifySystemPrompt},
		{Role: domain.RoleUser, Content: fmt.Sprintf(identifyUserPrompt, title)},
	})
	if err != nil {
		return domain.SongIdentity{}, asServiceError("identify", err)
	}

	song := ParseSongIdentity(reply)
	s.logger.Debug("song identified",
		slog.String("title", title),
		slog.String("song", song.SongName),
		slog.String("artist", song.ArtistName))
	return song, nil
}

// FetchTrivia asks the backend for a paragraph of trivia.
func (s *SongIdentifierService) FetchTrivia(ctx context.Context, song domain.SongIdentity) (string, error) {
	reply, err := s.chat.Complete(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: triviaSystemPrompt},
		{Role: domain.RoleUser, Content: fmt.Sprintf(triviaUserPrompt, song.SongName, song.ArtistName)},
	})
	if err != nil {
		return "", asServiceError("trivia", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return NoTriviaAvailable, nil
	}
	return reply, nil
}

// ParseSongIdentity extracts the song and artist fields from a reply in the
// "**Song:** X / **Artist:** Y" shape. Each field is matched independently.
func ParseSongIdentity(reply string) domain.SongIdentity {
	return domain.SongIdentity{
		SongName:   extractField(reply, songLinePattern, songValueEnd),
		ArtistName: extractField(reply, artistLinePattern, artistValueEnd),
	}
}

func extractField(reply string, line, end *regexp.Regexp) string {
	m := line.FindStringSubmatch(reply)
	if m == nil {
		return ""
	}
	value := m[1]
	if loc := end.FindStringIndex(value); loc != nil {
		value = value[:loc[0]]
	}
	return strings.Trim(strings.TrimSpace(value), `"*_`)
}

// asServiceError keeps service errors as they are and wraps anything else.
func asServiceError(op string, err error) error {
	var se *domain.ServiceError
	if errors.As(err, &se) {
		return err
	}
	return domain.NewServiceError("chat", op, 0, err.Error(), err)
}

var _ ports.SongIdentifier = (*SongIdentifierService)(nil)
