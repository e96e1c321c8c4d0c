package fyne

import (
	"fmt"
	"strings"

	"github.com/tejashwikalptaru/songscope/internal/domain"
)

// SplitParagraphs turns trivia text into paragraphs, one per non-blank line.
func SplitParagraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// SplitLines turns lyrics into display lines. Blank lines are kept as stanza
// gaps, but runs of them collapse to one and none lead or trail.
func SplitLines(text string) []string {
	var out []string
	blank := false
	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return out
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}

// StageLabel is the progress text shown while a stage runs.
func StageLabel(stage domain.AnalysisStage) string {
	switch stage {
	case domain.StageIdentify:
		return "Identifying song..."
	case domain.StageTrivia:
		return "Fetching trivia..."
	case domain.StageLyrics:
		return "Fetching lyrics..."
	default:
		return "Analyzing..."
	}
}

// SongBadge renders the identified song, e.g. "Yesterday by The Beatles".
func SongBadge(song domain.SongIdentity) string {
	switch {
	case song.SongName != "" && song.ArtistName != "":
		return fmt.Sprintf("%s by %s", song.SongName, song.ArtistName)
	case song.SongName != "":
		return song.SongName
	default:
		return song.ArtistName
	}
}

// ResultOption is the dropdown text of a search result.
func ResultOption(entry domain.SearchResultEntry) string {
	if entry.ChannelTitle == "" {
		return entry.Title
	}
	return fmt.Sprintf("%s (%s)", entry.Title, entry.ChannelTitle)
}
