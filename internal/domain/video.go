package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// videoIDPattern matches the URL shapes the platform hands out: watch links
// (v= anywhere in the query), short links, embed, legacy /v/ and /e/, shorts and live.
var videoIDPattern = regexp.MustCompile(
	`(?:youtube(?:-nocookie)?\.com/(?:watch\?(?:[^#]*&)?v=|embed/|v/|e/|shorts/|live/)|youtu\.be/)([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`,
)

var isoDurationPattern = regexp.MustCompile(
	`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(?:\.\d+)?S)?)?$`,
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// ExtractVideoID returns the video identifier embedded in raw.
// The second result is false when raw matches none of the known URL shapes.
func ExtractVideoID(raw string) (string, bool) {
	match := videoIDPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return "", false
	}
	return match[1], true
}

// WatchURL builds the canonical watch URL for an identifier.
func WatchURL(id string) string {
	return watchURLPrefix + id
}

// ParseVideoReference extracts a VideoReference from user input.
func ParseVideoReference(raw string) (VideoReference, error) {
	id, ok := ExtractVideoID(raw)
	if !ok {
		return VideoReference{}, NewValidationError("url", raw, "not a recognised video URL")
	}
	return VideoReference{ID: id, Source: strings.TrimSpace(raw)}, nil
}

// ParseDuration converts an ISO-8601 duration such as "PT1H2M3S" to a
// time.Duration. Missing components count as zero and malformed input
// yields zero rather than an error.
func ParseDuration(s string) time.Duration {
	match := isoDurationPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if match == nil {
		return 0
	}

	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	var total time.Duration
	for i, unit := range units {
		if match[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(match[i+1])
		if err != nil {
			return 0
		}
		total += time.Duration(n) * unit
	}
	return total
}

// ClampPosition keeps a seek target inside [0, duration].
// A zero duration means "not known yet" and only the lower bound applies.
func ClampPosition(target, duration time.Duration) time.Duration {
	if target < 0 {
		return 0
	}
	if duration > 0 && target > duration {
		return duration
	}
	return target
}

// FormatClock renders a position as m:ss.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
