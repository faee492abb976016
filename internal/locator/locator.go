package locator

import (
	"regexp"
	"strings"
)

// WatchPrefix is the canonical form every accepted locator is rewritten to.
const WatchPrefix = "https://www.youtube.com/watch?v="

// idPatterns are tried in order; the first match wins.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`v=([^#&?]+)`),
	regexp.MustCompile(`youtu\.be/([^#&?]+)`),
	regexp.MustCompile(`shorts/([^#&?]+)`),
	regexp.MustCompile(`embed/([^#&?]+)`),
}

var trackingSuffix = regexp.MustCompile(`\?si=.*$`)

// VideoID extracts the video id from an arbitrary locator.
// It returns false when the input is empty or matches no known URL shape.
func VideoID(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	// Drop playlist, timestamp and other query noise
	if i := strings.Index(s, "&"); i >= 0 {
		s = s[:i]
	}
	s = trackingSuffix.ReplaceAllString(s, "")

	for _, re := range idPatterns {
		if m := re.FindStringSubmatch(s); len(m) == 2 && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

// Canonicalize rewrites a locator into WatchPrefix + id.
func Canonicalize(raw string) (string, bool) {
	id, ok := VideoID(raw)
	if !ok {
		return "", false
	}
	return WatchPrefix + id, true
}
