// Package language normalizes the language codes yt-dlp reports for
// formats and videos.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Normalize lowercases a code and strips any region or script suffix,
// so "en-US", "EN_gb" and "en" all become "en". Empty input stays empty.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	return code
}

// Matches reports whether two codes refer to the same base language.
func Matches(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// DisplayName returns the English name for a code, or the upper-cased code
// when the tag cannot be parsed. Empty input yields "Unknown".
func DisplayName(code string) string {
	code = Normalize(code)
	if code == "" {
		return "Unknown"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return strings.ToUpper(code)
	}
	return name
}
