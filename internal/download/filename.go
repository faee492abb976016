package download

import (
	"strings"
	"unicode"
)

const maxFilenameLen = 120

// Filename builds the suggested attachment name for a delivered file
func Filename(title, fallback, ext string) string {
	name := sanitize(title)
	if name == "" {
		name = sanitize(fallback)
	}
	if name == "" {
		name = "download"
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// sanitize drops path separators, quotes and control characters and
// collapses whitespace
func sanitize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsControl(r), strings.ContainsRune(`/\:*?"<>|`, r):
			continue
		case unicode.IsSpace(r):
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), ". ")
	if len(out) > maxFilenameLen {
		cut := maxFilenameLen
		for cut > 0 && !isRuneStart(out[cut]) {
			cut--
		}
		out = strings.TrimSpace(out[:cut])
	}
	return out
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
