package formats

import (
	"math"
	"strings"

	"github.com/zerodice0/youtube-download-gateway/internal/language"
)

// AudioCandidate is an audio-only format that passed the track policy
type AudioCandidate struct {
	FormatID  string
	Bitrate   int
	Container string
	Language  string // normalized
	Default   bool
}

// alternate tracks that are never offered as the primary audio
var excludedNotes = []string{"dub", "descriptive", "commentary"}

// Bitrate returns the rounded average bitrate, falling back to the total
// bitrate when the average is absent.
func Bitrate(f RawFormat) int {
	br := f.ABR
	if br == 0 {
		br = f.TBR
	}
	return int(math.Round(br))
}

// IsDefaultTrack reports the upstream default-track signal: preference >= 0.
// An absent preference is not a signal.
func IsDefaultTrack(f RawFormat) bool {
	return f.Preference != nil && *f.Preference >= 0
}

// IsAlternateTrack reports dubbed, descriptive and commentary tracks
func IsAlternateTrack(f RawFormat) bool {
	note := strings.ToLower(f.Note)
	for _, s := range excludedNotes {
		if strings.Contains(note, s) {
			return true
		}
	}
	return false
}

// SelectAudio picks at most one audio track from the audio-only formats.
//
// Unusable (bitrate <= 0) and alternate tracks are skipped, as are tracks
// declaring a language other than originalLanguage. When originalLanguage is
// empty the language check is disabled. Among the survivors the
// highest-bitrate default-signaled track wins; without any default-signaled
// track the highest-bitrate track overall wins. Ties keep the first seen.
func SelectAudio(audioOnly []RawFormat, originalLanguage string) (AudioCandidate, bool) {
	original := language.Normalize(originalLanguage)

	var best, bestDefault *AudioCandidate
	for _, f := range audioOnly {
		br := Bitrate(f)
		if br <= 0 {
			continue
		}
		if IsAlternateTrack(f) {
			continue
		}
		lang := language.Normalize(f.Language)
		if original != "" && lang != "" && lang != original {
			continue
		}

		cand := AudioCandidate{
			FormatID:  f.ID,
			Bitrate:   br,
			Container: f.Ext,
			Language:  lang,
			Default:   IsDefaultTrack(f),
		}
		if cand.Default && (bestDefault == nil || cand.Bitrate > bestDefault.Bitrate) {
			c := cand
			bestDefault = &c
		}
		if best == nil || cand.Bitrate > best.Bitrate {
			c := cand
			best = &c
		}
	}

	switch {
	case bestDefault != nil:
		return *bestDefault, true
	case best != nil:
		return *best, true
	default:
		return AudioCandidate{}, false
	}
}
