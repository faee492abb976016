package formats

import (
	"sort"
	"strconv"

	"github.com/zerodice0/youtube-download-gateway/internal/language"
)

// VideoCandidate is one deduplicated entry of the video catalog
type VideoCandidate struct {
	FormatID  string
	Quality   string
	Height    int
	Container string
	HasAudio  bool
	// Merge is set when downloading this format needs a separate audio stream
	Merge bool
}

// Key identifies a catalog slot: the height, or the format id when the
// height is unknown.
type Key struct {
	Height   int
	FormatID string
}

// CandidateKey returns the deduplication key for a format
func CandidateKey(f RawFormat) Key {
	if f.Height > 0 {
		return Key{Height: f.Height}
	}
	return Key{FormatID: f.ID}
}

// ShouldReplace reports whether incoming may overwrite existing at the same
// key. Only an audio-bearing entry replaces an audio-less one.
func ShouldReplace(existing, incoming VideoCandidate) bool {
	return incoming.HasAudio && !existing.HasAudio
}

// Partition splits formats into muxed, video-only and audio-only buckets.
// Formats carrying neither stream are dropped.
func Partition(raw []RawFormat) (mixed, videoOnly, audioOnly []RawFormat) {
	for _, f := range raw {
		switch {
		case f.HasVideo && f.HasAudio:
			mixed = append(mixed, f)
		case f.HasVideo:
			videoOnly = append(videoOnly, f)
		case f.HasAudio:
			audioOnly = append(audioOnly, f)
		}
	}
	return mixed, videoOnly, audioOnly
}

// Classification is the outcome of Classify
type Classification struct {
	Video     []VideoCandidate
	AudioOnly []RawFormat
}

var allowedContainers = map[string]bool{
	"mp4":  true,
	"webm": true,
}

// Classify builds the video catalog from raw formats. Muxed formats are
// considered before video-only ones; muxed entries whose audio is in a
// language other than desiredLanguage are ignored.
func Classify(raw []RawFormat, desiredLanguage string) Classification {
	mixed, videoOnly, audioOnly := Partition(raw)
	desired := language.Normalize(desiredLanguage)

	c := newCatalogMap()
	for _, group := range [][]RawFormat{mixed, videoOnly} {
		for _, f := range group {
			if f.HasAudio && foreignAudio(f, desired) {
				continue
			}
			c.upsert(f)
		}
	}

	videos := make([]VideoCandidate, 0, len(c.order))
	for _, k := range c.order {
		v := c.entries[k]
		if !allowedContainers[v.Container] {
			continue
		}
		videos = append(videos, v)
	}
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].Height > videos[j].Height
	})

	return Classification{Video: videos, AudioOnly: audioOnly}
}

func foreignAudio(f RawFormat, desired string) bool {
	return language.Normalize(f.Language) != "" && !language.Matches(f.Language, desired)
}

// catalogMap keeps insertion order so ties in height stay deterministic
type catalogMap struct {
	entries map[Key]VideoCandidate
	order   []Key
}

func newCatalogMap() *catalogMap {
	return &catalogMap{entries: make(map[Key]VideoCandidate)}
}

func (c *catalogMap) upsert(f RawFormat) {
	k := CandidateKey(f)
	incoming := toCandidate(f)

	existing, ok := c.entries[k]
	if !ok {
		c.entries[k] = incoming
		c.order = append(c.order, k)
		return
	}
	if ShouldReplace(existing, incoming) {
		c.entries[k] = incoming
	}
}

func toCandidate(f RawFormat) VideoCandidate {
	return VideoCandidate{
		FormatID:  f.ID,
		Quality:   QualityLabel(f),
		Height:    f.Height,
		Container: f.Ext,
		HasAudio:  f.HasAudio,
		Merge:     !f.HasAudio,
	}
}

// QualityLabel picks the display label: the format note, else "<height>p",
// else the format id.
func QualityLabel(f RawFormat) string {
	if f.Note != "" {
		return f.Note
	}
	if f.Height > 0 {
		return strconv.Itoa(f.Height) + "p"
	}
	return f.ID
}
