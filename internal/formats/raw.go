package formats

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoFormats is returned when a metadata document lists no formats at all
var ErrNoFormats = errors.New("metadata contains no formats")

// RawFormat is one entry of the formats array in yt-dlp's JSON output
type RawFormat struct {
	ID         string
	Height     int // 0 when audio-only or unknown
	Ext        string
	HasVideo   bool
	HasAudio   bool
	ABR        float64 // 0 when absent
	TBR        float64 // 0 when absent
	Note       string
	Language   string // as reported, e.g. "en-US"; may be empty
	Preference *int   // nil when absent
}

// Info is the subset of a yt-dlp metadata document the gateway consumes
type Info struct {
	ID        string
	Title     string
	Thumbnail string
	Language  string // original language of the video; may be empty
	Formats   []RawFormat
}

type infoJSON struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Thumbnail string       `json:"thumbnail"`
	Language  *string      `json:"language"`
	Formats   []formatJSON `json:"formats"`
}

type formatJSON struct {
	FormatID   string   `json:"format_id"`
	Height     *int     `json:"height"`
	Ext        string   `json:"ext"`
	VCodec     string   `json:"vcodec"`
	ACodec     string   `json:"acodec"`
	ABR        *float64 `json:"abr"`
	TBR        *float64 `json:"tbr"`
	FormatNote string   `json:"format_note"`
	Language   *string  `json:"language"`
	Preference *int     `json:"preference"`
}

// ParseInfo decodes a yt-dlp -J document. A document without any formats is
// rejected with ErrNoFormats since it cannot produce a catalog.
func ParseInfo(data []byte) (*Info, error) {
	var doc infoJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if len(doc.Formats) == 0 {
		return nil, ErrNoFormats
	}

	info := &Info{
		ID:        doc.ID,
		Title:     doc.Title,
		Thumbnail: doc.Thumbnail,
		Language:  deref(doc.Language),
		Formats:   make([]RawFormat, 0, len(doc.Formats)),
	}
	for _, f := range doc.Formats {
		info.Formats = append(info.Formats, f.toRaw())
	}
	return info, nil
}

func (f formatJSON) toRaw() RawFormat {
	raw := RawFormat{
		ID:         f.FormatID,
		Ext:        f.Ext,
		HasVideo:   f.VCodec != "none",
		HasAudio:   f.ACodec != "none",
		Note:       f.FormatNote,
		Language:   deref(f.Language),
		Preference: f.Preference,
	}
	if f.Height != nil && *f.Height > 0 {
		raw.Height = *f.Height
	}
	if f.ABR != nil {
		raw.ABR = *f.ABR
	}
	if f.TBR != nil {
		raw.TBR = *f.TBR
	}
	return raw
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
