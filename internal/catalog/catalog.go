// Package catalog shapes classified formats into the caller-facing catalog.
package catalog

import (
	"github.com/zerodice0/youtube-download-gateway/internal/formats"
)

// convertedContainer is what every audio entry is delivered as
const convertedContainer = "mp3"

// Catalog is the metadata response for one video
type Catalog struct {
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail"`
	Formats   Formats `json:"formats"`
}

// Formats groups the downloadable entries
type Formats struct {
	Video []VideoEntry `json:"video"`
	Audio []AudioEntry `json:"audio"`
}

// VideoEntry is one selectable video quality
type VideoEntry struct {
	Itag      string `json:"itag"`
	Quality   string `json:"quality"`
	Height    int    `json:"height"`
	Container string `json:"container"`
	HasAudio  bool   `json:"hasAudio"`
	Merge     bool   `json:"merge"`
}

// AudioEntry is the single offered audio track, presented as an mp3
// conversion of OriginalItag
type AudioEntry struct {
	Itag         string `json:"itag"`
	Bitrate      int    `json:"bitrate"`
	Container    string `json:"container"`
	Converted    bool   `json:"converted"`
	Language     string `json:"language"`
	OriginalItag string `json:"original_itag"`
}

// Assemble builds a catalog. audio is nil when no track is offered. Both
// lists are always non-nil so they encode as [] rather than null.
func Assemble(info *formats.Info, videos []formats.VideoCandidate, audio *formats.AudioCandidate) *Catalog {
	c := &Catalog{
		Title:     info.Title,
		Thumbnail: info.Thumbnail,
		Formats: Formats{
			Video: make([]VideoEntry, 0, len(videos)),
			Audio: make([]AudioEntry, 0, 1),
		},
	}
	for _, v := range videos {
		c.Formats.Video = append(c.Formats.Video, VideoEntry{
			Itag:      v.FormatID,
			Quality:   v.Quality,
			Height:    v.Height,
			Container: v.Container,
			HasAudio:  v.HasAudio,
			Merge:     v.Merge,
		})
	}
	if audio != nil {
		c.Formats.Audio = append(c.Formats.Audio, AudioEntry{
			Itag:         audio.FormatID,
			Bitrate:      audio.Bitrate,
			Container:    convertedContainer,
			Converted:    true,
			Language:     audio.Language,
			OriginalItag: audio.FormatID,
		})
	}
	return c
}
