package download

import (
	"strings"

	"github.com/zerodice0/youtube-download-gateway/internal/apperr"
	"github.com/zerodice0/youtube-download-gateway/internal/extractor"
	"github.com/zerodice0/youtube-download-gateway/internal/locator"
	"github.com/zerodice0/youtube-download-gateway/internal/storage"
)

// Type is the requested deliverable
type Type string

const (
	TypeVideo Type = "video"
	TypeAudio Type = "audio"
)

const (
	audioCodec     = "mp3"
	mergeContainer = "mp4"
	bestAudio      = "bestaudio"
)

// ParseType parses a request type; empty means video
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case "", TypeVideo:
		return TypeVideo, nil
	case TypeAudio:
		return TypeAudio, nil
	}
	return "", apperr.New(apperr.BadInput, "unknown download type %q", s)
}

// Request is a caller's download choice
type Request struct {
	URL           string
	FormatID      string
	Type          Type
	AudioFormatID string
	// Title names the delivered file; the video id is used when empty
	Title string
}

// Plan is a fully resolved download: canonical locator, arguments and
// the reserved output location.
type Plan struct {
	URL     string
	VideoID string
	Type    Type
	Output  storage.Reservation
	// Ext is the container the plan is expected to produce
	Ext   string
	Title string
	args  []string
}

// NewPlan validates req and builds its arguments against out
func NewPlan(req Request, out storage.Reservation) (*Plan, error) {
	canonical, ok := locator.Canonicalize(req.URL)
	if !ok {
		return nil, apperr.New(apperr.BadInput, "unrecognized video URL")
	}
	id, _ := locator.VideoID(req.URL)

	formatID := strings.TrimSpace(req.FormatID)
	if formatID == "" {
		return nil, apperr.New(apperr.BadInput, "format id is required")
	}
	typ := req.Type
	if typ == "" {
		typ = TypeVideo
	}

	p := &Plan{
		URL:     canonical,
		VideoID: id,
		Type:    typ,
		Output:  out,
		Title:   strings.TrimSpace(req.Title),
	}

	b := NewArgsBuilder()
	switch typ {
	case TypeAudio:
		b.Format(formatID).ExtractAudio(audioCodec)
		p.Ext = audioCodec
	case TypeVideo:
		b.Format(VideoSelector(formatID, req.AudioFormatID)).MergeInto(mergeContainer)
		p.Ext = mergeContainer
	default:
		return nil, apperr.New(apperr.BadInput, "unknown download type %q", typ)
	}
	p.args = b.NoPlaylist().Output(out.Template()).Build()
	return p, nil
}

// VideoSelector combines the video format with the chosen audio format, or
// with the best available audio when none was chosen. The bare video id is
// the last alternative for formats that already carry audio.
func VideoSelector(videoID, audioID string) string {
	audioID = strings.TrimSpace(audioID)
	if audioID == "" {
		audioID = bestAudio
	}
	return videoID + "+" + audioID + "/" + videoID
}

// Args returns the format and output arguments
func (p *Plan) Args() []string {
	out := make([]string, len(p.args))
	copy(out, p.args)
	return out
}

// Strategies returns the download ladder for this plan
func (p *Plan) Strategies() extractor.Ladder {
	return extractor.DownloadLadder(p.args)
}

// ContentTypeFor maps a container extension to its MIME type
func ContentTypeFor(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "mp4":
		return "video/mp4"
	case "webm":
		return "video/webm"
	case "mkv":
		return "video/x-matroska"
	case "mp3":
		return "audio/mpeg"
	case "m4a":
		return "audio/mp4"
	case "opus", "ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
