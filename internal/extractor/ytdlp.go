package extractor

import (
	"context"
	"time"

	"github.com/zerodice0/youtube-download-gateway/internal/formats"
)

// Extractor fetches format metadata for a canonical locator
type Extractor interface {
	Extract(ctx context.Context, canonicalURL string) (*formats.Info, error)
}

// YtdlpExtractor implements metadata extraction using the yt-dlp ladder
type YtdlpExtractor struct {
	runner  *Runner
	ladder  Ladder
	prefix  []string
	timeout time.Duration
}

// NewYtdlpExtractor creates a new yt-dlp extractor. prefix is placed before
// every strategy (see PrefixArgs).
func NewYtdlpExtractor(runner *Runner, timeout time.Duration, prefix []string) *YtdlpExtractor {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &YtdlpExtractor{
		runner:  runner,
		ladder:  MetadataLadder(),
		prefix:  prefix,
		timeout: timeout,
	}
}

// Extract runs the metadata ladder and decodes the first usable document.
// Output that is not valid metadata counts as a failed attempt, so the next
// strategy still gets its turn.
func (e *YtdlpExtractor) Extract(ctx context.Context, canonicalURL string) (*formats.Info, error) {
	var info *formats.Info
	_, err := e.runner.Run(ctx, e.ladder, canonicalURL, RunOptions{
		Timeout: e.timeout,
		Prefix:  e.prefix,
		Accept: func(res *Result) error {
			parsed, err := formats.ParseInfo(res.Stdout)
			if err != nil {
				return err
			}
			info = parsed
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}
