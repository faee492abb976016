package download

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/zerodice0/youtube-download-gateway/internal/apperr"
	"github.com/zerodice0/youtube-download-gateway/internal/extractor"
	"github.com/zerodice0/youtube-download-gateway/internal/storage"
)

// Result is a completed download waiting to be delivered. The caller owns
// Path and must remove it (see storage.OpenDeleteOnClose).
type Result struct {
	Path        string
	Filename    string
	ContentType string
	Strategy    string
}

// Downloader runs download plans through the strategy ladder
type Downloader struct {
	runner    *extractor.Runner
	workspace *storage.Workspace
	prefix    []string
	timeout   time.Duration
	log       *zap.SugaredLogger
}

// NewDownloader creates a new downloader. prefix is placed before every
// strategy (see extractor.PrefixArgs).
func NewDownloader(runner *extractor.Runner, ws *storage.Workspace, timeout time.Duration, prefix []string, log *zap.SugaredLogger) *Downloader {
	if timeout == 0 {
		timeout = 20 * time.Minute
	}
	return &Downloader{
		runner:    runner,
		workspace: ws,
		prefix:    prefix,
		timeout:   timeout,
		log:       log,
	}
}

// Download plans req, runs the download ladder and returns the produced
// file. An attempt only succeeds when it left an output file behind. On
// any failure the request's files are removed.
func (d *Downloader) Download(ctx context.Context, req Request) (*Result, error) {
	out := d.workspace.Reserve()
	plan, err := NewPlan(req, out)
	if err != nil {
		return nil, err
	}

	d.log.Infof("[Download] %s %s (format %s) -> %s", plan.Type, plan.VideoID, req.FormatID, out.ID)

	var path string
	outcome, err := d.runner.Run(ctx, plan.Strategies(), plan.URL, extractor.RunOptions{
		Timeout: d.timeout,
		Prefix:  d.prefix,
		Accept: func(*extractor.Result) error {
			resolved, err := d.workspace.Resolve(out, plan.Ext)
			if err != nil {
				return err
			}
			path = resolved
			return nil
		},
	})
	if err != nil {
		if releaseErr := d.workspace.Release(out); releaseErr != nil {
			d.log.Warnf("[Download] failed to clean up %s: %v", out.ID, releaseErr)
		}
		return nil, extractor.AppError(err, apperr.DownloadFailed)
	}

	// Drop intermediate streams yt-dlp left next to the deliverable
	d.cleanupExcept(out, path)

	ext := filepath.Ext(path)
	res := &Result{
		Path:        path,
		Filename:    Filename(plan.Title, plan.VideoID, ext),
		ContentType: ContentTypeFor(ext),
		Strategy:    outcome.Strategy.Name,
	}
	d.log.Infof("[Download] %s ready via %s: %s", plan.VideoID, res.Strategy, res.Filename)
	return res, nil
}

func (d *Downloader) cleanupExcept(out storage.Reservation, keep string) {
	matches, err := filepath.Glob(out.Base + ".*")
	if err != nil {
		return
	}
	for _, m := range matches {
		if m == keep {
			continue
		}
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			d.log.Debugf("[Download] failed to remove %s: %v", m, err)
		}
	}
}
