package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zerodice0/youtube-download-gateway/internal/apperr"
	"github.com/zerodice0/youtube-download-gateway/internal/extractor"
	"github.com/zerodice0/youtube-download-gateway/internal/logger"
	"github.com/zerodice0/youtube-download-gateway/internal/storage"
)

// fileTool imitates yt-dlp writing into the -o template
type fileTool struct {
	calls [][]string
	// failures is the number of leading attempts that exit non-zero
	failures int
	// silent makes successful attempts produce no file
	silent bool
	ext    string
}

func (f *fileTool) Run(ctx context.Context, args []string, timeout time.Duration) (*extractor.Result, error) {
	f.calls = append(f.calls, args)
	tmpl := outputTemplate(args)
	if len(f.calls) <= f.failures {
		_ = os.WriteFile(strings.Replace(tmpl, "%(ext)s", "mp4.part", 1), []byte("partial"), 0644)
		return &extractor.Result{ExitCode: 1}, &extractor.ExitError{Code: 1, Stderr: "ERROR: HTTP Error 403: Forbidden"}
	}
	if !f.silent {
		_ = os.WriteFile(strings.Replace(tmpl, "%(ext)s", "f137.mp4", 1), []byte("stream"), 0644)
		_ = os.WriteFile(strings.Replace(tmpl, "%(ext)s", f.ext, 1), []byte("media"), 0644)
	}
	return &extractor.Result{}, nil
}

func outputTemplate(args []string) string {
	for i, a := range args {
		if a == "-o" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func newDownloader(t *testing.T, tool extractor.Tool) (*Downloader, *storage.Workspace) {
	t.Helper()
	ws, err := storage.NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := extractor.NewRunner(tool, logger.Nop())
	return NewDownloader(runner, ws, time.Minute, []string{"--cookies", "c.txt"}, logger.Nop()), ws
}

func TestDownload_VideoSucceedsAfterFallback(t *testing.T) {
	tool := &fileTool{failures: 2, ext: "mp4"}
	d, ws := newDownloader(t, tool)

	res, err := d.Download(context.Background(), Request{
		URL:      "https://youtu.be/abc123",
		FormatID: "137",
		Title:    "Cat Video",
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(tool.calls) != 3 {
		t.Errorf("calls = %d, want 3", len(tool.calls))
	}
	if res.Strategy != "ios" {
		t.Errorf("strategy = %s", res.Strategy)
	}
	if res.Filename != "Cat Video.mp4" || res.ContentType != "video/mp4" {
		t.Errorf("result = %+v", res)
	}
	if filepath.Dir(res.Path) != ws.Dir() {
		t.Errorf("path %s outside workspace", res.Path)
	}

	entries, _ := os.ReadDir(ws.Dir())
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("workspace should only hold the deliverable, got %v", names)
	}

	first := tool.calls[0]
	if first[0] != "--cookies" || first[len(first)-1] != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("first call = %v", first)
	}
}

func TestDownload_AudioFallsBackToProducedContainer(t *testing.T) {
	tool := &fileTool{ext: "m4a"}
	d, _ := newDownloader(t, tool)

	res, err := d.Download(context.Background(), Request{
		URL:      "https://youtu.be/abc123",
		FormatID: "140",
		Type:     TypeAudio,
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if res.Filename != "abc123.m4a" || res.ContentType != "audio/mp4" {
		t.Errorf("result = %+v", res)
	}
}

func TestDownload_NoFileIsFailedAttempt(t *testing.T) {
	tool := &fileTool{silent: true, ext: "mp4"}
	d, ws := newDownloader(t, tool)

	_, err := d.Download(context.Background(), Request{URL: "https://youtu.be/abc123", FormatID: "18"})
	if apperr.KindOf(err) != apperr.DownloadFailed {
		t.Fatalf("expected download_failed, got %v", err)
	}
	if len(tool.calls) != 4 {
		t.Errorf("calls = %d, want every strategy tried", len(tool.calls))
	}
	entries, _ := os.ReadDir(ws.Dir())
	if len(entries) != 0 {
		t.Errorf("workspace not cleaned: %d entries", len(entries))
	}
}

func TestDownload_ExhaustionCleansUp(t *testing.T) {
	tool := &fileTool{failures: 10, ext: "mp4"}
	d, ws := newDownloader(t, tool)

	_, err := d.Download(context.Background(), Request{URL: "https://youtu.be/abc123", FormatID: "18"})
	if apperr.KindOf(err) != apperr.DownloadFailed {
		t.Fatalf("expected download_failed, got %v", err)
	}
	if !strings.Contains(apperr.Diagnostic(err), "403") {
		t.Errorf("diagnostic = %q", apperr.Diagnostic(err))
	}
	var exhausted *extractor.ExhaustedError
	if !errors.As(err, &exhausted) || len(exhausted.Attempts) != 4 {
		t.Errorf("expected 4 recorded attempts, got %v", err)
	}
	entries, _ := os.ReadDir(ws.Dir())
	if len(entries) != 0 {
		t.Errorf("partial files left: %d", len(entries))
	}
}

func TestDownload_BadInputSkipsTool(t *testing.T) {
	tool := &fileTool{ext: "mp4"}
	d, _ := newDownloader(t, tool)

	_, err := d.Download(context.Background(), Request{URL: "nope", FormatID: "18"})
	if apperr.KindOf(err) != apperr.BadInput {
		t.Fatalf("expected bad_input, got %v", err)
	}
	if len(tool.calls) != 0 {
		t.Errorf("tool invoked %d times", len(tool.calls))
	}
}

func TestDownload_ConcurrentRequestsDoNotCollide(t *testing.T) {
	d, _ := newDownloader(t, &fileTool{ext: "mp4"})
	d2 := *d
	d2.runner = extractor.NewRunner(&fileTool{ext: "mp4"}, logger.Nop())

	a, err := d.Download(context.Background(), Request{URL: "https://youtu.be/abc123", FormatID: "18"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := d2.Download(context.Background(), Request{URL: "https://youtu.be/abc123", FormatID: "18"})
	if err != nil {
		t.Fatal(err)
	}
	if a.Path == b.Path {
		t.Errorf("same output path for two requests: %s", a.Path)
	}
}
