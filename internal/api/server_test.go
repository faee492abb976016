package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zerodice0/youtube-download-gateway/internal/apperr"
	"github.com/zerodice0/youtube-download-gateway/internal/catalog"
	"github.com/zerodice0/youtube-download-gateway/internal/config"
	"github.com/zerodice0/youtube-download-gateway/internal/download"
	"github.com/zerodice0/youtube-download-gateway/internal/logger"
)

type fakeCatalog struct {
	cat *catalog.Catalog
	err error
	got string
}

func (f *fakeCatalog) Fetch(ctx context.Context, raw string) (*catalog.Catalog, error) {
	f.got = raw
	return f.cat, f.err
}

type fakeDownloader struct {
	res *download.Result
	err error
	got download.Request
}

func (f *fakeDownloader) Download(ctx context.Context, req download.Request) (*download.Result, error) {
	f.got = req
	return f.res, f.err
}

func newTestServer(cat CatalogFetcher, dl Downloader) *Server {
	return NewServer(config.ServerConfig{ListenAddr: "127.0.0.1:0"}, cat, dl, "test", logger.Nop())
}

func serve(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	rec := serve(newTestServer(&fakeCatalog{}, &fakeDownloader{}), "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestInfo_Success(t *testing.T) {
	cat := &fakeCatalog{cat: &catalog.Catalog{
		Title: "Sample",
		Formats: catalog.Formats{
			Video: []catalog.VideoEntry{{Itag: "18", Quality: "360p", Height: 360, Container: "mp4", HasAudio: true}},
			Audio: []catalog.AudioEntry{},
		},
	}}
	s := newTestServer(cat, &fakeDownloader{})

	rec := serve(s, "/api/info?url=https%3A%2F%2Fyoutu.be%2Fabc123")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if cat.got != "https://youtu.be/abc123" {
		t.Errorf("fetch input = %q", cat.got)
	}
	var got catalog.Catalog
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Title != "Sample" || len(got.Formats.Video) != 1 {
		t.Errorf("catalog = %+v", got)
	}
}

func TestInfo_ErrorStatus(t *testing.T) {
	tests := []struct {
		kind   apperr.Kind
		status int
	}{
		{apperr.BadInput, http.StatusBadRequest},
		{apperr.ToolUnavailable, http.StatusServiceUnavailable},
		{apperr.ExtractionFailed, http.StatusBadGateway},
		{apperr.Timeout, http.StatusGatewayTimeout},
		{apperr.Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			s := newTestServer(&fakeCatalog{err: apperr.New(tt.kind, "ERROR: diag")}, &fakeDownloader{})
			rec := serve(s, "/api/info?url=x")
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			body := decodeError(t, rec)
			if body.Error != tt.kind || body.Message != "ERROR: diag" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestDownload_StreamsAndDeletes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.mp4")
	if err := os.WriteFile(path, []byte("media-bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	dl := &fakeDownloader{res: &download.Result{Path: path, Filename: "Cat Video.mp4", ContentType: "video/mp4"}}
	s := newTestServer(&fakeCatalog{}, dl)

	rec := serve(s, "/api/download?url=https%3A%2F%2Fyoutu.be%2Fabc123&itag=137&audio_itag=140&title=Cat+Video")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec.Body.String() != "media-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="Cat Video.mp4"` {
		t.Errorf("content disposition = %q", cd)
	}
	want := download.Request{URL: "https://youtu.be/abc123", FormatID: "137", Type: download.TypeVideo, AudioFormatID: "140", Title: "Cat Video"}
	if dl.got != want {
		t.Errorf("request = %+v", dl.got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("temp file should be removed after delivery")
	}
}

func TestDownload_BadType(t *testing.T) {
	dl := &fakeDownloader{}
	rec := serve(newTestServer(&fakeCatalog{}, dl), "/api/download?url=x&itag=18&type=gif")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if dl.got.FormatID != "" {
		t.Error("downloader should not be called")
	}
}

func TestDownload_Failure(t *testing.T) {
	dl := &fakeDownloader{err: apperr.New(apperr.DownloadFailed, "ERROR: 403")}
	rec := serve(newTestServer(&fakeCatalog{}, dl), "/api/download?url=x&itag=18&type=audio")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != apperr.DownloadFailed {
		t.Errorf("body = %+v", body)
	}
	if dl.got.Type != download.TypeAudio {
		t.Errorf("type = %s", dl.got.Type)
	}
}

// blockingDownloader holds the request open until its context ends, the
// way a running yt-dlp attempt does
type blockingDownloader struct {
	started   chan struct{}
	cancelled chan struct{}
}

func (b *blockingDownloader) Download(ctx context.Context, req download.Request) (*download.Result, error) {
	close(b.started)
	<-ctx.Done()
	close(b.cancelled)
	return nil, ctx.Err()
}

func TestStop_CancelsInFlightDownloads(t *testing.T) {
	dl := &blockingDownloader{started: make(chan struct{}), cancelled: make(chan struct{})}
	s := newTestServer(&fakeCatalog{}, dl)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- s.Serve(ln) }()

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/download?url=x&itag=18")
		if err == nil {
			resp.Body.Close()
		}
	}()

	select {
	case <-dl.started:
	case <-time.After(5 * time.Second):
		t.Fatal("download never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := s.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stop = %v, want deadline exceeded", err)
	}

	select {
	case <-dl.cancelled:
	default:
		t.Fatal("in-flight download still running after Stop returned")
	}

	select {
	case err := <-serveErr:
		if err != nil {
			t.Errorf("Serve = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("Serve did not return after Stop")
	}
}

func TestStop_BeforeServe(t *testing.T) {
	s := newTestServer(&fakeCatalog{}, &fakeDownloader{})
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	if err := s.Serve(ln); err != nil {
		t.Errorf("Serve after Stop = %v, want immediate clean return", err)
	}
}

func TestDownload_MissingFileIsStreamFailure(t *testing.T) {
	dl := &fakeDownloader{res: &download.Result{Path: filepath.Join(t.TempDir(), "gone.mp4"), Filename: "x.mp4"}}
	rec := serve(newTestServer(&fakeCatalog{}, dl), "/api/download?url=x&itag=18")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != apperr.StreamFailed {
		t.Errorf("body = %+v", body)
	}
}

func TestContentDisposition(t *testing.T) {
	if got := contentDisposition("abc123.mp3"); got != "attachment; filename=abc123.mp3" {
		t.Errorf("ascii = %q", got)
	}
	got := contentDisposition("日本語.mp4")
	if !strings.HasPrefix(got, "attachment; filename*=utf-8''") || !strings.HasSuffix(got, ".mp4") {
		t.Errorf("utf-8 = %q", got)
	}
}
