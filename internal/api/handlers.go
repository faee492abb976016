package api

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/zerodice0/youtube-download-gateway/internal/apperr"
	"github.com/zerodice0/youtube-download-gateway/internal/download"
	"github.com/zerodice0/youtube-download-gateway/internal/storage"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   apperr.Kind `json:"error"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleInfo(c *gin.Context) {
	cat, err := s.catalog.Fetch(c.Request.Context(), c.Query("url"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (s *Server) handleDownload(c *gin.Context) {
	typ, err := download.ParseType(c.Query("type"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	res, err := s.downloader.Download(c.Request.Context(), download.Request{
		URL:           c.Query("url"),
		FormatID:      c.Query("itag"),
		Type:          typ,
		AudioFormatID: c.Query("audio_itag"),
		Title:         c.Query("title"),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	// The temp file is removed once the response is done, whatever the outcome
	f, err := storage.OpenDeleteOnClose(res.Path)
	if err != nil {
		s.writeError(c, apperr.Wrap(apperr.StreamFailed, err, "failed to open downloaded file"))
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Warnf("[API] failed to remove %s: %v", filepath.Base(res.Path), err)
		}
	}()

	c.Header("Content-Disposition", contentDisposition(res.Filename))
	c.DataFromReader(http.StatusOK, f.Size(), res.ContentType, f, nil)

	if len(c.Errors) > 0 || c.Request.Context().Err() != nil {
		s.log.Warnf("[API] %s: delivery of %s interrupted: %v", apperr.StreamFailed, res.Filename, c.Errors.Last())
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.log.Warnf("[API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   kind,
		Message: apperr.Diagnostic(err),
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.BadInput:
		return http.StatusBadRequest
	case apperr.ToolUnavailable:
		return http.StatusServiceUnavailable
	case apperr.ExtractionFailed, apperr.DownloadFailed:
		return http.StatusBadGateway
	case apperr.Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// contentDisposition encodes filename as an attachment, using the RFC 2231
// form for non-ASCII names
func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return fmt.Sprintf("attachment; filename=%q", "download"+filepath.Ext(filename))
}
