// Package api exposes the catalog and download services over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zerodice0/youtube-download-gateway/internal/catalog"
	"github.com/zerodice0/youtube-download-gateway/internal/config"
	"github.com/zerodice0/youtube-download-gateway/internal/download"
)

// CatalogFetcher resolves a locator into a catalog
type CatalogFetcher interface {
	Fetch(ctx context.Context, raw string) (*catalog.Catalog, error)
}

// Downloader produces a file for a download request
type Downloader interface {
	Download(ctx context.Context, req download.Request) (*download.Result, error)
}

// Server is the HTTP front of the gateway
type Server struct {
	cfg        config.ServerConfig
	catalog    CatalogFetcher
	downloader Downloader
	version    string
	log        *zap.SugaredLogger
	engine     *gin.Engine
	server     *http.Server

	// baseCtx parents every request context; cancelling it aborts running
	// downloads and kills their yt-dlp process groups
	baseCtx  context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

// NewServer creates a new HTTP server and registers its routes
func NewServer(cfg config.ServerConfig, cat CatalogFetcher, dl Downloader, version string, log *zap.SugaredLogger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:        cfg,
		catalog:    cat,
		downloader: dl,
		version:    version,
		log:        log,
		engine:     gin.New(),
	}

	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	s.server = &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     s.engine,
		ReadTimeout: cfg.ReadTimeout,
		// Downloads can run for many minutes before the first byte
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return s.baseCtx
		},
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.trackRequests())
	s.engine.Use(s.loggingMiddleware())

	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/info", s.handleInfo)
	api.GET("/download", s.handleDownload)

	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on the configured address until Stop is called
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Stop is called
func (s *Server) Serve(ln net.Listener) error {
	s.log.Infof("[API] listening on %s", ln.Addr())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server. Requests still running when ctx
// expires are cancelled, and Stop waits until their handlers have returned
// so no yt-dlp process outlives the server.
func (s *Server) Stop(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	s.cancel()
	if err != nil {
		s.log.Warnf("[API] graceful shutdown incomplete, cancelling in-flight requests: %v", err)
		_ = s.server.Close()
	}
	s.inflight.Wait()
	return err
}

func (s *Server) trackRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.inflight.Add(1)
		defer s.inflight.Done()
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Infof("[API] %s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
