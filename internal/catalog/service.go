package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/zerodice0/youtube-download-gateway/internal/apperr"
	"github.com/zerodice0/youtube-download-gateway/internal/extractor"
	"github.com/zerodice0/youtube-download-gateway/internal/formats"
	"github.com/zerodice0/youtube-download-gateway/internal/locator"
)

// Service resolves a locator into a catalog
type Service struct {
	extractor       extractor.Extractor
	desiredLanguage string
	log             *zap.SugaredLogger
}

// NewService creates a new catalog service
func NewService(ex extractor.Extractor, desiredLanguage string, log *zap.SugaredLogger) *Service {
	return &Service{
		extractor:       ex,
		desiredLanguage: desiredLanguage,
		log:             log,
	}
}

// Fetch canonicalizes raw, extracts metadata and classifies it. The result
// is either a complete catalog or an *apperr.Error.
func (s *Service) Fetch(ctx context.Context, raw string) (*Catalog, error) {
	canonical, ok := locator.Canonicalize(raw)
	if !ok {
		return nil, apperr.New(apperr.BadInput, "unrecognized video URL")
	}

	info, err := s.extractor.Extract(ctx, canonical)
	if err != nil {
		s.log.Warnf("[Catalog] extraction failed for %s: %v", canonical, err)
		return nil, extractor.AppError(err, apperr.ExtractionFailed)
	}

	cls := formats.Classify(info.Formats, s.desiredLanguage)
	var audio *formats.AudioCandidate
	if a, ok := formats.SelectAudio(cls.AudioOnly, info.Language); ok {
		audio = &a
	}

	s.log.Infof("[Catalog] %s: %d raw formats, %d video entries, audio offered: %t",
		canonical, len(info.Formats), len(cls.Video), audio != nil)
	return Assemble(info, cls.Video, audio), nil
}
