package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/lector/internal/interfaces"
	"github.com/ternarybob/lector/internal/models"
	"github.com/ternarybob/lector/internal/services/concepts"
	"github.com/ternarybob/lector/internal/services/ocr"
	"github.com/ternarybob/lector/internal/services/refine"
)

// Service chains the pipeline stages for one request: fetch, OCR,
// deterministic cleanup, gated external refinement, concept extraction.
// Fetch and OCR failures fail the request; refinement failures degrade to
// the cleaned text.
type Service struct {
	fetcher      interfaces.Fetcher
	orchestrator *ocr.Orchestrator
	cleaner      *refine.Cleaner
	gate         *refine.Gate
	extractor    *concepts.Extractor
	logger       arbor.ILogger
}

var _ interfaces.PipelineService = (*Service)(nil)

// NewService wires the pipeline stages together.
func NewService(
	fetcher interfaces.Fetcher,
	orchestrator *ocr.Orchestrator,
	cleaner *refine.Cleaner,
	gate *refine.Gate,
	extractor *concepts.Extractor,
	logger arbor.ILogger,
) *Service {
	return &Service{
		fetcher:      fetcher,
		orchestrator: orchestrator,
		cleaner:      cleaner,
		gate:         gate,
		extractor:    extractor,
		logger:       logger,
	}
}

// Process runs the full pipeline for one validated request.
func (s *Service) Process(ctx context.Context, req models.OCRRequest) (*models.PipelineResult, error) {
	docType, err := models.ParseDocumentType(req.FileType)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("file_type", string(docType)).
		Str("file_url", req.FileURL).
		Msg("Pipeline started")

	data, err := s.fetcher.Fetch(ctx, req.FileURL)
	if err != nil {
		return nil, fmt.Errorf("document fetch failed: %w", err)
	}

	_, rawText, err := s.orchestrator.ExtractDocument(ctx, models.SourceDocument{
		Bytes: data,
		Type:  docType,
	})
	if err != nil {
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}

	cleanedText := s.cleaner.Clean(rawText)

	refinement := s.gate.Refine(ctx, cleanedText)
	if !refinement.Accepted {
		s.logger.Info().
			Str("rejection_reason", string(refinement.RejectionReason)).
			Msg("Refinement fell back to cleaned text")
	}

	conceptList := s.extractor.Extract(refinement.Text)

	s.logger.Info().
		Int("raw_chars", len(rawText)).
		Int("cleaned_chars", len(cleanedText)).
		Int("refined_chars", len(refinement.Text)).
		Bool("refinement_accepted", refinement.Accepted).
		Int("concepts", len(conceptList)).
		Msg("Pipeline complete")

	return &models.PipelineResult{
		RawText:     rawText,
		CleanedText: cleanedText,
		LLMText:     refinement.Text,
		Concepts:    conceptList,
	}, nil
}
