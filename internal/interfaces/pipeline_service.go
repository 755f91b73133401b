package interfaces

import (
	"context"

	"github.com/ternarybob/lector/internal/models"
)

// PipelineService runs the full ingestion and refinement pipeline for one
// inbound request: fetch, OCR, deterministic cleanup, gated external
// refinement, concept extraction.
type PipelineService interface {
	Process(ctx context.Context, req models.OCRRequest) (*models.PipelineResult, error)
}
