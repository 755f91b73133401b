package interfaces

import (
	"context"
	"image"
)

// SegmentationMode selects the page layout analysis the OCR engine applies.
type SegmentationMode string

const (
	// SegmentationAuto lets the engine detect layout on its own.
	SegmentationAuto SegmentationMode = "auto"
	// SegmentationBlock treats the page as a single uniform block of text.
	// Source material here is prose and lecture notes, not forms, so
	// line/block segmentation beats single-word mode.
	SegmentationBlock SegmentationMode = "block"
)

// OCREngine recognizes text in a normalized page image. Implementations wrap
// an external engine (Tesseract in production, a deterministic fake in tests)
// behind this narrow contract so the pipeline never sees a vendor SDK shape.
type OCREngine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image, mode SegmentationMode) (string, error)
}
