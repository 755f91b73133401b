package interfaces

import "context"

// Rasterizer converts a PDF into one encoded page image per page, in document
// order. Resolution is fixed by the caller; OCR accuracy degrades sharply
// below a DPI floor regardless of document size.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfBytes []byte, dpi int) ([][]byte, error)
}
