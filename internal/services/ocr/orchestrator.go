package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/lector/internal/common"
	"github.com/ternarybob/lector/internal/interfaces"
	"github.com/ternarybob/lector/internal/models"
)

// Orchestrator drives the normalizer and an OCR engine across the pages of a
// source document, producing ordered page texts and one concatenated raw
// text with explicit page markers.
type Orchestrator struct {
	normalizer  *Normalizer
	engine      interfaces.OCREngine
	rasterizer  interfaces.Rasterizer
	dpi         int
	timeout     time.Duration
	concurrency int
	logger      arbor.ILogger
}

// NewOrchestrator wires the page pipeline from its capabilities.
func NewOrchestrator(
	cfg common.OCRConfig,
	normalizer *Normalizer,
	engine interfaces.OCREngine,
	rasterizer interfaces.Rasterizer,
	logger arbor.ILogger,
) *Orchestrator {
	concurrency := cfg.PageConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		normalizer:  normalizer,
		engine:      engine,
		rasterizer:  rasterizer,
		dpi:         cfg.DPI,
		timeout:     cfg.EngineTimeout,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ExtractDocument turns a source document into ordered PageText entries and a
// concatenated raw text. Pages are concatenated strictly by ascending index;
// empty pages keep their slot so provenance survives.
func (o *Orchestrator) ExtractDocument(ctx context.Context, doc models.SourceDocument) ([]models.PageText, string, error) {
	pages, err := o.collectPages(ctx, doc)
	if err != nil {
		return nil, "", err
	}

	results := make([]models.PageText, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for _, page := range pages {
		g.Go(func() error {
			text, err := o.recognizePage(gctx, page)
			if err != nil {
				return fmt.Errorf("page %d: %w", page.Index, err)
			}
			results[page.Index] = models.PageText{PageIndex: page.Index, Text: text}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	var builder strings.Builder
	for _, pt := range results {
		builder.WriteString(fmt.Sprintf("\n\n--- Page %d ---\n", pt.PageIndex+1))
		builder.WriteString(pt.Text)
	}

	o.logger.Info().
		Str("type", string(doc.Type)).
		Int("pages", len(results)).
		Int("raw_chars", builder.Len()).
		Msg("Document text extracted")

	return results, builder.String(), nil
}

// collectPages materializes the page list: one page for an image, one per
// rasterized page for a PDF. The declared type is validated before any I/O.
func (o *Orchestrator) collectPages(ctx context.Context, doc models.SourceDocument) ([]models.Page, error) {
	switch doc.Type {
	case models.DocumentTypeImage:
		return []models.Page{{Index: 0, ImageData: doc.Bytes}}, nil

	case models.DocumentTypePDF:
		images, err := o.rasterizer.Rasterize(ctx, doc.Bytes, o.dpi)
		if err != nil {
			return nil, err
		}
		pages := make([]models.Page, len(images))
		for i, data := range images {
			pages[i] = models.Page{Index: i, ImageData: data}
		}
		return pages, nil

	default:
		return nil, models.NewInputError(fmt.Sprintf("unsupported fileType '%s': use pdf or image", doc.Type))
	}
}

// recognizePage decodes, normalizes and recognizes a single page under the
// engine timeout. Block segmentation suits prose and notes.
func (o *Orchestrator) recognizePage(ctx context.Context, page models.Page) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(page.ImageData))
	if err != nil {
		return "", models.NewDecodeError("unreadable page image", err)
	}

	normalized := o.normalizer.Normalize(img)

	recognizeCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		recognizeCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	return o.engine.Recognize(recognizeCtx, normalized, interfaces.SegmentationBlock)
}
