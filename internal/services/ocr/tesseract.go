package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lector/internal/common"
	"github.com/ternarybob/lector/internal/interfaces"
)

// TesseractEngine implements the OCREngine contract using the gosseract
// client. A fresh client per call keeps recognition state from leaking
// between pages.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
	languages     []string
	logger        arbor.ILogger
}

var _ interfaces.OCREngine = (*TesseractEngine)(nil)

// NewTesseractEngine constructs a Tesseract-backed OCR engine.
func NewTesseractEngine(cfg common.OCRConfig, logger arbor.ILogger) *TesseractEngine {
	languages := cfg.Languages
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractEngine{
		clientFactory: gosseract.NewClient,
		languages:     languages,
		logger:        logger,
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize performs OCR on a single normalized page image.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image, mode interfaces.SegmentationMode) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode page image: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if err := c.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}

	psm := gosseract.PSM_AUTO
	if mode == interfaces.SegmentationBlock {
		psm = gosseract.PSM_SINGLE_BLOCK
	}
	if err := c.SetPageSegMode(psm); err != nil {
		return "", fmt.Errorf("set segmentation mode: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	e.logger.Debug().
		Str("engine", e.Name()).
		Int("chars", len(text)).
		Msg("Page recognized")

	return text, nil
}
