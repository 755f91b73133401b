package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/lector/internal/common"
	"github.com/ternarybob/lector/internal/interfaces"
	"github.com/ternarybob/lector/internal/models"
)

type fakeEngine struct {
	recognizeFunc func(ctx context.Context, img image.Image, mode interfaces.SegmentationMode) (string, error)
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, img image.Image, mode interfaces.SegmentationMode) (string, error) {
	return f.recognizeFunc(ctx, img, mode)
}

type fakeRasterizer struct {
	pages [][]byte
	err   error
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _ []byte, _ int) ([][]byte, error) {
	return f.pages, f.err
}

// pagePNG encodes a tiny white page whose width carries the page number, a
// property the normalization chain preserves at scale factor 1 (the 2% crop
// rounds to zero at this size), so the fake engine can tell pages apart.
func pagePNG(t *testing.T, marker int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 40+marker, 40))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestOrchestrator(engine interfaces.OCREngine, rasterizer interfaces.Rasterizer) *Orchestrator {
	cfg := common.OCRConfig{DPI: 300, ScaleFactor: 1, PageConcurrency: 2}
	return NewOrchestrator(cfg, NewNormalizer(cfg), engine, rasterizer, arbor.NewLogger())
}

func TestOrchestrator_PageOrderingWithEmptyPage(t *testing.T) {
	rasterizer := &fakeRasterizer{pages: [][]byte{
		pagePNG(t, 1),
		pagePNG(t, 2),
		pagePNG(t, 3),
	}}

	var calls atomic.Int32
	engine := &fakeEngine{
		recognizeFunc: func(_ context.Context, img image.Image, _ interfaces.SegmentationMode) (string, error) {
			calls.Add(1)
			marker := img.Bounds().Dx() - 40
			if marker == 2 {
				return "", nil // page 2 yields no text
			}
			return fmt.Sprintf("text of page %d", marker), nil
		},
	}

	o := newTestOrchestrator(engine, rasterizer)

	pages, rawText, err := o.ExtractDocument(context.Background(), models.SourceDocument{
		Bytes: []byte("%PDF-fake"),
		Type:  models.DocumentTypePDF,
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, pages, 3)
	for i, pt := range pages {
		assert.Equal(t, i, pt.PageIndex)
	}
	assert.Empty(t, pages[1].Text)

	// markers ascend even though page 2 contributed nothing
	p1 := strings.Index(rawText, "--- Page 1 ---")
	p2 := strings.Index(rawText, "--- Page 2 ---")
	p3 := strings.Index(rawText, "--- Page 3 ---")
	assert.True(t, p1 >= 0 && p2 > p1 && p3 > p2, "page markers out of order in %q", rawText)
}

func TestOrchestrator_ImageIsSinglePage(t *testing.T) {
	engine := &fakeEngine{
		recognizeFunc: func(_ context.Context, _ image.Image, mode interfaces.SegmentationMode) (string, error) {
			assert.Equal(t, interfaces.SegmentationBlock, mode)
			return "single page text", nil
		},
	}
	o := newTestOrchestrator(engine, &fakeRasterizer{})

	pages, rawText, err := o.ExtractDocument(context.Background(), models.SourceDocument{
		Bytes: pagePNG(t, 1),
		Type:  models.DocumentTypeImage,
	})

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, rawText, "--- Page 1 ---")
	assert.Contains(t, rawText, "single page text")
}

func TestOrchestrator_UnsupportedTypeIsInputError(t *testing.T) {
	o := newTestOrchestrator(&fakeEngine{}, &fakeRasterizer{})

	_, _, err := o.ExtractDocument(context.Background(), models.SourceDocument{
		Bytes: []byte("data"),
		Type:  models.DocumentType("docx"),
	})

	assert.True(t, models.IsInputError(err))
}

func TestOrchestrator_UndecodableImageIsDecodeError(t *testing.T) {
	o := newTestOrchestrator(&fakeEngine{}, &fakeRasterizer{})

	_, _, err := o.ExtractDocument(context.Background(), models.SourceDocument{
		Bytes: []byte("not an image"),
		Type:  models.DocumentTypeImage,
	})

	assert.True(t, models.IsDecodeError(err))
}
