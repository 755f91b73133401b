package ocr

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/lector/internal/common"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(common.OCRConfig{ScaleFactor: 2})
}

// syntheticPage draws horizontal dark text-like bars on a light page.
func syntheticPage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 235})
		}
	}
	// bar rows every 20px, 6px tall, inset from the edges
	for y := 20; y < h-20; y += 20 {
		for dy := 0; dy < 6; dy++ {
			for x := 15; x < w-15; x++ {
				img.SetGray(x, y+dy, color.Gray{Y: 20})
			}
		}
	}
	return img
}

func TestNormalizer_OutputDimensions(t *testing.T) {
	n := testNormalizer()
	src := syntheticPage(100, 80)

	out := n.Normalize(src)

	// 2x upscale then 2% border crop per side
	wantW := 200 - 2*int(200*borderMargin)
	wantH := 160 - 2*int(160*borderMargin)
	assert.Equal(t, wantW, out.Bounds().Dx())
	assert.Equal(t, wantH, out.Bounds().Dy())
}

func TestNormalizer_Binarizes(t *testing.T) {
	n := testNormalizer()

	out := n.Normalize(syntheticPage(100, 80))

	for _, v := range out.Pix {
		assert.True(t, v == 0 || v == 255, "expected binary pixel values, got %d", v)
	}
}

func TestNormalizer_InvertsDarkBackground(t *testing.T) {
	n := testNormalizer()

	// light text on a dark page
	img := image.NewGray(image.Rect(0, 0, 100, 80))
	for i := range img.Pix {
		img.Pix[i] = 30
	}
	for y := 20; y < 60; y += 20 {
		for dy := 0; dy < 6; dy++ {
			for x := 15; x < 85; x++ {
				img.SetGray(x, y+dy, color.Gray{Y: 230})
			}
		}
	}

	out := n.Normalize(img)

	// after polarity normalization the background must be light
	var white, black int
	for _, v := range out.Pix {
		if v == 255 {
			white++
		} else {
			black++
		}
	}
	assert.Greater(t, white, black, "background should dominate as white after inversion")
}

func TestNormalizer_DeskewIdempotent(t *testing.T) {
	n := testNormalizer()

	first := n.Normalize(syntheticPage(200, 160))

	angle, ok := estimateSkew(first)
	if ok {
		assert.LessOrEqual(t, math.Abs(angle), 1.0,
			"already upright output must not report further rotation, got %f", angle)
	}
}

func TestEstimateSkew_SparseImageSkipped(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 50, 50))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(25, 25, color.Gray{Y: 0})

	_, ok := estimateSkew(img)

	assert.False(t, ok, "images with almost no foreground must skip deskew")
}

func TestCropBorder_TinyImageUntouched(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 3))

	out := cropBorder(img, borderMargin)

	assert.Equal(t, img.Bounds(), out.Bounds())
}
