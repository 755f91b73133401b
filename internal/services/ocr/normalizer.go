package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"

	xdraw "golang.org/x/image/draw"

	"github.com/ternarybob/lector/internal/common"
)

// Normalization constants. These are glyph-recognition tuning values, not
// user-facing settings.
const (
	polarityThreshold = 127  // Mean intensity below this means dark background
	adaptiveBlock     = 31   // Local threshold neighborhood (odd)
	adaptiveOffset    = 10   // Subtracted from local mean before thresholding
	minForeground     = 1000 // Fewer foreground pixels than this skips deskew
	borderMargin      = 0.02 // Fraction trimmed from each side
	skewTolerance     = 0.1  // Degrees below which rotation is skipped
)

// Normalizer prepares a raw page image for OCR: alpha flattening, grayscale
// upscale, polarity normalization, denoise, adaptive binarization,
// morphological cleanup, deskew and border crop. Every step is a pure
// function of its input; the chain never fails on decodable pixels.
type Normalizer struct {
	scaleFactor int
}

// NewNormalizer creates a normalizer from OCR configuration.
func NewNormalizer(cfg common.OCRConfig) *Normalizer {
	scale := cfg.ScaleFactor
	if scale < 1 {
		scale = 2
	}
	return &Normalizer{scaleFactor: scale}
}

// Normalize runs the full transform chain and returns a binarized, deskewed,
// upscaled grayscale image optimized for glyph recognition.
func (n *Normalizer) Normalize(src image.Image) *image.Gray {
	flat := flattenAlpha(src)
	gray := toGray(flat)
	gray = upscale(gray, n.scaleFactor)

	// Undersized scans are the dominant OCR failure mode; invert dark
	// backgrounds so text is consistently dark-on-light.
	if meanIntensity(gray) < polarityThreshold {
		gray = invert(gray)
	}

	gray = gaussianBlur3(gray)
	bin := adaptiveThreshold(gray, adaptiveBlock, adaptiveOffset)
	bin = erode2x2(bin)
	bin = dilate2x2(bin) // open: remove isolated speckles
	bin = dilate2x2(bin)
	bin = erode2x2(bin) // close: reconnect broken strokes

	if angle, ok := estimateSkew(bin); ok && math.Abs(angle) > skewTolerance {
		bin = rotateAboutCenter(bin, -angle)
	}

	return cropBorder(bin, borderMargin)
}

// flattenAlpha composites any transparency onto a white background so the
// result is always opaque.
func flattenAlpha(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func toGray(src *image.RGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, color.GrayModel.Convert(src.At(x, y)))
		}
	}
	return dst
}

// upscale resizes by an integer factor with Catmull-Rom interpolation, the
// cubic-quality kernel in x/image.
func upscale(src *image.Gray, factor int) *image.Gray {
	if factor == 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

func meanIntensity(img *image.Gray) float64 {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 255
	}
	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride : (y-b.Min.Y)*img.Stride+b.Dx()]
		for _, v := range row {
			sum += uint64(v)
		}
	}
	return float64(sum) / float64(total)
}

func invert(img *image.Gray) *image.Gray {
	dst := image.NewGray(img.Bounds())
	for i, v := range img.Pix {
		dst.Pix[i] = 255 - v
	}
	return dst
}

// gaussianBlur3 applies a 3x3 Gaussian kernel with edge replication. Run
// before thresholding so sensor noise is not binarized into glyph fragments.
func gaussianBlur3(img *image.Gray) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	kernel := [3][3]int{{1, 2, 1}, {2, 4, 2}, {1, 2, 1}}

	at := func(x, y int) int {
		if x < 0 {
			x = 0
		}
		if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= h {
			y = h - 1
		}
		return int(img.Pix[y*img.Stride+x])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					sum += kernel[ky+1][kx+1] * at(x+kx, y+ky)
				}
			}
			dst.Pix[y*dst.Stride+x] = uint8(sum / 16)
		}
	}
	return dst
}

// adaptiveThreshold binarizes using the mean of a block-sized local
// neighborhood minus offset as the per-pixel cutoff. Local thresholds handle
// the uneven lighting of photographed pages where a global cutoff cannot.
func adaptiveThreshold(img *image.Gray, block, offset int) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	// Summed-area table with a one-cell border of zeros.
	integral := make([]uint64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(img.Pix[y*img.Stride+x])
			integral[(y+1)*(w+1)+(x+1)] = integral[y*(w+1)+(x+1)] + rowSum
		}
	}

	half := block / 2
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-half), min(h-1, y+half)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-half), min(w-1, x+half)
			count := uint64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[(y1+1)*(w+1)+(x1+1)] -
				integral[y0*(w+1)+(x1+1)] -
				integral[(y1+1)*(w+1)+x0] +
				integral[y0*(w+1)+x0]
			mean := sum / count
			if uint64(img.Pix[y*img.Stride+x])+uint64(offset) > mean {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

// erode2x2 and dilate2x2 use a 2x2 structuring element anchored top-left,
// small enough to clean speckles without thickening text materially.

func erode2x2(img *image.Gray) *image.Gray {
	return morph2x2(img, func(a, b, c, d uint8) uint8 { return min(a, b, c, d) })
}

func dilate2x2(img *image.Gray) *image.Gray {
	return morph2x2(img, func(a, b, c, d uint8) uint8 { return max(a, b, c, d) })
}

func morph2x2(img *image.Gray, combine func(a, b, c, d uint8) uint8) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	at := func(x, y int) uint8 {
		if x >= w {
			x = w - 1
		}
		if y >= h {
			y = h - 1
		}
		return img.Pix[y*img.Stride+x]
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Pix[y*dst.Stride+x] = combine(at(x, y), at(x+1, y), at(x, y+1), at(x+1, y+1))
		}
	}
	return dst
}

type point struct{ x, y int }

// estimateSkew computes the rotation of the minimum-area bounding rectangle
// of the foreground (dark) pixels, normalized to (-45, 45]. Near-blank pages
// report no skew so noise cannot drive a false rotation.
func estimateSkew(img *image.Gray) (float64, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var pts []point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.Pix[y*img.Stride+x] < 255 {
				pts = append(pts, point{x, y})
			}
		}
	}
	if len(pts) <= minForeground {
		return 0, false
	}

	angle := minAreaRectAngle(pts)
	// Fold into (-45, 45] so lines of text are corrected toward horizontal
	// rather than rotated a quarter turn.
	if angle > 45 {
		angle -= 90
	}
	return angle, true
}

// minAreaRectAngle returns the angle in degrees, in [0, 90), of the long edge
// of the minimum-area rectangle enclosing pts (convex hull plus rotating
// calipers over hull edges).
func minAreaRectAngle(pts []point) float64 {
	hull := convexHull(pts)
	if len(hull) < 3 {
		return 0
	}

	bestArea := math.Inf(1)
	bestAngle := 0.0
	for i := 0; i < len(hull); i++ {
		p := hull[i]
		q := hull[(i+1)%len(hull)]
		theta := math.Atan2(float64(q.y-p.y), float64(q.x-p.x))
		cos, sin := math.Cos(theta), math.Sin(theta)

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, v := range hull {
			u := cos*float64(v.x) + sin*float64(v.y)
			vv := -sin*float64(v.x) + cos*float64(v.y)
			minU = math.Min(minU, u)
			maxU = math.Max(maxU, u)
			minV = math.Min(minV, vv)
			maxV = math.Max(maxV, vv)
		}

		area := (maxU - minU) * (maxV - minV)
		if area < bestArea {
			bestArea = area
			deg := theta * 180 / math.Pi
			// Edge direction is symmetric; fold into [0, 90).
			deg = math.Mod(deg, 90)
			if deg < 0 {
				deg += 90
			}
			bestAngle = deg
		}
	}
	return bestAngle
}

// convexHull computes the convex hull with Andrew's monotone chain.
func convexHull(pts []point) []point {
	if len(pts) < 3 {
		return pts
	}
	sorted := make([]point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].x != sorted[j].x {
			return sorted[i].x < sorted[j].x
		}
		return sorted[i].y < sorted[j].y
	})

	cross := func(o, a, b point) int {
		return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
	}

	var lower []point
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []point
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// rotateAboutCenter rotates the image by deg degrees about its center using
// inverse mapping with edge-replicated sampling, so corners uncovered by the
// rotation take the nearest page color instead of black wedges.
func rotateAboutCenter(img *image.Gray, deg float64) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	cx, cy := float64(w)/2, float64(h)/2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Inverse rotation of the destination coordinate.
			dx, dy := float64(x)-cx, float64(y)-cy
			sx := cos*dx + sin*dy + cx
			sy := -sin*dx + cos*dy + cy

			ix := int(math.Round(sx))
			iy := int(math.Round(sy))
			if ix < 0 {
				ix = 0
			}
			if ix >= w {
				ix = w - 1
			}
			if iy < 0 {
				iy = 0
			}
			if iy >= h {
				iy = h - 1
			}
			dst.Pix[y*dst.Stride+x] = img.Pix[iy*img.Stride+ix]
		}
	}
	return dst
}

// cropBorder trims a fixed margin from each side to drop scanner-edge
// artifacts.
func cropBorder(img *image.Gray, margin float64) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	mx := int(float64(w) * margin)
	my := int(float64(h) * margin)
	if w-2*mx < 1 || h-2*my < 1 {
		return img
	}

	dst := image.NewGray(image.Rect(0, 0, w-2*mx, h-2*my))
	for y := 0; y < h-2*my; y++ {
		src := img.Pix[(y+my)*img.Stride+mx : (y+my)*img.Stride+mx+w-2*mx]
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+w-2*mx], src)
	}
	return dst
}
