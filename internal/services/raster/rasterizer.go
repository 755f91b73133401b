package raster

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lector/internal/interfaces"
	"github.com/ternarybob/lector/internal/models"
)

// PopplerRasterizer renders PDF pages to PNG images by shelling out to
// pdftoppm. pdfcpu validates the document and supplies the expected page
// count so short renders are caught instead of silently dropping pages.
type PopplerRasterizer struct {
	pdftoppmPath string
	tempDir      string
	logger       arbor.ILogger
}

var _ interfaces.Rasterizer = (*PopplerRasterizer)(nil)

// NewPopplerRasterizer creates a rasterizer using the pdftoppm binary on PATH.
func NewPopplerRasterizer(logger arbor.ILogger) *PopplerRasterizer {
	tempDir := filepath.Join(os.TempDir(), "lector-raster")
	os.MkdirAll(tempDir, 0755)

	return &PopplerRasterizer{
		pdftoppmPath: "pdftoppm",
		tempDir:      tempDir,
		logger:       logger,
	}
}

// Rasterize converts every page of pdfBytes into an encoded PNG at the given
// DPI, in ascending page order. Unreadable PDF bytes surface as DecodeError.
func (r *PopplerRasterizer) Rasterize(ctx context.Context, pdfBytes []byte, dpi int) ([][]byte, error) {
	if len(pdfBytes) == 0 {
		return nil, models.NewDecodeError("empty PDF payload", nil)
	}

	workDir, err := os.MkdirTemp(r.tempDir, "pages_*")
	if err != nil {
		return nil, fmt.Errorf("failed to create raster work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	pdfFile := filepath.Join(workDir, "source.pdf")
	if err := os.WriteFile(pdfFile, pdfBytes, 0644); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF file: %w", err)
	}

	pageCount, err := api.PageCountFile(pdfFile)
	if err != nil {
		return nil, models.NewDecodeError("unreadable PDF document", err)
	}
	if pageCount == 0 {
		return nil, models.NewDecodeError("PDF document has no pages", nil)
	}

	outPrefix := filepath.Join(workDir, "page")
	cmd := exec.CommandContext(ctx, r.pdftoppmPath,
		"-png",
		"-r", fmt.Sprintf("%d", dpi),
		pdfFile,
		outPrefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, models.NewDecodeError(fmt.Sprintf("pdftoppm failed: %s", string(out)), err)
	}

	rendered, err := filepath.Glob(outPrefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(rendered)

	if len(rendered) != pageCount {
		return nil, models.NewDecodeError(
			fmt.Sprintf("rendered %d pages, expected %d", len(rendered), pageCount), nil)
	}

	pages := make([][]byte, 0, len(rendered))
	for _, path := range rendered {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read rendered page %s: %w", path, err)
		}
		pages = append(pages, data)
	}

	r.logger.Debug().
		Int("pages", len(pages)).
		Int("dpi", dpi).
		Msg("PDF rasterized")

	return pages, nil
}
