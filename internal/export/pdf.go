package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/go-pdf/fpdf"

	apperrors "github.com/dygy/transcription-studio/internal/errors"
	"github.com/dygy/transcription-studio/internal/render"
)

const (
	// PageWidth and PageHeight are the A4 geometry in millimetres used to
	// lay out a rasterized view. PageHeight is the pagination step.
	PageWidth  = 210.0
	PageHeight = 295.0

	// absorbs float error when the image is an exact multiple of a page
	pageEpsilon = 1e-6
)

// ExportPDF rasterizes the region with the given id and delivers it as
// "<filename>.pdf". Failures are logged and reported as false; nothing is
// delivered in that case.
func ExportPDF(ctx context.Context, regions render.Resolver, regionID, filename string, sink Sink) bool {
	log := slog.With(slog.String("region", regionID), slog.String("filename", filename))

	data, pages, err := renderRegionPDF(regions, regionID)
	if err != nil {
		log.ErrorContext(ctx, "pdf export failed", slog.Any("error", err))
		return false
	}
	if err := ctx.Err(); err != nil {
		log.ErrorContext(ctx, "pdf export canceled", slog.Any("error", err))
		return false
	}
	if err := sink.Deliver(data, filename+".pdf", "application/pdf"); err != nil {
		log.ErrorContext(ctx, "pdf delivery failed", slog.Any("error", err))
		return false
	}

	log.InfoContext(ctx, "pdf exported", slog.Int("pages", pages), slog.Int("bytes", len(data)))
	return true
}

func renderRegionPDF(regions render.Resolver, regionID string) ([]byte, int, error) {
	region, ok := regions.Resolve(regionID)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", apperrors.ErrElementNotFound, regionID)
	}

	img, err := region.Rasterize(render.ExportScale)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", apperrors.ErrRasterization, err)
	}
	return RenderPDF(img)
}

// RenderPDF lays the image out at full page width over as many A4 pages as
// its height needs. It returns the document and its page count.
func RenderPDF(img image.Image) ([]byte, int, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, 0, fmt.Errorf("%w: empty image", apperrors.ErrRasterization)
	}

	var png bytes.Buffer
	if err := render.EncodePNG(&png, img); err != nil {
		return nil, 0, err
	}

	imgHeight := float64(b.Dy()) * PageWidth / float64(b.Dx())
	offsets := Paginate(imgHeight, PageHeight)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	opts := fpdf.ImageOptions{ImageType: "PNG", AllowNegativePosition: true}
	pdf.RegisterImageOptionsReader("view", opts, &png)

	for _, y := range offsets {
		pdf.AddPage()
		pdf.ImageOptions("view", 0, y, PageWidth, imgHeight, false, opts, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, 0, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), pdf.PageCount(), nil
}

// Paginate returns the vertical offset of the image on each page. The
// first page shows the top of the image; each further page shifts it up by
// one page height. A page is added only while image height remains.
func Paginate(imgHeight, pageHeight float64) []float64 {
	offsets := []float64{0}
	if pageHeight <= 0 {
		return offsets
	}
	left := imgHeight - pageHeight
	for left > pageEpsilon {
		offsets = append(offsets, left-imgHeight)
		left -= pageHeight
	}
	return offsets
}
