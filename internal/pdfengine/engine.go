// Package pdfengine wraps the PDF library behind the small surface the
// signing workflow needs: page geometry and image stamping.
package pdfengine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"

	_ "image/jpeg"
	_ "image/png"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/signdrop/internal/geometry"
)

var (
	ErrMalformedDocument = errors.New("malformed PDF document")
	ErrUnsupportedImage  = errors.New("unsupported signature image")
	ErrPageOutOfRange    = errors.New("page index out of range")
)

// Engine is the rendering gateway. Implementations must be safe for
// concurrent use; all inputs and outputs are byte slices so callers
// never share mutable engine state.
type Engine interface {
	PageCount(ctx context.Context, pdf []byte) (int, error)
	PageHeight(ctx context.Context, pdf []byte, pageIndex int) (float64, error)
	// Stamp draws the image onto the given page with the box's
	// bottom-left corner at (box.X, box.Y) in PDF user space, scaled to
	// the box width, and returns the serialized result.
	Stamp(ctx context.Context, pdf, img []byte, pageIndex int, box geometry.Box) ([]byte, error)
}

// PdfcpuEngine implements Engine with pdfcpu.
type PdfcpuEngine struct {
	conf *model.Configuration
}

func NewPdfcpuEngine() *PdfcpuEngine {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PdfcpuEngine{conf: conf}
}

func (e *PdfcpuEngine) readContext(pdf []byte) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(pdf), e.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return ctx, nil
}

func (e *PdfcpuEngine) PageCount(ctx context.Context, pdf []byte) (int, error) {
	pdfCtx, err := e.readContext(pdf)
	if err != nil {
		return 0, err
	}
	return pdfCtx.PageCount, nil
}

func (e *PdfcpuEngine) PageHeight(ctx context.Context, pdf []byte, pageIndex int) (float64, error) {
	pdfCtx, err := e.readContext(pdf)
	if err != nil {
		return 0, err
	}
	if pageIndex < 0 || pageIndex >= pdfCtx.PageCount {
		return 0, ErrPageOutOfRange
	}
	dims, err := pdfCtx.PageDims()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return dims[pageIndex].Height, nil
}

func (e *PdfcpuEngine) Stamp(ctx context.Context, pdf, img []byte, pageIndex int, box geometry.Box) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || box.Width <= 0 {
		return nil, ErrUnsupportedImage
	}

	// pdfcpu renders an image watermark at one point per pixel when the
	// absolute scale factor is 1, so scaling to the placement width is a
	// plain ratio. Aspect ratio is preserved; the box anchors the stamp.
	scale := box.Width / float64(cfg.Width)
	desc := fmt.Sprintf("pos:bl, scale:%.4f abs, rot:0, op:1", scale)

	wm, err := api.ImageWatermarkForReader(bytes.NewReader(img), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	wm.Dx = box.X
	wm.Dy = box.Y

	var out bytes.Buffer
	pages := []string{strconv.Itoa(pageIndex + 1)}
	if err := api.AddWatermarks(bytes.NewReader(pdf), &out, pages, wm, e.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return out.Bytes(), nil
}
