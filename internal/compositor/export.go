package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/golang/freetype/truetype"
	"github.com/timmy/devmeme/internal/logger"
)

// DefaultFileName is used when an export is requested without a name.
const DefaultFileName = "dev-meme.png"

// Download is an encoded export ready to be saved by the client.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

// DataURL returns the PNG as a data: reference.
func (d *Download) DataURL() string {
	return DataURL(d.ContentType, d.Data)
}

// Exporter renders memes onto throwaway canvases and encodes them as PNG.
type Exporter struct {
	compositor *Compositor
	font       *truetype.Font
}

// NewExporter creates an Exporter drawing captions with f.
func NewExporter(c *Compositor, f *truetype.Font) *Exporter {
	return &Exporter{compositor: c, font: f}
}

// Export renders the meme at the source image's resolution and encodes it.
// Every failure is reported as ErrExportFailed wrapping the cause.
func (e *Exporter) Export(ctx context.Context, imageSource, topText, bottomText, filename string) (*Download, error) {
	if filename == "" {
		filename = DefaultFileName
	}

	canvas := NewImageCanvas(e.font)
	if err := e.compositor.Render(ctx, canvas, imageSource, topText, bottomText); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	img := canvas.Image()
	if img == nil {
		return nil, fmt.Errorf("%w: canvas is empty", ErrExportFailed)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: failed to encode PNG: %w", ErrExportFailed, err)
	}

	b := img.Bounds()
	logger.With(logger.Fields{
		logger.FieldSize: buf.Len(),
	}).Info(ctx, "Meme exported: filename=%s, width=%d, height=%d", filename, b.Dx(), b.Dy())

	return &Download{
		Filename:    filename,
		ContentType: "image/png",
		Data:        buf.Bytes(),
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}
