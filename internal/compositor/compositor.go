// Package compositor draws meme captions over a source image and exports
// the result as PNG.
package compositor

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/timmy/devmeme/internal/logger"
	"github.com/timmy/devmeme/internal/textlayout"
)

// ImageLoader resolves an image reference to a decoded bitmap. Each call
// produces exactly one result: a bitmap or an error.
type ImageLoader interface {
	Load(ctx context.Context, src string) (image.Image, error)
}

// Compositor renders captioned memes onto canvases.
type Compositor struct {
	loader ImageLoader
}

// New creates a Compositor that loads source images through loader.
func New(loader ImageLoader) *Compositor {
	return &Compositor{loader: loader}
}

// Render draws imageSource onto canvas at its native size and overlays the
// two captions. The canvas is only complete when Render returns nil; a
// failure to get the surface or load the image ends the call.
func (c *Compositor) Render(ctx context.Context, canvas Canvas, imageSource, topText, bottomText string) error {
	start := time.Now()

	surface, err := canvas.Context2D()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}

	img, err := c.loader.Load(ctx, imageSource)
	if err != nil {
		return &ImageLoadError{Source: imageSource, Err: err}
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	surface.Resize(width, height)
	surface.DrawImage(img)

	m := MetricsFor(height)
	if err := surface.SetFontSize(m.FontSize); err != nil {
		return fmt.Errorf("failed to set caption font: %w", err)
	}
	surface.SetStyle(CaptionStyle(m))

	maxWidth := float64(width) * 0.9
	centerX := float64(width) / 2

	top := textlayout.Wrap(topText, maxWidth, surface.MeasureText)
	drawBlock(surface, top, centerX, m.FontSize*0.5, m.FontSize, BaselineTop)

	bottom := textlayout.Wrap(bottomText, maxWidth, surface.MeasureText)
	drawBlock(surface, bottom, centerX, float64(height)-m.FontSize*0.5, m.FontSize, BaselineBottom)

	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		"width":                width,
		"height":               height,
		"top_lines":            len(top),
		"bottom_lines":         len(bottom),
	}).Debug(ctx, "Meme rendered")

	return nil
}

// drawBlock strokes then fills each line. Top-anchored blocks run downward
// from y; bottom-anchored blocks are reversed and run upward, so the last
// wrapped line lands on y.
func drawBlock(s Surface, lines []string, x, y, lineHeight float64, baseline Baseline) {
	step := lineHeight
	if baseline == BaselineBottom {
		lines = reversed(lines)
		step = -lineHeight
	}
	for i, line := range lines {
		lineY := y + float64(i)*step
		s.StrokeText(line, x, lineY, baseline)
		s.FillText(line, x, lineY, baseline)
	}
}

func reversed(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[len(lines)-1-i] = l
	}
	return out
}
