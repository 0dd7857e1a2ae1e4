package compositor

import (
	"errors"
	"image"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// ImageCanvas is an off-screen raster canvas. It is its own Surface.
type ImageCanvas struct {
	font  *truetype.Font
	dc    *gg.Context
	face  font.Face
	style TextStyle
}

// NewImageCanvas creates an empty canvas that draws captions with f.
func NewImageCanvas(f *truetype.Font) *ImageCanvas {
	return &ImageCanvas{font: f}
}

// Context2D returns the canvas itself. It fails when no font was supplied,
// since captions could not be drawn.
func (c *ImageCanvas) Context2D() (Surface, error) {
	if c.font == nil {
		return nil, errors.New("no caption font loaded")
	}
	return c, nil
}

// Image returns the pixel buffer, or nil before the first Resize.
func (c *ImageCanvas) Image() image.Image {
	if c.dc == nil {
		return nil
	}
	return c.dc.Image()
}

func (c *ImageCanvas) Resize(width, height int) {
	c.dc = gg.NewContext(width, height)
	if c.face != nil {
		c.dc.SetFontFace(c.face)
	}
}

func (c *ImageCanvas) DrawImage(img image.Image) {
	if c.dc == nil {
		return
	}
	dst, ok := c.dc.Image().(draw.Image)
	if !ok {
		c.dc.DrawImage(img, 0, 0)
		return
	}
	draw.Copy(dst, image.Point{}, img, img.Bounds(), draw.Src, nil)
}

// SetFontSize selects the caption face. A size of zero leaves the canvas
// without a face, so captions measure and draw as nothing.
func (c *ImageCanvas) SetFontSize(px float64) error {
	if px < 0 {
		return errors.New("font size must not be negative")
	}
	if px == 0 {
		c.face = nil
		return nil
	}
	c.face = truetype.NewFace(c.font, &truetype.Options{
		Size:    px,
		Hinting: font.HintingFull,
	})
	if c.dc != nil {
		c.dc.SetFontFace(c.face)
	}
	return nil
}

func (c *ImageCanvas) SetStyle(style TextStyle) {
	c.style = style
}

func (c *ImageCanvas) MeasureText(s string) float64 {
	if c.face == nil {
		return 0
	}
	return fixedToFloat(font.MeasureString(c.face, s))
}

// StrokeText paints the outline as copies of the glyphs offset across a
// disc of radius LineWidth/2 (a square for miter joins).
func (c *ImageCanvas) StrokeText(s string, x, y float64, baseline Baseline) {
	if c.dc == nil || c.face == nil || c.style.Stroke == nil || c.style.LineWidth <= 0 {
		return
	}
	r := int(math.Ceil(c.style.LineWidth / 2))
	left, base := c.origin(s, x, y, baseline)

	c.dc.SetColor(c.style.Stroke)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if c.style.Join == JoinRound && dx*dx+dy*dy > r*r {
				continue
			}
			c.dc.DrawString(s, left+float64(dx), base+float64(dy))
		}
	}
}

func (c *ImageCanvas) FillText(s string, x, y float64, baseline Baseline) {
	if c.dc == nil || c.face == nil || c.style.Fill == nil {
		return
	}
	left, base := c.origin(s, x, y, baseline)
	c.dc.SetColor(c.style.Fill)
	c.dc.DrawString(s, left, base)
}

// origin converts a centered, edge-anchored position into the left edge and
// alphabetic baseline gg draws from.
func (c *ImageCanvas) origin(s string, x, y float64, baseline Baseline) (float64, float64) {
	m := c.face.Metrics()
	left := x - c.MeasureText(s)/2
	if baseline == BaselineBottom {
		return left, y - fixedToFloat(m.Descent)
	}
	return left, y + fixedToFloat(m.Ascent)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
