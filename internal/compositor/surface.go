package compositor

import (
	"image"
	"image/color"
	"math"
)

// Baseline selects which edge of a text line the y coordinate refers to.
type Baseline int

const (
	// BaselineTop anchors the top of the line; blocks grow downward.
	BaselineTop Baseline = iota
	// BaselineBottom anchors the bottom of the line; blocks grow upward.
	BaselineBottom
)

func (b Baseline) String() string {
	if b == BaselineBottom {
		return "bottom"
	}
	return "top"
}

// LineJoin is the corner style of the text outline.
type LineJoin int

const (
	JoinMiter LineJoin = iota
	JoinRound
)

// TextStyle is the paint state used by StrokeText and FillText.
type TextStyle struct {
	Fill      color.Color
	Stroke    color.Color
	LineWidth float64
	Join      LineJoin
}

// Surface is a 2D drawing context. Text is horizontally centered on x.
type Surface interface {
	// Resize replaces the pixel buffer with a blank one of the given size.
	Resize(width, height int)
	// DrawImage paints img with its top-left corner at the origin.
	DrawImage(img image.Image)
	// SetFontSize selects the caption face at px pixels.
	SetFontSize(px float64) error
	SetStyle(style TextStyle)
	// MeasureText returns the advance width of s in the current face.
	MeasureText(s string) float64
	StrokeText(s string, x, y float64, baseline Baseline)
	FillText(s string, x, y float64, baseline Baseline)
}

// Canvas hands out the drawing surface for a render.
type Canvas interface {
	Context2D() (Surface, error)
}

// Metrics are the caption sizes derived from the canvas height.
type Metrics struct {
	FontSize    float64
	StrokeWidth float64
}

// MetricsFor returns the caption metrics for a canvas height: the font is a
// tenth of the height and the outline an eighth of the font, both floored to
// whole pixels.
func MetricsFor(height int) Metrics {
	fontSize := math.Floor(float64(height) * 0.1)
	return Metrics{
		FontSize:    fontSize,
		StrokeWidth: math.Floor(fontSize / 8),
	}
}

// CaptionStyle is the classic meme look: white letters with a black outline.
func CaptionStyle(m Metrics) TextStyle {
	return TextStyle{
		Fill:      color.White,
		Stroke:    color.Black,
		LineWidth: m.StrokeWidth,
		Join:      JoinRound,
	}
}
