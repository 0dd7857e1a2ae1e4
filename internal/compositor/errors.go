package compositor

import (
	"errors"
	"fmt"
)

var (
	// ErrSurfaceUnavailable is returned when a canvas cannot provide a 2D surface.
	ErrSurfaceUnavailable = errors.New("could not get canvas context")

	// ErrExportFailed wraps every failure of an export.
	ErrExportFailed = errors.New("failed to create download image")
)

// ImageLoadError reports a source image that could not be fetched or decoded.
type ImageLoadError struct {
	Source string
	Err    error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("failed to load image %s: %v", shortSource(e.Source), e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

// shortSource keeps data references out of error messages.
func shortSource(src string) string {
	const max = 64
	if len(src) <= max {
		return src
	}
	return src[:max] + "..."
}
