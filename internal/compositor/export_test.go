package compositor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func TestExportMatchesSourceResolution(t *testing.T) {
	f, _, err := LoadFont()
	if err != nil {
		t.Fatalf("LoadFont() error = %v", err)
	}

	sizes := []image.Point{{X: 120, Y: 80}, {X: 640, Y: 480}, {X: 37, Y: 411}}
	for _, size := range sizes {
		e := NewExporter(New(staticLoader(solidImage(size.X, size.Y, color.Gray{Y: 128}))), f)

		dl, err := e.Export(context.Background(), "src", "when the build", "passes first try", "dev-meme-1700000000000.png")
		if err != nil {
			t.Fatalf("Export(%v) error = %v", size, err)
		}
		if dl.Width != size.X || dl.Height != size.Y {
			t.Errorf("Export(%v) reported %dx%d", size, dl.Width, dl.Height)
		}
		if dl.Filename != "dev-meme-1700000000000.png" || dl.ContentType != "image/png" {
			t.Errorf("download = %q %q", dl.Filename, dl.ContentType)
		}

		decoded, err := png.Decode(bytes.NewReader(dl.Data))
		if err != nil {
			t.Fatalf("exported data is not a PNG: %v", err)
		}
		if b := decoded.Bounds(); b.Dx() != size.X || b.Dy() != size.Y {
			t.Errorf("PNG is %dx%d, want %dx%d", b.Dx(), b.Dy(), size.X, size.Y)
		}
	}
}

func TestExportDefaultsFileName(t *testing.T) {
	f, _, _ := LoadFont()
	e := NewExporter(New(staticLoader(solidImage(50, 50, color.Black))), f)

	dl, err := e.Export(context.Background(), "src", "", "", "")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if dl.Filename != DefaultFileName {
		t.Errorf("filename = %q, want %q", dl.Filename, DefaultFileName)
	}
	if !strings.HasPrefix(dl.DataURL(), "data:image/png;base64,") {
		t.Errorf("DataURL() = %.40q", dl.DataURL())
	}
}

func TestExportFailures(t *testing.T) {
	f, _, _ := LoadFont()
	cause := errors.New("connection refused")

	t.Run("image load", func(t *testing.T) {
		e := NewExporter(New(loaderFunc(func(context.Context, string) (image.Image, error) {
			return nil, cause
		})), f)
		_, err := e.Export(context.Background(), "https://example.com/a.png", "a", "b", "")
		if !errors.Is(err, ErrExportFailed) {
			t.Fatalf("error = %v, want ErrExportFailed", err)
		}
		var loadErr *ImageLoadError
		if !errors.As(err, &loadErr) || !errors.Is(err, cause) {
			t.Errorf("error = %v, want wrapped ImageLoadError", err)
		}
	})

	t.Run("no surface", func(t *testing.T) {
		e := NewExporter(New(staticLoader(solidImage(10, 10, color.Black))), nil)
		_, err := e.Export(context.Background(), "src", "a", "b", "")
		if !errors.Is(err, ErrExportFailed) || !errors.Is(err, ErrSurfaceUnavailable) {
			t.Errorf("error = %v, want ErrExportFailed and ErrSurfaceUnavailable", err)
		}
	})
}
