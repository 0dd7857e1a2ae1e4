package compositor

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"github.com/timmy/devmeme/internal/logger"
	"golang.org/x/image/font/gofont/gobold"
)

// FallbackFontName names the embedded face used when no display font loads.
const FallbackFontName = "Go Bold"

// LoadFont returns the first TrueType font among paths that parses, falling
// back to the embedded Go Bold face. Paths are tried in order, so callers
// list the preferred display family (Anton, Impact) first.
func LoadFont(paths ...string) (*truetype.Font, string, error) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Caption font unavailable: path=%s, error=%v", path, err)
			continue
		}
		f, err := truetype.Parse(data)
		if err != nil {
			logger.Warn("Caption font unreadable: path=%s, error=%v", path, err)
			continue
		}
		return f, path, nil
	}

	f, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse fallback font: %w", err)
	}
	return f, FallbackFontName, nil
}
