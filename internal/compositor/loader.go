package compositor

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/devmeme/internal/logger"
	"github.com/timmy/devmeme/internal/storage"
	_ "golang.org/x/image/webp"
)

// ObjectReader reads template assets from an object storage bucket.
type ObjectReader interface {
	Bucket() string
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// DefaultMaxImagePixels bounds decoded images when no budget is configured.
const DefaultMaxImagePixels = 25_000_000

// LoaderConfig holds configuration for the image loader.
type LoaderConfig struct {
	FetchTimeout    time.Duration
	MaxImageBytes   int64
	MaxImagePixels  int64
	AllowLocalFiles bool
}

// Loader fetches and decodes source images. It understands data: URLs,
// http(s) URLs, s3://bucket/key references and, when allowed, local files.
type Loader struct {
	client     *resty.Client
	objects    ObjectReader
	maxBytes   int64
	maxPixels  int64
	allowFiles bool
}

// NewLoader creates a Loader. objects may be nil when no bucket is configured.
func NewLoader(cfg *LoaderConfig, objects ObjectReader) *Loader {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "image/*")
	if cfg.MaxImageBytes > 0 {
		client.SetResponseBodyLimit(int(cfg.MaxImageBytes))
	}

	maxPixels := cfg.MaxImagePixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxImagePixels
	}

	return &Loader{
		client:     client,
		objects:    objects,
		maxBytes:   cfg.MaxImageBytes,
		maxPixels:  maxPixels,
		allowFiles: cfg.AllowLocalFiles,
	}
}

// Load resolves src and decodes it.
func (l *Loader) Load(ctx context.Context, src string) (image.Image, error) {
	data, err := l.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	if l.maxBytes > 0 && int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("image is %d bytes, limit is %d", len(data), l.maxBytes)
	}

	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}
	if pixels := int64(header.Width) * int64(header.Height); pixels > l.maxPixels {
		return nil, fmt.Errorf("image is %dx%d, limit is %d pixels", header.Width, header.Height, l.maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	logger.With(logger.Fields{
		logger.FieldSize: len(data),
		"format":         format,
	}).Debug(ctx, "Image loaded: width=%d, height=%d", img.Bounds().Dx(), img.Bounds().Dy())

	return img, nil
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	switch {
	case src == "":
		return nil, errors.New("empty image source")
	case strings.HasPrefix(src, "data:"):
		return decodeDataURL(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.fetchHTTP(ctx, src)
	case strings.HasPrefix(src, "s3://"):
		return l.fetchObject(ctx, src)
	default:
		return l.readFile(src)
	}
}

func (l *Loader) fetchHTTP(ctx context.Context, src string) ([]byte, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		Get(src)
	if errors.Is(err, resty.ErrResponseBodyTooLarge) {
		return nil, fmt.Errorf("image is over the %d byte limit", l.maxBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("image host returned HTTP %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

func (l *Loader) fetchObject(ctx context.Context, src string) ([]byte, error) {
	if l.objects == nil {
		return nil, errors.New("object storage is not configured")
	}
	bucket, key, err := storage.ParseObjectURL(src)
	if err != nil {
		return nil, err
	}
	if bucket != l.objects.Bucket() {
		return nil, fmt.Errorf("bucket %q is not the configured bucket %q", bucket, l.objects.Bucket())
	}

	body, err := l.objects.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var r io.Reader = body
	if l.maxBytes > 0 {
		r = io.LimitReader(body, l.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

func (l *Loader) readFile(src string) ([]byte, error) {
	if !l.allowFiles {
		return nil, fmt.Errorf("unsupported image source %q", shortSource(src))
	}
	path := strings.TrimPrefix(src, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// decodeDataURL returns the payload of a data: URL.
func decodeDataURL(src string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}
	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed base64 payload: %w", err)
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("malformed data URL payload: %w", err)
	}
	return []byte(data), nil
}

// DataURL encodes data as a base64 data: URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
