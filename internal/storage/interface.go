package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// ObjectStorage defines the read operations used for template assets
type ObjectStorage interface {
	// Bucket returns the configured bucket name
	Bucket() string

	// Check verifies the bucket is reachable
	Check(ctx context.Context) error

	// Download downloads an object from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the URL for accessing an object
	GetURL(key string) string

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}

// ParseObjectURL splits an s3://bucket/key reference.
func ParseObjectURL(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an object reference: %q", ref)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("object reference %q needs a bucket and a key", ref)
	}
	return bucket, key, nil
}

// DisplayURL maps an s3:// reference in s's bucket to a browser-loadable
// URL. Any other reference is returned unchanged; s may be nil.
func DisplayURL(s ObjectStorage, ref string) string {
	if s == nil || !strings.HasPrefix(ref, "s3://") {
		return ref
	}
	bucket, key, err := ParseObjectURL(ref)
	if err != nil || bucket != s.Bucket() {
		return ref
	}
	return s.GetURL(key)
}
