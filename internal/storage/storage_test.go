package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseObjectURL(t *testing.T) {
	tests := []struct {
		ref        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{ref: "s3://templates/dev/cat.png", wantBucket: "templates", wantKey: "dev/cat.png"},
		{ref: "s3://templates/a.jpg", wantBucket: "templates", wantKey: "a.jpg"},
		{ref: "s3://templates", wantErr: true},
		{ref: "s3:///key.png", wantErr: true},
		{ref: "https://example.com/a.png", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.ref, func(t *testing.T) {
			bucket, key, err := ParseObjectURL(tc.ref)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseObjectURL(%q) error = %v, wantErr %v", tc.ref, err, tc.wantErr)
			}
			if bucket != tc.wantBucket || key != tc.wantKey {
				t.Errorf("ParseObjectURL(%q) = %q, %q", tc.ref, bucket, key)
			}
		})
	}
}

func TestCheckReportsProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s, err := NewS3Storage(&S3Config{
		Endpoint:  srv.URL,
		Bucket:    "templates",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = s.Check(ctx)
	if err == nil || !strings.Contains(err.Error(), "s3compatible bucket templates") {
		t.Errorf("Check() error = %v, want the provider and bucket named", err)
	}
}

func TestDetectStorageType(t *testing.T) {
	tests := map[string]StorageType{
		"https://acct.r2.cloudflarestorage.com": StorageTypeR2,
		"s3.us-east-1.amazonaws.com":            StorageTypeS3,
		"":                                      StorageTypeS3,
		"localhost:9000":                        StorageTypeS3Compatible,
	}
	for endpoint, want := range tests {
		if got := detectStorageType(endpoint); got != want {
			t.Errorf("detectStorageType(%q) = %q, want %q", endpoint, got, want)
		}
	}
}

func TestGetURL(t *testing.T) {
	s, err := NewS3Storage(&S3Config{
		Endpoint:  "http://localhost:9000/",
		Bucket:    "templates",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}
	if got := s.GetURL("dev/cat.png"); got != "http://localhost:9000/templates/dev/cat.png" {
		t.Errorf("GetURL() = %q", got)
	}

	s.publicURL = "https://cdn.example.com"
	if got := s.GetURL("dev/cat.png"); got != "https://cdn.example.com/dev/cat.png" {
		t.Errorf("GetURL() with public URL = %q", got)
	}
}

func TestDisplayURL(t *testing.T) {
	s, err := NewS3Storage(&S3Config{
		Endpoint:  "http://localhost:9000",
		Bucket:    "templates",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	tests := []struct {
		ref  string
		want string
	}{
		{ref: "s3://templates/dev/cat.png", want: "http://localhost:9000/templates/dev/cat.png"},
		{ref: "s3://other/dev/cat.png", want: "s3://other/dev/cat.png"},
		{ref: "https://example.com/a.png", want: "https://example.com/a.png"},
		{ref: "data:image/png;base64,AAAA", want: "data:image/png;base64,AAAA"},
	}
	for _, tc := range tests {
		if got := DisplayURL(s, tc.ref); got != tc.want {
			t.Errorf("DisplayURL(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}

	if got := DisplayURL(nil, "s3://templates/a.png"); got != "s3://templates/a.png" {
		t.Errorf("DisplayURL(nil) = %q", got)
	}
}
