package loader

import (
	"context"
	"time"
)

// Config describes the fetchers a loader should carry.
type Config struct {
	BaseDir     string
	HTTPTimeout time.Duration
	MaxBytes    int64
	S3          MinioConfig
}

// FromConfig builds an ImageLoader with file and http(s) fetchers, and an s3
// fetcher that targets cfg.S3.Endpoint through minio when set, or AWS
// otherwise. The AWS configuration is loaded lazily on first s3 access.
func FromConfig(ctx context.Context, cfg Config) (*ImageLoader, error) {
	httpFetcher := NewHTTPFetcher(cfg.HTTPTimeout)
	opts := []Option{
		WithFetcher(SchemeFile, &FileFetcher{BaseDir: cfg.BaseDir}),
		WithFetcher("http", httpFetcher),
		WithFetcher("https", httpFetcher),
		WithMaxBytes(cfg.MaxBytes),
	}
	if cfg.S3.Endpoint != "" {
		mf, err := NewMinioFetcher(cfg.S3)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithFetcher(SchemeS3, mf))
	} else {
		opts = append(opts, WithFetcher(SchemeS3, &lazyS3{region: cfg.S3.Region}))
	}
	return New(opts...), nil
}
