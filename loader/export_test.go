package loader

import "context"

// NewLazyS3 exposes lazyS3 with a custom client constructor.
func NewLazyS3(open func(ctx context.Context, region string) (*S3Fetcher, error)) Fetcher {
	return &lazyS3{open: open}
}
