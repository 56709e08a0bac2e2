package loader

import (
	"context"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	mmerr "github.com/viant/mmvec/errors"
)

// SchemeS3 addresses objects as s3://bucket/key.
const SchemeS3 = "s3"

// S3API is the subset of the AWS S3 client used for fetching.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher reads objects through the AWS SDK.
type S3Fetcher struct {
	Client S3API
}

// NewS3Fetcher loads the default AWS configuration chain, optionally pinning
// the region.
func NewS3Fetcher(ctx context.Context, region string) (*S3Fetcher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeLoaderIOFailure, "loader: loading aws config")
	}
	return &S3Fetcher{Client: s3.NewFromConfig(cfg)}, nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	bucket, key, err := bucketKey(u)
	if err != nil {
		return nil, err
	}
	out, err := f.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeLoaderIOFailure, "loader: s3 get object",
			mmerr.Field("bucket", bucket), mmerr.Field("key", key))
	}
	return out.Body, nil
}

// lazyS3 builds the AWS client on first use. Failed attempts are not
// remembered, so a later call retries.
type lazyS3 struct {
	region  string
	open    func(ctx context.Context, region string) (*S3Fetcher, error)
	mu      sync.Mutex
	fetcher *S3Fetcher
}

func (l *lazyS3) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	f, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx, u)
}

func (l *lazyS3) get(ctx context.Context) (*S3Fetcher, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fetcher != nil {
		return l.fetcher, nil
	}
	open := l.open
	if open == nil {
		open = NewS3Fetcher
	}
	f, err := open(ctx, l.region)
	if err != nil {
		return nil, err
	}
	l.fetcher = f
	return f, nil
}

// MinioConfig addresses an S3-compatible endpoint such as MinIO or Ceph.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// MinioFetcher reads objects from an S3-compatible endpoint.
type MinioFetcher struct {
	client *minio.Client
}

func NewMinioFetcher(cfg MinioConfig) (*MinioFetcher, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeLoaderURIInvalid, "loader: creating minio client", mmerr.Field("endpoint", cfg.Endpoint))
	}
	return &MinioFetcher{client: client}, nil
}

func (f *MinioFetcher) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	bucket, key, err := bucketKey(u)
	if err != nil {
		return nil, err
	}
	obj, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeLoaderIOFailure, "loader: minio get object",
			mmerr.Field("bucket", bucket), mmerr.Field("key", key))
	}
	// GetObject is lazy; Stat surfaces missing keys before decoding starts.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, mmerr.Wrap(err, mmerr.CodeLoaderIOFailure, "loader: minio stat object",
			mmerr.Field("bucket", bucket), mmerr.Field("key", key), mmerr.Field("code", minio.ToErrorResponse(err).Code))
	}
	return obj, nil
}

func bucketKey(u *url.URL) (string, string, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", mmerr.New(mmerr.CodeLoaderURIInvalid, "loader: s3 uri must be s3://bucket/key", mmerr.FieldURI(u.String()))
	}
	return bucket, key, nil
}
