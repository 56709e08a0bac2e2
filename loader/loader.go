// Package loader dereferences content URIs into decoded images.
//
// A URI is a plain filesystem path, a file:// URL, an http(s):// URL or an
// s3://bucket/key reference. Bytes are obtained from the Fetcher registered
// for the scheme and decoded with the standard library codecs plus WebP, BMP
// and TIFF from golang.org/x/image.
package loader

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	mmerr "github.com/viant/mmvec/errors"
)

// Loader loads the content behind a URI.
type Loader interface {
	Load(ctx context.Context, uri string) (image.Image, error)
}

// Fetcher returns the raw bytes for a parsed URI.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, u *url.URL) (io.ReadCloser, error)

func (f FetcherFunc) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	return f(ctx, u)
}

// SchemeFile is used for plain paths as well as file:// URLs.
const SchemeFile = "file"

// ImageLoader resolves URIs by scheme and decodes the fetched bytes.
type ImageLoader struct {
	fetchers map[string]Fetcher
	maxBytes int64
}

// Option configures an ImageLoader.
type Option func(*ImageLoader)

// WithFetcher registers f for scheme, replacing any previous fetcher.
func WithFetcher(scheme string, f Fetcher) Option {
	return func(l *ImageLoader) { l.fetchers[strings.ToLower(scheme)] = f }
}

// WithMaxBytes bounds the size of fetched content; 0 disables the limit.
func WithMaxBytes(n int64) Option {
	return func(l *ImageLoader) { l.maxBytes = n }
}

// New creates an ImageLoader that reads local files relative to the current
// directory plus any fetchers supplied as options.
func New(opts ...Option) *ImageLoader {
	l := &ImageLoader{fetchers: map[string]Fetcher{SchemeFile: &FileFetcher{}}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Schemes lists the schemes this loader understands.
func (l *ImageLoader) Schemes() []string {
	out := make([]string, 0, len(l.fetchers))
	for s := range l.fetchers {
		out = append(out, s)
	}
	return out
}

// Load implements Loader.
func (l *ImageLoader) Load(ctx context.Context, uri string) (image.Image, error) {
	u, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	fetcher, ok := l.fetchers[u.Scheme]
	if !ok {
		return nil, mmerr.New(mmerr.CodeLoaderSchemeNotFound, "loader: no fetcher for scheme",
			mmerr.FieldURI(uri), mmerr.Field("scheme", u.Scheme))
	}
	rc, err := fetcher.Fetch(ctx, u)
	if err != nil {
		if mmerr.CodeOf(err) != "" {
			return nil, err
		}
		return nil, mmerr.Wrap(err, mmerr.CodeLoaderIOFailure, "loader: fetching content", mmerr.FieldURI(uri))
	}
	defer rc.Close()

	var r io.Reader = rc
	if l.maxBytes > 0 {
		r = io.LimitReader(rc, l.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeLoaderIOFailure, "loader: reading content", mmerr.FieldURI(uri))
	}
	if l.maxBytes > 0 && int64(len(data)) > l.maxBytes {
		return nil, mmerr.New(mmerr.CodeLoaderIOFailure, "loader: content exceeds size limit",
			mmerr.FieldURI(uri), mmerr.Field("limit", l.maxBytes))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeLoaderDecodeInvalid, "loader: decoding image", mmerr.FieldURI(uri))
	}
	return img, nil
}

// ParseURI normalizes uri: strings without a scheme become file URLs whose
// Path holds the original path, relative or absolute.
func ParseURI(uri string) (*url.URL, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, mmerr.New(mmerr.CodeLoaderURIInvalid, "loader: empty uri")
	}
	if !strings.Contains(uri, "://") {
		return &url.URL{Scheme: SchemeFile, Path: uri}, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeLoaderURIInvalid, "loader: parsing uri", mmerr.FieldURI(uri))
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == SchemeFile && u.Host != "" && u.Host != "localhost" {
		// file://images/a.png names a relative path
		u.Path = u.Host + u.Path
		u.Host = ""
	}
	return u, nil
}
