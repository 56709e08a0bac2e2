package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	mmerr "github.com/viant/mmvec/errors"
)

// DefaultHTTPTimeout bounds a single HTTP fetch.
const DefaultHTTPTimeout = 30 * time.Second

// HTTPFetcher downloads http(s) URLs.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher with the given timeout (DefaultHTTPTimeout when zero).
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeLoaderURIInvalid, "loader: building request", mmerr.FieldURI(u.String()))
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeLoaderIOFailure, "loader: http request", mmerr.FieldURI(u.String()))
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, mmerr.New(mmerr.CodeLoaderIOFailure, fmt.Sprintf("loader: http status %d", resp.StatusCode),
			mmerr.FieldURI(u.String()), mmerr.Field("status", resp.StatusCode))
	}
	return resp.Body, nil
}
