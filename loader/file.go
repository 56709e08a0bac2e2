package loader

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"

	mmerr "github.com/viant/mmvec/errors"
)

// FileFetcher reads local files; relative paths are resolved against BaseDir.
type FileFetcher struct {
	BaseDir string
}

func (f *FileFetcher) Fetch(_ context.Context, u *url.URL) (io.ReadCloser, error) {
	path := filepath.FromSlash(u.Path)
	if !filepath.IsAbs(path) && f.BaseDir != "" {
		path = filepath.Join(f.BaseDir, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeLoaderIOFailure, "loader: opening file", mmerr.Field("path", path))
	}
	return file, nil
}
