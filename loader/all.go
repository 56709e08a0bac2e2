package loader

import (
	"context"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// LoadAll loads uris concurrently with at most parallelism loads in flight
// and returns the images in input order. The first failure cancels the rest.
func LoadAll(ctx context.Context, l Loader, uris []string, parallelism int) ([]image.Image, error) {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	out := make([]image.Image, len(uris))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, uri := range uris {
		g.Go(func() error {
			img, err := l.Load(gctx, uri)
			if err != nil {
				return err
			}
			out[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
