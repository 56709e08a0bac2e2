package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/viper"

	"github.com/viant/mmvec/embedding/providers"
	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/internal/config"
	"github.com/viant/mmvec/loader"
	"github.com/viant/mmvec/result"
	"github.com/viant/mmvec/store"
)

// app carries the state shared by all commands of one root command.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	logger  *slog.Logger
	noColor bool
}

func (a *app) openClient(path string) (*store.Client, error) {
	if path == "" {
		path = a.cfg.Storage.Path
	}
	return store.NewPersistentClient(path,
		store.WithLogger(a.logger),
		store.WithIndexKind(a.cfg.IndexKind()),
	)
}

func (a *app) collectionOptions(ctx context.Context) (store.CollectionOptions, error) {
	fn, err := providers.Default().New(ctx, a.cfg.EmbeddingFunctionConfig())
	if err != nil {
		return store.CollectionOptions{}, err
	}
	ld, err := loader.FromConfig(ctx, a.cfg.LoaderConfig())
	if err != nil {
		return store.CollectionOptions{}, err
	}
	return store.CollectionOptions{
		Embedding:       fn,
		Loader:          ld,
		Metric:          a.cfg.CollectionMetric(),
		LoadParallelism: a.cfg.Loader.Parallelism,
	}, nil
}

// withCollection opens the configured collection, creating it when create is
// set, and closes the client when fn returns.
func (a *app) withCollection(ctx context.Context, create bool, fn func(*store.Client, *store.Collection) error) error {
	client, err := a.openClient("")
	if err != nil {
		return err
	}
	defer client.Close()
	opts, err := a.collectionOptions(ctx)
	if err != nil {
		return err
	}
	var coll *store.Collection
	if create {
		coll, err = client.GetOrCreateCollection(ctx, a.cfg.Collection.Name, opts)
	} else {
		coll, err = client.GetCollection(ctx, a.cfg.Collection.Name, opts)
	}
	if err != nil {
		return err
	}
	return fn(client, coll)
}

func (a *app) printer(out io.Writer) *result.Printer {
	p := result.NewPrinter(out)
	p.Color = p.Color && !a.noColor && !color.NoColor
	return p
}

func parseWhere(raw string) (store.Where, error) {
	if raw == "" {
		return nil, nil
	}
	var w store.Where
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeCLIInputInvalid, "cli: --where must be a JSON object")
	}
	return w, nil
}

func parseWhereDocument(raw string) (store.WhereDocument, error) {
	if raw == "" {
		return nil, nil
	}
	var w store.WhereDocument
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeCLIInputInvalid, "cli: --where-document must be a JSON object")
	}
	return w, nil
}
