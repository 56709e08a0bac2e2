package main

import (
	"fmt"

	"github.com/spf13/cobra"

	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/manifest"
	"github.com/viant/mmvec/store"
)

func newIngestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <manifest.yaml>",
		Short: "Embed and store the records listed in a manifest",
		Long: `Reads a YAML list of {id, uri, document, metadata} entries, embeds every
entry through the configured embedding function and writes it to the
collection, creating the collection on first use.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, _ := cmd.Flags().GetString("mode")
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			recs := m.ToRecords()
			return a.withCollection(cmd.Context(), true, func(_ *store.Client, coll *store.Collection) error {
				switch mode {
				case "upsert":
					err = coll.Upsert(cmd.Context(), recs)
				case "add":
					err = coll.Add(cmd.Context(), recs)
				case "update":
					err = coll.Update(cmd.Context(), recs)
				default:
					return mmerr.New(mmerr.CodeCLIInputInvalid, "cli: --mode must be one of upsert, add, update", mmerr.Field("mode", mode))
				}
				if err != nil {
					return err
				}
				n, err := coll.Count(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: wrote %d records (count %d)\n", coll.Name(), recs.Len(), n)
				return nil
			})
		},
	}
	cmd.Flags().String("mode", "upsert", "write mode: upsert, add or update")
	return cmd
}
