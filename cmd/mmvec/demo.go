package main

import (
	"github.com/spf13/cobra"

	"github.com/viant/mmvec/manifest"
	"github.com/viant/mmvec/result"
	"github.com/viant/mmvec/store"
)

func newDemoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Load the sports images and run a sample query",
		Long: `Upserts the ten sports images (archery.jpg ... snowboarding.jpg) from the
images directory with their metadata, then queries the collection and prints
each match.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, _ := cmd.Flags().GetString("images")
			queries, _ := cmd.Flags().GetStringArray("query")
			n, _ := cmd.Flags().GetInt("n-results")
			rawWhere, _ := cmd.Flags().GetString("where")
			where, err := parseWhere(rawWhere)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withCollection(ctx, true, func(_ *store.Client, coll *store.Collection) error {
				if err := coll.Upsert(ctx, manifest.Demo(dir).ToRecords()); err != nil {
					return err
				}
				count, err := coll.Count(ctx)
				if err != nil {
					return err
				}
				a.logger.Info("collection ready", "collection", coll.Name(), "count", count)
				res, err := coll.Query(ctx, store.QueryRequest{
					Texts:    queries,
					NResults: n,
					Where:    where,
					Include: result.Include{
						result.FieldDocuments, result.FieldDistances, result.FieldMetadatas,
						result.FieldData, result.FieldURIs,
					},
				})
				if err != nil {
					return err
				}
				return a.printer(cmd.OutOrStdout()).Print(queries, res)
			})
		},
	}
	cmd.Flags().String("images", "images", "directory holding the demo images")
	cmd.Flags().StringArray("query", []string{"sports, f1"}, "query text (repeatable)")
	cmd.Flags().IntP("n-results", "n", 2, "number of results per query")
	cmd.Flags().String("where", "", "optional metadata predicate as JSON")
	return cmd
}
