package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/viant/mmvec/replica"
	"github.com/viant/mmvec/store"
)

func newReindexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild and persist the collection's vector index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withCollection(cmd.Context(), false, func(_ *store.Client, coll *store.Collection) error {
				n, err := coll.Reindex(cmd.Context())
				if err != nil {
					return err
				}
				kind, err := coll.IndexKind(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: indexed %d records (%s)\n", coll.Name(), n, kind)
				return nil
			})
		},
	}
}

func newLogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the collection's change log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			since, _ := cmd.Flags().GetInt64("since")
			limit, _ := cmd.Flags().GetInt("limit")
			return a.withCollection(cmd.Context(), false, func(_ *store.Client, coll *store.Collection) error {
				entries, err := coll.Changes(cmd.Context(), since, limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "SCN\tOP\tID\tAT")
				for _, e := range entries {
					_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.SCN, e.Op, e.RecordID, e.CreatedAt.UTC().Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().Int64("since", 0, "show entries after this SCN")
	cmd.Flags().Int("limit", store.DefaultChangeLimit, "maximum number of entries")
	return cmd
}

func newCollectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List collections in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.openClient("")
			if err != nil {
				return err
			}
			defer client.Close()
			infos, err := client.ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tCOUNT\tEMBEDDING\tMETRIC\tDIM\tSCN")
			for _, c := range infos {
				_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%d\n", c.Name, c.Count, c.Embedding, c.Metric, c.Dimension, c.SCN)
			}
			return tw.Flush()
		},
	}
}

func newDropCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <collection>",
		Short: "Delete a collection and all of its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.openClient("")
			if err != nil {
				return err
			}
			defer client.Close()
			if err := client.DeleteCollection(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", args[0])
			return nil
		},
	}
}

func newSyncCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync --from <path>",
		Short: "Replicate a collection from another store into this one",
		Long: `Replays the change log of a collection in the store at --from into the
configured collection. Progress is kept in the local store, so repeated runs
only apply new changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, _ := cmd.Flags().GetString("from")
			name, _ := cmd.Flags().GetString("source-collection")
			if name == "" {
				name = a.cfg.Collection.Name
			}
			ctx := cmd.Context()
			sourceClient, err := a.openClient(from)
			if err != nil {
				return err
			}
			defer sourceClient.Close()
			opts, err := a.collectionOptions(ctx)
			if err != nil {
				return err
			}
			source, err := sourceClient.GetCollection(ctx, name, store.CollectionOptions{Embedding: opts.Embedding, Loader: opts.Loader})
			if err != nil {
				return err
			}
			return a.withCollection(ctx, true, func(client *store.Client, target *store.Collection) error {
				r, err := replica.New(ctx, client.DB(), source, target, replica.WithLogger(a.logger))
				if err != nil {
					return err
				}
				n, err := r.Sync(ctx)
				if err != nil {
					return err
				}
				st, err := r.State(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: applied %d changes from %s (scn %d)\n", target.Name(), n, name, st.LastSCN)
				return nil
			})
		},
	}
	cmd.Flags().String("from", "", "storage directory of the source store")
	cmd.Flags().String("source-collection", "", "source collection name; defaults to --collection")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
