package main

import (
	"fmt"

	"github.com/spf13/cobra"

	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/result"
	"github.com/viant/mmvec/store"
)

func newGetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "List records by id or predicate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, _ := cmd.Flags().GetStringSlice("id")
			rawWhere, _ := cmd.Flags().GetString("where")
			rawDoc, _ := cmd.Flags().GetString("where-document")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			includeNames, _ := cmd.Flags().GetStringSlice("include")

			where, err := parseWhere(rawWhere)
			if err != nil {
				return err
			}
			whereDoc, err := parseWhereDocument(rawDoc)
			if err != nil {
				return err
			}
			include, err := result.ParseInclude(includeNames)
			if err != nil {
				return err
			}
			if include == nil {
				include = append(result.Include{}, result.DefaultGetInclude...)
			}
			if !include.Has(result.FieldURIs) {
				include = append(include, result.FieldURIs)
			}
			req := store.GetRequest{IDs: ids, Where: where, WhereDocument: whereDoc, Limit: limit, Offset: offset, Include: include}
			return a.withCollection(cmd.Context(), false, func(_ *store.Client, coll *store.Collection) error {
				res, err := coll.Get(cmd.Context(), req)
				if err != nil {
					return err
				}
				return a.printer(cmd.OutOrStdout()).PrintRecords(res)
			})
		},
	}
	cmd.Flags().StringSlice("id", nil, "record ids (repeatable)")
	cmd.Flags().String("where", "", "metadata predicate as JSON")
	cmd.Flags().String("where-document", "", "document predicate as JSON")
	cmd.Flags().Int("limit", 0, "maximum number of records, 0 for all")
	cmd.Flags().Int("offset", 0, "records to skip")
	cmd.Flags().StringSlice("include", nil, "fields to include: documents, metadatas, uris")
	return cmd
}

func newPeekCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peek",
		Short: "Show the first records of the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, _ := cmd.Flags().GetInt("limit")
			return a.withCollection(cmd.Context(), false, func(_ *store.Client, coll *store.Collection) error {
				res, err := coll.Peek(cmd.Context(), n)
				if err != nil {
					return err
				}
				return a.printer(cmd.OutOrStdout()).PrintRecords(res)
			})
		},
	}
	cmd.Flags().IntP("limit", "n", 10, "number of records")
	return cmd
}

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of records in the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withCollection(cmd.Context(), false, func(_ *store.Client, coll *store.Collection) error {
				n, err := coll.Count(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete records by id or metadata predicate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, _ := cmd.Flags().GetStringSlice("id")
			rawWhere, _ := cmd.Flags().GetString("where")
			where, err := parseWhere(rawWhere)
			if err != nil {
				return err
			}
			if len(ids) == 0 && len(where) == 0 {
				return mmerr.New(mmerr.CodeCLIInputInvalid, "cli: delete needs --id or --where")
			}
			return a.withCollection(cmd.Context(), false, func(_ *store.Client, coll *store.Collection) error {
				n, err := coll.Delete(cmd.Context(), ids, where)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: deleted %d records\n", coll.Name(), n)
				return nil
			})
		},
	}
	cmd.Flags().StringSlice("id", nil, "record ids (repeatable)")
	cmd.Flags().String("where", "", "metadata predicate as JSON")
	return cmd
}
