package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/result"
	"github.com/viant/mmvec/store"
)

func newQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [text...]",
		Short: "Find the records nearest to query texts or content uris",
		Example: `  mmvec query "sports, f1" -n 2 --include documents,distances,metadatas,data,uris
  mmvec query --uri ./images/f1.jpg --where '{"category": "sport"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("n-results")
			uris, _ := cmd.Flags().GetStringSlice("uri")
			rawWhere, _ := cmd.Flags().GetString("where")
			rawDoc, _ := cmd.Flags().GetString("where-document")
			includeNames, _ := cmd.Flags().GetStringSlice("include")
			asJSON, _ := cmd.Flags().GetBool("json")

			if len(args) == 0 && len(uris) == 0 {
				return mmerr.New(mmerr.CodeCLIInputInvalid, "cli: give query texts or --uri")
			}
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
			req := store.QueryRequest{
				Texts:         args,
				URIs:          uris,
				NResults:      n,
				Where:         where,
				WhereDocument: whereDoc,
				Include:       include,
			}
			return a.withCollection(cmd.Context(), false, func(_ *store.Client, coll *store.Collection) error {
				res, err := coll.Query(cmd.Context(), req)
				if err != nil {
					return err
				}
				if asJSON {
					cols := res.Columns()
					delete(cols, result.FieldData)
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(cols)
				}
				return a.printer(cmd.OutOrStdout()).Print(res.Queries, res)
			})
		},
	}
	cmd.Flags().IntP("n-results", "n", 10, "number of results per query")
	cmd.Flags().StringSlice("uri", nil, "query by content uri instead of text (repeatable)")
	cmd.Flags().String("where", "", `metadata predicate as JSON, e.g. {"category": "sport"}`)
	cmd.Flags().String("where-document", "", `document predicate as JSON, e.g. {"$contains": "f1"}`)
	cmd.Flags().StringSlice("include", nil, "fields to include: documents, distances, metadatas, data, uris, embeddings")
	cmd.Flags().Bool("json", false, "print the column-oriented result as JSON")
	return cmd
}
