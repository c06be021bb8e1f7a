package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reoring/msgskema/dsl"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List the schemas of a catalog",
	Args:  cobra.NoArgs,
	RunE:  runSchemas,
}

var schemasCatalog string

func init() {
	rootCmd.AddCommand(schemasCmd)

	schemasCmd.Flags().StringVar(&schemasCatalog, "catalog", "", "YAML schema catalog")
	_ = schemasCmd.MarkFlagRequired("catalog")
}

func runSchemas(cmd *cobra.Command, args []string) error {
	cat, err := dsl.LoadCatalogFile(schemasCatalog)
	if err != nil {
		return err
	}
	return listSchemas(cmd.OutOrStdout(), cat)
}

func listSchemas(out io.Writer, cat *dsl.Catalog) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEXPRESSION")
	for _, name := range cat.Names() {
		s, _ := cat.Lookup(name)
		fmt.Fprintf(w, "%s\t%s\n", name, s.Expression())
	}
	return w.Flush()
}
