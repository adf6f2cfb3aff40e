package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/invopop/xmlbind"
)

func newSchemaCommand() *cobra.Command {
	var schemaPath, typeName string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "List the declarations of a YAML schema file",
		Long: `Load a YAML schema file, check it, and list every declared field with
its kind, type, multiplicity and candidate tags.

Examples:
  xmlbind schema --schema types.yaml
  xmlbind schema --schema types.yaml --type address`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if schemaPath == "" {
				return &usageError{err: errors.New("--schema is required")}
			}
			reg := xmlbind.NewRegistry()
			file, err := reg.LoadFile(schemaPath)
			if err != nil {
				return fmt.Errorf("load schema: %w", err)
			}
			names := file.Types
			if typeName != "" {
				if _, ok := reg.Record(typeName); !ok {
					return fmt.Errorf("%w: type %s is not declared in %s", xmlbind.ErrSchema, typeName, schemaPath)
				}
				names = []string{typeName}
			}
			return printSchemas(cmd.OutOrStdout(), reg, names)
		},
	}
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "YAML file declaring the record types")
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "only list this record type")
	return cmd
}

func printSchemas(out io.Writer, reg *xmlbind.Registry, names []string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, name := range names {
		s, _ := reg.Record(name)
		if i > 0 {
			fmt.Fprintln(tw)
		}
		header := name
		if tag := s.Options().Tag; tag != "" {
			header += " <" + tag + ">"
		}
		fmt.Fprintln(tw, header)
		for _, f := range s.Fields() {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
				f.Kind(), f.Name(), f.Type(), f.Multiplicity(), describeTags(f))
		}
	}
	return tw.Flush()
}

func describeTags(f *xmlbind.Field) string {
	tags := strings.Join(f.Tags(), "|")
	if ns := f.Namespace(); ns != "" && tags != "" {
		return ns + ":" + tags
	}
	return tags
}
