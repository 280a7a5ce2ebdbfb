package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"doclib/internal/model"
)

// yamlDocument mirrors model.Document with YAML keys matching the JSON ones.
type yamlDocument struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Size       string `yaml:"size"`
	UploadedAt string `yaml:"uploadedAt"`
	Path       string `yaml:"path,omitempty"`
}

func newListCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List documents in upload order",
		Long: `List documents in upload order.

Examples:
  doclibctl list
  doclibctl list -o json
  doclibctl list --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := opts.library()
			if err != nil {
				return err
			}
			docs, err := lib.LoadAll(cmd.Context())
			if err != nil {
				return err
			}
			return writeDocuments(cmd, opts.output, docs)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "output format (table, json, yaml)")
	return cmd
}

func writeDocuments(cmd *cobra.Command, format string, docs []model.Document) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	case "yaml":
		ys := make([]yamlDocument, 0, len(docs))
		for _, d := range docs {
			ys = append(ys, yamlDocument(d))
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(ys); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSIZE\tUPLOADED AT")
		for _, d := range docs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Size, d.UploadedAt)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
