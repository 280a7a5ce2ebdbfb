package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"doclib/internal/config"
	"doclib/internal/logging"
	"doclib/internal/repository/jsonfile"
	"doclib/internal/storage"
)

type options struct {
	dir      string
	metadata string
	output   string
}

// library opens the local document store described by opts.
func (o *options) library() (*jsonfile.DocumentJSONFile, error) {
	blobs, err := storage.NewLocal(o.dir)
	if err != nil {
		return nil, err
	}
	docs := config.DocumentsConfig{Dir: o.dir, MetadataFile: o.metadata}
	return jsonfile.NewDocumentJSONFile(docs.MetadataPath(), blobs)
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := &options{}

	root := &cobra.Command{
		Use:   "doclibctl",
		Short: "Inspect and repair a local document library",
		Long: `doclibctl operates directly on the metadata file and stored PDFs of a
document library using the local storage backend. Stop the API server before
running commands that modify the library.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetDefault(logging.New(os.Stderr, cfg.Location()))
		},
	}
	root.PersistentFlags().StringVar(&opts.dir, "dir", cfg.Documents.Dir, "documents directory")
	root.PersistentFlags().StringVar(&opts.metadata, "metadata", cfg.Documents.MetadataFile, "metadata file, relative to --dir unless absolute")

	root.AddCommand(newListCmd(opts), newRemoveCmd(opts), newCheckCmd(opts))
	return root
}

func printf(cmd *cobra.Command, format string, a ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, a...)
}
