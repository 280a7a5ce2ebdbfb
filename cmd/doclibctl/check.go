package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"doclib/internal/model"
	"doclib/internal/repository/jsonfile"
)

// problem is one inconsistency found in the library.
type problem struct {
	Kind   string
	Detail string
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify metadata and stored files agree",
		Long: `Check reports:
  - a metadata file that is not a JSON array of records
  - duplicate document ids
  - records whose stored file is missing
  - files in the documents directory no record points at
  - scratch files left behind by an interrupted metadata write`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := opts.library()
			if err != nil {
				return err
			}
			problems, err := checkLibrary(opts.dir, lib.Path())
			if err != nil {
				return err
			}
			for _, p := range problems {
				printf(cmd, "%s: %s\n", p.Kind, p.Detail)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d problem(s) found", len(problems))
			}
			printf(cmd, "ok\n")
			return nil
		},
	}
}

func checkLibrary(dir, metadataPath string) ([]problem, error) {
	var problems []problem

	raw, err := os.ReadFile(metadataPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	var docs []model.Document
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &docs); err != nil {
			problems = append(problems, problem{Kind: "corrupt", Detail: fmt.Sprintf("%s: %v", metadataPath, err)})
			return problems, nil
		}
	}

	seen := make(map[string]bool, len(docs))
	referenced := make(map[string]bool, len(docs))
	for _, d := range docs {
		if seen[d.ID] {
			problems = append(problems, problem{Kind: "duplicate", Detail: d.ID})
		}
		seen[d.ID] = true
		if !d.HasBinary() {
			continue
		}
		referenced[filepath.Clean(d.Path)] = true
		if _, err := os.Stat(d.Path); errors.Is(err, os.ErrNotExist) {
			problems = append(problems, problem{Kind: "missing", Detail: fmt.Sprintf("%s -> %s", d.ID, d.Path)})
		}
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(root, e.Name())
		switch {
		case p == filepath.Clean(metadataPath) || referenced[p]:
		case jsonfile.IsTempFile(e.Name()):
			problems = append(problems, problem{Kind: "stale-temp", Detail: p})
		case strings.HasPrefix(e.Name(), "."):
		default:
			problems = append(problems, problem{Kind: "orphan", Detail: p})
		}
	}
	return problems, nil
}
