package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"findash/internal/sources"
	"findash/internal/sources/vault"
	"findash/internal/storage"
)

type importOptions struct {
	dir        string
	extensions []string
	db         string
	prune      bool
}

type importSummary struct {
	Database string `json:"database"`
	Imported int    `json:"imported"`
	Removed  int    `json:"removed"`
}

func newImportCmd() *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy the notes of a vault into the SQLite document store",
		Long: `import reads every note of a vault and stores it in the SQLite database
used by DOCUMENT_SOURCE=sqlite. Notes already stored under the same name are
replaced. With --prune, stored notes missing from the vault are deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dir, "dir", "./vault", "vault directory to import")
	f.StringSliceVar(&opts.extensions, "ext", []string{".md"}, "file extensions to read")
	f.StringVar(&opts.db, "db", "./data/findash.db", "SQLite database path")
	f.BoolVar(&opts.prune, "prune", false, "delete stored notes that are no longer in the vault")
	return cmd
}

func runImport(cmd *cobra.Command, opts *importOptions) error {
	repo, err := storage.NewSQLiteRepository(opts.db)
	if err != nil {
		return err
	}
	defer repo.Close()

	written, removed, err := sources.Sync(cmd.Context(), vault.New(opts.dir, opts.extensions...), repo, opts.prune)
	if err != nil {
		return fmt.Errorf("import %s: %w", opts.dir, err)
	}
	return writeJSON(cmd.OutOrStdout(), importSummary{Database: opts.db, Imported: written, Removed: removed})
}
