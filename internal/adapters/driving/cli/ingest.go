package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

// Index modes.
const (
	modeFull        = "full"
	modeIncremental = "incremental"
)

var (
	indexMode string

	addIncremental bool
	addInclude     []string
	addExclude     []string
	addAllowCloud  bool
)

var indexCmd = &cobra.Command{
	Use:   "index <root>",
	Short: "Build or rebuild the silo for a folder",
	Long: `Indexes every supported file under root into its silo.

In full mode (the default) the silo's chunks and manifest are dropped and
rebuilt from scratch. In incremental mode only new and changed files are
re-ingested and files that disappeared are removed.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

var addCmd = &cobra.Command{
	Use:   "add <root>",
	Short: "Add a folder to the library",
	Long: `Adds a folder as a silo, or refreshes an existing one.

Files under cloud-sync folders (OneDrive, iCloud, Dropbox, Google Drive)
are refused unless --allow-cloud is set. Secret files such as .env and
private keys are never ingested.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	indexCmd.Flags().StringVar(&indexMode, "mode", modeFull, "index mode: full or incremental")
	addIngestFlags(indexCmd)
	rootCmd.AddCommand(indexCmd)

	addCmd.Flags().BoolVar(&addIncremental, "incremental", false, "skip files whose content hash is unchanged")
	addIngestFlags(addCmd)
	rootCmd.AddCommand(addCmd)
}

func addIngestFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&addInclude, "include", nil, "only ingest paths matching this glob (repeatable)")
	cmd.Flags().StringSliceVar(&addExclude, "exclude", nil, "skip paths matching this glob (repeatable)")
	cmd.Flags().BoolVar(&addAllowCloud, "allow-cloud", false, "allow roots inside cloud-sync folders")
}

func addRequest(root string, incremental bool) domain.AddRequest {
	return domain.AddRequest{
		Root:        root,
		AllowCloud:  addAllowCloud,
		Incremental: incremental,
		Include:     addInclude,
		Exclude:     addExclude,
	}
}

func runIndex(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	var (
		res *domain.AddResult
		err error
	)
	switch indexMode {
	case modeFull:
		res, err = ingestService.RunIndex(cmd.Context(), addRequest(args[0], false))
	case modeIncremental:
		res, err = ingestService.RunAdd(cmd.Context(), addRequest(args[0], true))
	default:
		return fmt.Errorf("unknown mode %q (want full or incremental): %w", indexMode, domain.ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	printAddResult(cmd, res)
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	res, err := ingestService.RunAdd(cmd.Context(), addRequest(args[0], addIncremental))
	if err != nil {
		return fmt.Errorf("add failed: %w", err)
	}
	printAddResult(cmd, res)
	return nil
}

func printAddResult(cmd *cobra.Command, res *domain.AddResult) {
	cmd.Printf("Indexed %s (%s): %s files\n", res.Silo.Name, res.Silo.Slug, humanize.Comma(int64(res.FilesIndexed)))
	cmd.Printf("  added %d, updated %d, unchanged %d, skipped %d, removed %d\n",
		res.FilesAdded, res.FilesUpdated, res.FilesUnchanged, res.FilesSkipped, res.FilesRemoved)
	cmd.Printf("  chunks: +%s -%s\n", humanize.Comma(int64(res.ChunksAdded)), humanize.Comma(int64(res.ChunksDeleted)))
	switch {
	case res.SecretsRefused > 0:
		cmd.Printf("  %d failed, %d of them secret files refused on every run (run with --verbose for details)\n",
			res.Failures, res.SecretsRefused)
	case res.Failures > 0:
		cmd.Printf("  %d failed (run with --verbose for details)\n", res.Failures)
	}
}
