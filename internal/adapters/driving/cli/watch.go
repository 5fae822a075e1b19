package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/llmli/internal/connectors/filesystem"
	"github.com/custodia-labs/llmli/internal/core/domain"
)

var (
	watchAllowCloud bool
	watchDebounce   time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <root>",
	Short: "Keep a silo current as files change",
	Long: `Brings the silo for root up to date with an incremental add, then
watches the folder and re-ingests files as they are created, changed or
removed. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchAllowCloud, "allow-cloud", false, "allow roots inside cloud-sync folders")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", filesystem.DefaultDebounce, "quiet period before a change is applied")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := ingestService.RunAdd(ctx, domain.AddRequest{
		Root:        args[0],
		AllowCloud:  watchAllowCloud,
		Incremental: true,
	})
	if err != nil {
		return fmt.Errorf("initial add failed: %w", err)
	}
	printAddResult(cmd, res)

	out := cmd.OutOrStdout()
	w := filesystem.NewWatcher(res.Silo.RootPath, res.Silo.Slug, ingestService, filesystem.WatchOptions{
		Debounce:   watchDebounce,
		AllowCloud: watchAllowCloud,
		OnApplied: func(a filesystem.Applied) {
			if a.Err != nil || a.Status == domain.FileUnchanged || a.Status == domain.FileMissing {
				return
			}
			fmt.Fprintf(out, "%s %s\n", a.Status, a.Change.Path)
		},
	})
	cmd.Printf("Watching %s. Press Ctrl-C to stop.\n", res.Silo.RootPath)
	return w.Run(ctx)
}
