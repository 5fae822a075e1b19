package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var silosJSON bool

var silosCmd = &cobra.Command{
	Use:   "silos",
	Short: "List indexed silos",
	Long: `Lists every silo with its root, file count and last update, then
warns about silos whose roots nest inside one another (their files are
indexed twice).`,
	Args: cobra.NoArgs,
	RunE: runSilos,
}

var rmCmd = &cobra.Command{
	Use:   "rm <silo>",
	Short: "Remove a silo from the library",
	Long:  `Deletes every chunk and manifest record of a silo and drops it from the registry. Source files are not touched.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

func init() {
	silosCmd.Flags().BoolVar(&silosJSON, "json", false, "output silos as JSON")
	rootCmd.AddCommand(silosCmd)
	rootCmd.AddCommand(rmCmd)
}

func runSilos(cmd *cobra.Command, _ []string) error {
	if siloService == nil {
		return errors.New("silo service not configured")
	}

	silos, err := siloService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list silos: %w", err)
	}

	if silosJSON {
		data, err := json.MarshalIndent(silos, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal silos: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(silos) == 0 {
		cmd.Println("No silos indexed. Run 'llmli add <folder>' to add one.")
		return nil
	}

	if settings != nil {
		cmd.Printf("Database: %s\n", settings.DBPath)
	}
	cmd.Println("Silos:")
	cmd.Println()
	for _, s := range silos {
		cmd.Printf("  %s  %s\n", s.Slug, s.Name)
		cmd.Printf("      Root:  %s\n", s.RootPath)
		cmd.Printf("      Files: %s\n", humanize.Comma(int64(s.FilesIndexed)))
		if !s.UpdatedAt.IsZero() {
			cmd.Printf("      Updated: %s\n", humanize.Time(s.UpdatedAt))
		}
	}

	overlaps, err := siloService.Audit(cmd.Context())
	if err != nil {
		return fmt.Errorf("audit silos: %w", err)
	}
	if len(overlaps) > 0 {
		cmd.Println()
		for _, o := range overlaps {
			cmd.Printf("Warning: %s is inside %s; its files are indexed in both silos.\n",
				o.Inner.RootPath, o.Outer.Slug)
		}
	}
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	if ingestService == nil || siloService == nil {
		return errors.New("ingest service not configured")
	}

	silo, err := siloService.Resolve(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := ingestService.RemoveSilo(cmd.Context(), silo.Slug); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	cmd.Printf("Removed silo %s (%s).\n", silo.Name, silo.Slug)
	return nil
}
