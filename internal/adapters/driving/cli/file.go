package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/llmli/internal/connectors/filesystem"
	"github.com/custodia-labs/llmli/internal/core/domain"
)

var (
	fileSilo       string
	fileAllowCloud bool
)

var updateFileCmd = &cobra.Command{
	Use:   "update-file <path>",
	Short: "Re-ingest one file of a silo",
	Long: `Re-ingests a single file into an existing silo. The path may be a
plain path or a source link copied from an answer (file:// or editor link).`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdateFile,
}

var removeFileCmd = &cobra.Command{
	Use:   "remove-file <path>",
	Short: "Remove one file from a silo",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoveFile,
}

func init() {
	updateFileCmd.Flags().StringVar(&fileSilo, "silo", "", "silo the file belongs to (required)")
	updateFileCmd.Flags().BoolVar(&fileAllowCloud, "allow-cloud", false, "allow files inside cloud-sync folders")
	_ = updateFileCmd.MarkFlagRequired("silo")
	rootCmd.AddCommand(updateFileCmd)

	removeFileCmd.Flags().StringVar(&fileSilo, "silo", "", "silo the file belongs to (required)")
	_ = removeFileCmd.MarkFlagRequired("silo")
	rootCmd.AddCommand(removeFileCmd)
}

func runUpdateFile(cmd *cobra.Command, args []string) error {
	if ingestService == nil || siloService == nil {
		return errors.New("ingest service not configured")
	}

	silo, err := siloService.Resolve(cmd.Context(), fileSilo)
	if err != nil {
		return err
	}
	status, path, err := ingestService.UpdateSingleFile(cmd.Context(), filesystem.ResolvePath(args[0]), silo.Slug, fileAllowCloud)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	printFileStatus(cmd, status, path, silo)
	return nil
}

func runRemoveFile(cmd *cobra.Command, args []string) error {
	if ingestService == nil || siloService == nil {
		return errors.New("ingest service not configured")
	}

	silo, err := siloService.Resolve(cmd.Context(), fileSilo)
	if err != nil {
		return err
	}
	status, path, err := ingestService.RemoveSingleFile(cmd.Context(), filesystem.ResolvePath(args[0]), silo.Slug)
	if err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	printFileStatus(cmd, status, path, silo)
	return nil
}

func printFileStatus(cmd *cobra.Command, status domain.FileStatus, path string, silo *domain.Silo) {
	switch status {
	case domain.FileUpdated:
		cmd.Printf("Updated %s in %s.\n", path, silo.Slug)
	case domain.FileUnchanged:
		cmd.Printf("%s is unchanged.\n", path)
	case domain.FileRemoved:
		cmd.Printf("Removed %s from %s.\n", path, silo.Slug)
	case domain.FileMissing:
		cmd.Printf("%s was not indexed in %s.\n", path, silo.Slug)
	}
}
