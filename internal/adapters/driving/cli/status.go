package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show collection size and model availability",
	Long: `Prints the database in use, the number of silos and chunks, and
whether the LLM and rerank models are reachable. Answers fall back to a
source listing while the LLM is unavailable.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if queryService == nil || siloService == nil {
		return errors.New("query service not configured")
	}

	st, err := queryService.Status(cmd.Context())
	if err != nil {
		return err
	}
	silos, err := siloService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list silos: %w", err)
	}

	if statusJSON {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if settings != nil {
		cmd.Printf("Database: %s\n", settings.DBPath)
		cmd.Printf("Embedder: %s (%s)\n", settings.Embedding.Model, settings.Embedding.Provider)
	}
	cmd.Printf("Silos:    %d\n", len(silos))
	cmd.Printf("Chunks:   %s\n", humanize.Comma(int64(st.Chunks)))

	switch {
	case st.LLMReady:
		cmd.Printf("LLM:      %s (ready)\n", st.LLMModel)
	default:
		cmd.Printf("LLM:      %s (unavailable: %s)\n", st.LLMModel, st.LLMProblem)
	}
	if st.RerankModel != "" {
		cmd.Printf("Rerank:   %s\n", st.RerankModel)
	} else {
		cmd.Println("Rerank:   off")
	}
	cmd.Printf("Hybrid:   %t\n", st.Hybrid)
	return nil
}
