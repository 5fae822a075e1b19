package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

var (
	askSilo     string
	askN        int
	askNoRerank bool
	askNoColour bool
)

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Ask a question of the library",
	Long: `Answers a question from the indexed documents with cited sources.

The question is routed to an intent, answered deterministically when a
guardrail applies (CSV rank lookups, tax form fields, project counts),
and otherwise by the LLM over retrieved chunks. When the LLM is
unreachable the sources are listed without a synthesised answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSilo, "silo", "s", "", "limit to one silo (slug, slug prefix or name)")
	askCmd.Flags().IntVarP(&askN, "n", "n", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askNoRerank, "no-rerank", false, "skip the cross-encoder rerank stage")
	askCmd.Flags().BoolVar(&askNoColour, "no-color", false, "disable coloured output")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}
	if askN < 0 {
		return fmt.Errorf("--n must be positive: %w", domain.ErrInvalidInput)
	}

	answer, err := queryService.Ask(cmd.Context(), domain.AskRequest{
		Query:    query,
		Silo:     askSilo,
		N:        askN,
		NoRerank: askNoRerank,
	})
	if err != nil {
		return err
	}

	text := answer.Text
	if useColour(cmd.OutOrStdout(), askNoColour) {
		text = styleAnswer(text, answer.Degraded)
	}
	cmd.Println(text)
	return nil
}
