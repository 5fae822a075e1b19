// Package cli is the cobra command tree for llmli.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/llmli/internal/config"
	"github.com/custodia-labs/llmli/internal/core/ports/driving"
	"github.com/custodia-labs/llmli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services is the wired application the commands run against.
type Services struct {
	Ingest   driving.IngestService
	Query    driving.QueryService
	Silos    driving.SiloService
	Settings *config.Settings

	// Close releases the collection and other handles. Optional.
	Close func() error
}

// Factory builds Services for the database at dbPath. An empty dbPath
// falls back to LLMLIBRARIAN_DB and then the default.
type Factory func(ctx context.Context, dbPath string) (*Services, error)

// skipServices marks commands that run without a database.
const skipServices = "skip-services"

var (
	dbPath  string
	verbose bool

	factory  Factory
	services *Services

	ingestService driving.IngestService
	queryService  driving.QueryService
	siloService   driving.SiloService
	settings      *config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "llmli",
	Short: "Local-first librarian for your personal documents",
	Long: `llmli indexes folders of documents, code, spreadsheets, PDFs and
archives into a local vector collection and answers questions about them
with cited sources. Each indexed folder becomes a silo that can be queried
on its own or together with every other silo.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database directory (default $LLMLIBRARIAN_DB or ./my_brain_db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the command tree with services built by f.
func Execute(ctx context.Context, f Factory) error {
	factory = f
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, closeServices())
}

// setupServices builds the services once per process unless a command opts out.
func setupServices(cmd *cobra.Command, _ []string) error {
	configureLogging()
	if cmd.Annotations[skipServices] == "true" || queryService != nil {
		return nil
	}
	if factory == nil {
		return errors.New("services not configured")
	}
	svc, err := factory(cmd.Context(), dbPath)
	if err != nil {
		return err
	}
	setServices(svc)
	return nil
}

// configureLogging applies --verbose, else LLMLIBRARIAN_LOG_LEVEL.
func configureLogging() {
	if verbose {
		logger.SetVerbose(true)
		return
	}
	level, _ := logger.ParseLevel(os.Getenv("LLMLIBRARIAN_LOG_LEVEL"))
	logger.SetLevel(level)
}

func setServices(svc *Services) {
	services = svc
	ingestService = svc.Ingest
	queryService = svc.Query
	siloService = svc.Silos
	settings = svc.Settings
}

func closeServices() error {
	if services == nil || services.Close == nil {
		return nil
	}
	err := services.Close()
	services.Close = nil
	return err
}
