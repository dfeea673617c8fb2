// Package main is the entry point for the citar CLI, which runs the citation
// pipeline from the terminal against the same sources as the HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/helixir/citation-service/internal/app"
	"github.com/helixir/citation-service/internal/citation"
	"github.com/helixir/citation-service/internal/config"
	"github.com/helixir/citation-service/internal/observability"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the citar CLI.
var rootCmd = &cobra.Command{
	Use:   "citar",
	Short: "Find scientific articles and insert APA citations",
	Long: `citar queries PubMed and Google Scholar for articles related to a topic or
a text, and renders the results as APA 7 references.

Configuration is read from config.yaml and CITAS_* environment variables, the
same way the HTTP service reads it. The SerpAPI key is taken from
CITAS_PAPER_SOURCES_SCHOLAR_API_KEY.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "output results as JSON")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level written to stderr")
}

// newService loads configuration and builds the pipeline for one command.
func newService(cmd *cobra.Command) (*citation.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level, _ := cmd.Flags().GetString("log-level")
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  level,
		Format: "console",
		Output: "stderr",
	})
	return app.NewService(cfg, nil, logger)
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
