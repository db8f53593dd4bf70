// Package commands defines all Cobra CLI commands for the hrlawbot binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hrlawbot/hrlawbot/internal/audit"
	"github.com/hrlawbot/hrlawbot/internal/config"
	"github.com/hrlawbot/hrlawbot/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hrlawbot",
		Short: "HR and labour-law assistant grounded in your own documents",
		Long: `hrlawbot answers HR and labour-law questions from a corpus of documents
you ingest yourself (policies, collective agreements, statutes).

Answers are generated only from retrieved document context and every reply
cites the source documents it relied on. When the corpus does not cover a
question, hrlawbot says so instead of guessing.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.hrlawbot/config.yaml).
See 'hrlawbot --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Load .env first so its values participate in config resolution.
			// A missing .env file is not an error.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.hrlawbot/config.yaml)")

	root.AddCommand(
		NewIngestCmd(),
		NewAskCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return root
}
