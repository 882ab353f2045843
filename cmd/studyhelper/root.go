package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/studyhelper/studyhelper/internal/config"
	"github.com/studyhelper/studyhelper/internal/platform/logger"
)

// cli holds state shared by the subcommands.
type cli struct {
	configPath string

	config *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "studyhelper",
		Short: "Personal flashcard study tool",
		Long: `studyhelper keeps subjects and their question/answer pairs, serves them
over a JSON HTTP API and imports new subjects from a remote study source.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default ./config.yaml)")

	root.AddCommand(newServeCmd(c), newMigrateCmd(c), newImportCmd(c))
	return root
}

// load reads the configuration and sets up logging. Log output goes to the
// command's error stream so stdout stays free for command results.
func (c *cli) load(cmd *cobra.Command) error {
	cfg, err := config.LoadFile(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.SetupWithWriter(cfg.Server, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Debug("configuration loaded",
		slog.String("database_driver", cfg.Database.Driver),
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	c.config = cfg
	c.logger = log
	return nil
}
