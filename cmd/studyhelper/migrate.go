package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyhelper/studyhelper/internal/platform/migrate"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|reset|status|version]",
		Short:     "Apply or inspect database schema migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrate.Commands,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := migrate.CommandUp
			if len(args) == 1 {
				command = args[0]
			}

			ctx := cmd.Context()
			db, err := openDB(ctx, c.config.Database, c.logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := runMigrations(ctx, c.config.Database.Driver, db, command, c.logger); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: ok\n", command)
			return err
		},
	}
}
