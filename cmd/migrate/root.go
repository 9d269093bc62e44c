package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hszk-dev/vidlib/internal/config"
	"github.com/hszk-dev/vidlib/internal/infrastructure/migrations"
)

func newRootCmd(db config.DatabaseConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the vidlib metadata schema",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&db.Driver, "driver", db.Driver, "database driver (postgres or sqlite)")
	cmd.PersistentFlags().StringVar(&db.SQLitePath, "sqlite-path", db.SQLitePath, "SQLite database file")

	cmd.AddCommand(
		newUpCmd(&db),
		newDownCmd(&db),
		newVersionCmd(&db),
	)
	return cmd
}

func newUpCmd(db *config.DatabaseConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := migrations.Up(*db); err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), *db)
		},
	}
}

func newDownCmd(db *config.DatabaseConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "down [N]",
		Short: "Roll back the last N migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				steps = n
			}

			if err := migrations.Down(*db, steps); err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), *db)
		},
	}
}

func newVersionCmd(db *config.DatabaseConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStatus(cmd.OutOrStdout(), *db)
		},
	}
}

func printStatus(w io.Writer, db config.DatabaseConfig) error {
	status, err := migrations.Version(db)
	if err != nil {
		return err
	}

	switch {
	case status.None:
		fmt.Fprintf(w, "%s: no migrations applied\n", db.Driver)
	case status.Dirty:
		fmt.Fprintf(w, "%s: version %d (dirty)\n", db.Driver, status.Version)
	default:
		fmt.Fprintf(w, "%s: version %d\n", db.Driver, status.Version)
	}
	return nil
}
