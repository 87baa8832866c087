package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/safecase-systems/safecase/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down]",
	Short: "Apply or roll back database migrations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		m, err := migrate.New("file://migrations", cfg.Database.Postgres.ConnString())
		if err != nil {
			return fmt.Errorf("initializing migrations: %w", err)
		}

		switch args[0] {
		case "up":
			err = m.Up()
		case "down":
			err = m.Down()
		default:
			return fmt.Errorf("unknown direction %q, want up or down", args[0])
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("running migrations: %w", err)
		}

		fmt.Println("migrations applied")
		return nil
	},
}
