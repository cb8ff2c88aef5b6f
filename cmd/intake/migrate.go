package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"archieos.app/intake/core/config"
	"archieos.app/intake/core/db"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the intake schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *db.Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				color.Green("✓ schema is up to date")
				return printVersion(m)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *db.Migrator) error {
				if err := m.Down(steps); err != nil {
					return err
				}
				color.Yellow("↓ rolled back %d step(s)", max(steps, 1))
				return printVersion(m)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(printVersion)
		},
	})

	return cmd
}

func withMigrator(fn func(m *db.Migrator) error) error {
	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	m, err := db.NewMigrator(cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}

func printVersion(m *db.Migrator) error {
	version, dirty, ok, err := m.Version()
	if err != nil {
		return err
	}
	switch {
	case !ok:
		fmt.Println("schema version: none")
	case dirty:
		color.Red("schema version: %d (dirty)", version)
	default:
		fmt.Printf("schema version: %d\n", version)
	}
	return nil
}
