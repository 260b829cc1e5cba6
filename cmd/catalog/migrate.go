package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/smallbiznis/catalog/internal/migration"
	"github.com/smallbiznis/catalog/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, conn *gorm.DB) error {
				if err := migration.Run(conn); err != nil {
					return err
				}
				cmd.Println("schema is up to date")
				return nil
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations (postgres only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, conn *gorm.DB) error {
				sqlDB, err := postgresDB(conn)
				if err != nil {
					return err
				}
				if err := migration.Rollback(sqlDB, steps); err != nil {
					return err
				}
				cmd.Printf("rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version (postgres only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, conn *gorm.DB) error {
				sqlDB, err := postgresDB(conn)
				if err != nil {
					return err
				}
				v, dirty, err := migration.Version(sqlDB)
				if err != nil {
					return err
				}
				cmd.Printf("version %d (dirty=%t)\n", v, dirty)
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func withDB(ctx context.Context, fn func(context.Context, *gorm.DB) error) error {
	var conn *gorm.DB
	return runTask(ctx, func(ctx context.Context) error {
		return fn(ctx, conn)
	}, fx.Populate(&conn))
}

func postgresDB(conn *gorm.DB) (*sql.DB, error) {
	if name := conn.Dialector.Name(); name != db.TypePostgres {
		return nil, fmt.Errorf("versioned migrations require postgres, database is %s", name)
	}
	return conn.DB()
}
