package main

import (
	"github.com/spf13/cobra"

	"github.com/observatorio/mcerdb/migrations"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.connect(ctx, a.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrations.Up(ctx, db.SQLDB(), db.Dialect(), a.log); err != nil {
				return withCode(exitDB, err)
			}
			if err := migrations.InitSchema(ctx, db.SQLDB(), db.Dialect()); err != nil {
				return withCode(exitDB, err)
			}
			a.log.Info("schema is up to date")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.connect(ctx, a.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrations.Status(ctx, db.SQLDB(), db.Dialect(), a.log); err != nil {
				return withCode(exitDB, err)
			}
			return nil
		},
	})
	return cmd
}
