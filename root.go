package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/observatorio/mcerdb/config"
	"github.com/observatorio/mcerdb/importer"
	"github.com/observatorio/mcerdb/migrations"
	"github.com/observatorio/mcerdb/store"
)

// app carries what every command needs once configuration is loaded.
type app struct {
	envFiles []string
	cfg      *config.Configuration
	log      *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "mcerdb",
		Short:         "Import yearly CSV exports of the MCER observatory into its database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.envFiles...)
			if err != nil {
				return withCode(exitValidation, err)
			}
			a.cfg = cfg
			a.log = cfg.Logger()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.cfg != nil {
				a.cfg.Unload()
			}
		},
	}
	cmd.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "env files to load (default .env, .env.local)")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})

	cmd.AddCommand(newRunCmd(a))
	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newBackfillCmd(a))
	cmd.AddCommand(newCopyCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newReportCmd(a))
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}

// connect opens the store described by opts. Failures are database errors.
func (a *app) connect(ctx context.Context, opts config.DatabaseOptions) (*store.DB, error) {
	dsn, err := opts.DSN()
	if err != nil {
		return nil, withCode(exitValidation, err)
	}
	db, err := store.Open(ctx, opts.Driver, dsn, opts.MaxOpenConns)
	if err != nil {
		return nil, withCode(exitDB, err)
	}
	return db, nil
}

// openStore connects to the target store and makes sure its schema is current.
func (a *app) openStore(ctx context.Context) (*store.DB, error) {
	db, err := a.connect(ctx, a.cfg.Database)
	if err != nil {
		return nil, err
	}
	if a.cfg.AutoMigrate {
		if err := migrations.Up(ctx, db.SQLDB(), db.Dialect(), a.log); err != nil {
			_ = db.Close()
			return nil, withCode(exitDB, err)
		}
	}
	if err := migrations.InitSchema(ctx, db.SQLDB(), db.Dialect()); err != nil {
		_ = db.Close()
		return nil, withCode(exitDB, err)
	}
	return db, nil
}

func (a *app) manifest() (*importer.Manifest, error) {
	m, err := importer.LoadManifest(a.cfg.SourcesManifest)
	if err != nil {
		return nil, withCode(exitValidation, err)
	}
	return m, nil
}
