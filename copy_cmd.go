package main

import (
	"strconv"

	"github.com/go-faster/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/observatorio/mcerdb/store"
)

func newCopyCmd(a *app) *cobra.Command {
	var (
		tables []string
		yes    bool
	)
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Replace the target tables with the contents of the COPY_SOURCE_ database",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return withCode(exitUsage, errors.New("copy replaces every target table; pass --yes to confirm"))
			}
			if a.cfg.CopySource == a.cfg.Database {
				return withCode(exitValidation, errors.New("copy source and target are the same database"))
			}
			ctx := cmd.Context()
			src, err := a.connect(ctx, a.cfg.CopySource)
			if err != nil {
				return err
			}
			defer src.Close()
			dst, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer dst.Close()

			log := a.log.WithField("from", src.Dialect()).WithField("to", dst.Dialect())
			counts, err := store.CopyTables(ctx, src, dst, tables, log)
			if err != nil {
				if store.IsConnectivity(err) {
					return withCode(exitDB, err)
				}
				return withCode(exitUnitFailed, err)
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Tabla", "Filas"})
			table.SetAutoFormatHeaders(false)
			for _, name := range tables {
				table.Append([]string{name, strconv.FormatInt(counts[name], 10)})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&tables, "tables", store.DomainTables, "tables to copy, parents first")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm that target tables are replaced")
	return cmd
}
