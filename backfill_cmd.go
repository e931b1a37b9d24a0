package main

import (
	"fmt"
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/observatorio/mcerdb/importer"
	"github.com/observatorio/mcerdb/store"
)

func newBackfillCmd(a *app) *cobra.Command {
	var flags sourceFlags
	cmd := &cobra.Command{
		Use:   "backfill-course-names FILE",
		Short: "Fill missing course names on existing enrollments",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := flags.source(args[0])
			if src.Year == 0 {
				return withCode(exitUsage, errors.New("--year is required"))
			}
			m, err := a.manifest()
			if err != nil {
				return err
			}
			f, err := os.Open(src.File)
			if err != nil {
				return withCode(exitValidation, errors.Wrap(err, "open file"))
			}
			defer f.Close()

			ctx := cmd.Context()
			db, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			log := a.log.WithField("source", src.Name)
			var stats *importer.BackfillStats
			err = db.WithTx(ctx, func(tx *store.Tx) (err error) {
				stats, err = importer.BackfillCourseNames(ctx, tx, src, f, m.AliasesFor(src), log)
				return err
			})
			if err != nil {
				if store.IsConnectivity(err) {
					return withCode(exitDB, err)
				}
				var missing *importer.MissingColumnsError
				if errors.As(err, &missing) {
					return withCode(exitValidation, err)
				}
				return withCode(exitUnitFailed, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "actualizados:   %d\n", stats.Updated)
			fmt.Fprintf(out, "sin_cambios:    %d\n", stats.Unchanged)
			fmt.Fprintf(out, "no_encontrados: %d\n", stats.NotFound)
			if stats.CoursesCreated > 0 {
				fmt.Fprintf(out, "cursos_creados: %d\n", stats.CoursesCreated)
			}
			if stats.Skipped > 0 {
				fmt.Fprintf(out, "omitidas:       %d\n", stats.Skipped)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
