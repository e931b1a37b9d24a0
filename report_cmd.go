package main

import (
	"github.com/spf13/cobra"

	"github.com/observatorio/mcerdb/importer"
	"github.com/observatorio/mcerdb/report"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		year int
		xlsx string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show enrollment counts, course name coverage and recent runs",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manifest()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			d, err := report.Build(ctx, db, importer.NewClassifier(m.CourseCategories), year)
			if err != nil {
				return withCode(exitDB, err)
			}
			report.RenderDashboard(cmd.OutOrStdout(), d)
			if xlsx != "" {
				if err := report.WriteXLSX(xlsx, d); err != nil {
					return err
				}
				a.log.WithField("path", xlsx).Info("workbook written")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "restrict course categories to one year")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "also write the dashboard to this workbook")
	return cmd
}

