package main

import (
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/observatorio/mcerdb/importer"
	"github.com/observatorio/mcerdb/metrics"
	"github.com/observatorio/mcerdb/orchestrator"
)

type sourceFlags struct {
	name      string
	kind      string
	year      int
	course    string
	delimiter string
	encoding  string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "source name for the run log (default file name)")
	cmd.Flags().IntVar(&f.year, "year", 0, "year for rows without an anio column")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", ";", "field delimiter (\"tab\" for tab separated)")
	cmd.Flags().StringVar(&f.encoding, "encoding", "utf-8", "file encoding: utf-8, latin1 or windows-1252")
}

func (f *sourceFlags) source(file string) importer.Source {
	name := f.name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	return importer.Source{
		Name:          name,
		Kind:          importer.Kind(f.kind),
		File:          file,
		Year:          f.year,
		DefaultCourse: f.course,
		Delimiter:     f.delimiter,
		Encoding:      f.encoding,
	}
}

func newImportCmd(a *app) *cobra.Command {
	var (
		flags      sourceFlags
		showOutput bool
	)
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a single CSV file outside the manifest",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := flags.source(args[0])
			switch src.Kind {
			case importer.KindPersons, importer.KindInstitutions, importer.KindEnrollment, importer.KindAttendance:
			default:
				return withCode(exitUsage, errors.Errorf("unknown kind %q", src.Kind))
			}
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

			r := &runner{
				app:        a,
				db:         db,
				units:      []orchestrator.Unit{orchestrator.SourceUnit(db, m, src, "")},
				recorder:   metrics.New(),
				out:        cmd.OutOrStdout(),
				showOutput: showOutput,
			}
			return summaryError(r.once(ctx))
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.kind, "kind", string(importer.KindEnrollment), "persons, institutions, enrollment or attendance")
	cmd.Flags().StringVar(&flags.course, "course", "", "course name for rows without one")
	cmd.Flags().BoolVar(&showOutput, "show-output", false, "print the captured log when the import fails")
	return cmd
}
