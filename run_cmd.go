package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/observatorio/mcerdb/metrics"
	"github.com/observatorio/mcerdb/orchestrator"
	"github.com/observatorio/mcerdb/report"
	"github.com/observatorio/mcerdb/store"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		only       []string
		every      time.Duration
		showOutput bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import every source of the manifest in order",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.manifest()
			if err != nil {
				return err
			}
			sources, err := m.Select(only)
			if err != nil {
				return withCode(exitUsage, err)
			}
			db, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			r := &runner{
				app:        a,
				db:         db,
				units:      orchestrator.SourceUnits(db, m, sources, a.cfg.DataDir),
				recorder:   metrics.New(),
				out:        cmd.OutOrStdout(),
				showOutput: showOutput,
			}
			if every <= 0 {
				return summaryError(r.once(ctx))
			}
			return r.schedule(ctx, every)
		},
	}
	cmd.Flags().StringSliceVar(&only, "only", nil, "import only these sources (manifest names)")
	cmd.Flags().DurationVar(&every, "every", 0, "repeat the run on this interval until interrupted")
	cmd.Flags().BoolVar(&showOutput, "show-output", false, "print the captured log of failed sources")
	return cmd
}

type runner struct {
	app        *app
	db         *store.DB
	units      []orchestrator.Unit
	recorder   *metrics.Recorder
	out        io.Writer
	showOutput bool
}

func (r *runner) once(ctx context.Context) *orchestrator.Summary {
	o := orchestrator.New(r.app.log, r.units,
		orchestrator.WithRecorder(r.db),
		orchestrator.WithObserver(r.recorder),
	)
	sum := o.Run(ctx)
	report.RenderSummary(r.out, sum)
	if r.showOutput {
		report.RenderFailureOutput(r.out, sum)
	}
	if path := r.app.cfg.MetricsFile; path != "" {
		if err := r.recorder.WriteTextfile(path); err != nil {
			r.app.log.WithError(err).WithField("path", path).Warn("could not write metrics")
		}
	}
	return sum
}

// schedule runs immediately and then on every tick. Runs never overlap.
func (r *runner) schedule(ctx context.Context, every time.Duration) error {
	scheduler := gocron.NewScheduler(time.Local)
	scheduler.SingletonModeAll()
	_, err := scheduler.Every(every).Do(func() {
		if sum := r.once(ctx); !sum.OK() {
			r.app.log.WithError(summaryError(sum)).Warn("scheduled run finished with failures")
		}
	})
	if err != nil {
		return withCode(exitUsage, errors.Wrap(err, "schedule run"))
	}
	r.app.log.WithField("every", every.String()).Info("scheduler started")
	scheduler.StartAsync()
	<-ctx.Done()
	scheduler.Stop()
	r.app.log.Info("scheduler stopped")
	return nil
}

func summaryError(sum *orchestrator.Summary) error {
	switch {
	case sum.Aborted && store.IsConnectivity(sum.AbortErr):
		return withCode(exitDB, errors.Wrap(sum.AbortErr, "run aborted"))
	case sum.Aborted:
		return withCode(exitUnitFailed, errors.Wrap(sum.AbortErr, "run aborted"))
	case sum.Failed > 0:
		return withCode(exitUnitFailed, fmt.Errorf("%d of %d sources failed", sum.Failed, len(sum.Results)))
	}
	return nil
}
