// Package orchestrator runs import units in declared order and summarizes the run.
package orchestrator

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/observatorio/mcerdb/importer"
	"github.com/observatorio/mcerdb/models"
	"github.com/observatorio/mcerdb/store"
)

type State int

const (
	Pending State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Unit is one isolated import. Run must commit everything or nothing.
type Unit struct {
	Name string
	Run  func(ctx context.Context, log *logrus.Entry) (*importer.Stats, error)
}

type Result struct {
	Name     string
	Position int
	State    State
	Stats    *importer.Stats
	Err      error
	Output   string
	Started  time.Time
	Duration time.Duration
}

type Summary struct {
	RunID     uuid.UUID
	Started   time.Time
	Elapsed   time.Duration
	Results   []Result
	Succeeded int
	Failed    int
	// Aborted is set when the store became unreachable; later units stay Pending.
	Aborted  bool
	AbortErr error
}

func (s *Summary) Pending() int {
	n := 0
	for _, r := range s.Results {
		if r.State == Pending {
			n++
		}
	}
	return n
}

// OK reports whether every unit ran and succeeded.
func (s *Summary) OK() bool {
	return !s.Aborted && s.Failed == 0
}

// RunRecorder persists the run log. *store.DB implements it.
type RunRecorder interface {
	StartRun(ctx context.Context, run models.ImportRun) error
	FinishSource(ctx context.Context, s models.ImportRunSource) error
	FinishRun(ctx context.Context, run models.ImportRun) error
}

// Observer receives per-unit and per-run measurements. *metrics.Recorder implements it.
type Observer interface {
	ObserveUnit(source, state string, counts map[string]int, d time.Duration)
	ObserveRun(finished time.Time, elapsed time.Duration, failed int)
}

type Orchestrator struct {
	log      *logrus.Logger
	units    []Unit
	recorder RunRecorder
	observer Observer
}

type Option func(*Orchestrator)

func WithRecorder(r RunRecorder) Option { return func(o *Orchestrator) { o.recorder = r } }

func WithObserver(m Observer) Option { return func(o *Orchestrator) { o.observer = m } }

func New(log *logrus.Logger, units []Unit, opts ...Option) *Orchestrator {
	o := &Orchestrator{log: log, units: units}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes every unit sequentially. A failing unit never stops the next one;
// only a connectivity failure or cancellation ends the run early.
func (o *Orchestrator) Run(ctx context.Context) *Summary {
	sum := &Summary{
		RunID:   uuid.New(),
		Started: time.Now(),
		Results: make([]Result, len(o.units)),
	}
	for i, u := range o.units {
		sum.Results[i] = Result{Name: u.Name, Position: i + 1, State: Pending}
	}
	runLog := o.log.WithField("run_id", sum.RunID.String())
	runLog.WithField("units", len(o.units)).Info("import run started")
	o.record(ctx, runLog, func(ctx context.Context) error {
		return o.recorder.StartRun(ctx, models.ImportRun{ID: sum.RunID, StartedAt: sum.Started})
	})

	for i, u := range o.units {
		if err := ctx.Err(); err != nil {
			sum.Aborted, sum.AbortErr = true, err
			break
		}
		res := &sum.Results[i]
		res.State = Running
		o.runUnit(ctx, sum.RunID, u, res)

		if res.State == Succeeded {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
		o.finishUnit(ctx, runLog, sum.RunID, res)

		if res.Err != nil && (store.IsConnectivity(res.Err) || ctx.Err() != nil) {
			sum.Aborted, sum.AbortErr = true, res.Err
			runLog.WithError(res.Err).Error("store unreachable, aborting run")
			break
		}
	}

	sum.Elapsed = time.Since(sum.Started)
	o.finishRun(ctx, runLog, sum)
	return sum
}

func (o *Orchestrator) runUnit(ctx context.Context, runID uuid.UUID, u Unit, res *Result) {
	var buf bytes.Buffer
	logger := &logrus.Logger{
		Out:       io.MultiWriter(o.log.Out, &buf),
		Formatter: o.log.Formatter,
		Hooks:     o.log.Hooks,
		Level:     o.log.GetLevel(),
		ExitFunc:  o.log.ExitFunc,
	}
	log := logger.WithFields(logrus.Fields{"run_id": runID.String(), "source": u.Name})

	res.Started = time.Now()
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("panic: %v", p)
			log.WithError(res.Err).Error("import unit panicked")
		}
		res.Duration = time.Since(res.Started)
		if res.Err != nil {
			res.State = Failed
		} else {
			res.State = Succeeded
		}
		res.Output = buf.String()
	}()

	log.Info("import unit started")
	res.Stats, res.Err = u.Run(ctx, log)
	if res.Err != nil {
		log.WithError(res.Err).Error("import unit failed")
	}
}

func (o *Orchestrator) finishUnit(ctx context.Context, log *logrus.Entry, runID uuid.UUID, res *Result) {
	var counts map[string]int
	src := models.ImportRunSource{
		RunID:     runID,
		Position:  res.Position,
		Source:    res.Name,
		Status:    res.State.String(),
		StartedAt: res.Started,
		EndedAt:   res.Started.Add(res.Duration),
	}
	if res.Stats != nil {
		counts = res.Stats.Counts()
		src.RowsRead = res.Stats.RowsRead
		src.RowsSkipped = res.Stats.RowsSkipped
		src.RowsChanged = res.Stats.Changed()
	}
	if res.Err != nil {
		src.Error = sql.NullString{String: res.Err.Error(), Valid: true}
		// the transaction was rolled back, nothing was written
		src.RowsChanged = 0
		counts = map[string]int{"failed": 1}
	}
	if o.observer != nil {
		o.observer.ObserveUnit(res.Name, res.State.String(), counts, res.Duration)
	}
	o.record(ctx, log, func(ctx context.Context) error { return o.recorder.FinishSource(ctx, src) })
}

func (o *Orchestrator) finishRun(ctx context.Context, log *logrus.Entry, sum *Summary) {
	status := models.RunStatusSucceeded
	switch {
	case sum.Aborted:
		status = models.RunStatusAborted
	case sum.Failed > 0:
		status = models.RunStatusFailed
	}
	run := models.ImportRun{
		ID:        sum.RunID,
		StartedAt: sum.Started,
		EndedAt:   sql.NullTime{Time: sum.Started.Add(sum.Elapsed), Valid: true},
		Status:    status,
		Succeeded: sum.Succeeded,
		Failed:    sum.Failed,
	}
	if sum.AbortErr != nil {
		run.Error = sql.NullString{String: sum.AbortErr.Error(), Valid: true}
	}
	if o.observer != nil {
		o.observer.ObserveRun(run.EndedAt.Time, sum.Elapsed, sum.Failed)
	}
	o.record(ctx, log, func(ctx context.Context) error { return o.recorder.FinishRun(ctx, run) })

	log.WithFields(logrus.Fields{
		"status":    status,
		"succeeded": sum.Succeeded,
		"failed":    sum.Failed,
		"pending":   sum.Pending(),
		"elapsed":   sum.Elapsed.Round(time.Millisecond).String(),
	}).Info("import run finished")
}

// record writes to the run log. Failures are logged only: the run log never fails a run.
func (o *Orchestrator) record(ctx context.Context, log *logrus.Entry, fn func(context.Context) error) {
	if o.recorder == nil {
		return
	}
	// the run log must be written even when the run was cancelled
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.WithError(errors.Wrap(err, "run log")).Warn("could not record run")
	}
}
