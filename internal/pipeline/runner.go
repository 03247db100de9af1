// Package pipeline executes a declarative table of named stages for one
// dated invocation. Stages run sequentially with a single attempt each;
// a critical failure aborts the run, an optional failure logs a warning
// and execution continues.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Criticality decides how a stage failure is handled.
type Criticality string

const (
	Critical Criticality = "critical"
	Optional Criticality = "optional"
)

// Status is a stage outcome. There are no other states.
type Status string

const (
	StatusOK    Status = "ok"
	StatusWarn  Status = "warn"
	StatusFatal Status = "fatal"
)

// Stage is one row of the stage table. Action must be idempotent:
// re-running with unchanged inputs must not duplicate or corrupt output.
type Stage struct {
	Name        string
	Criticality Criticality
	Action      func(ctx context.Context) error
}

// StageResult records one executed stage.
type StageResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Cause    string        `json:"cause,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Run is the ephemeral record of one pipeline invocation.
type Run struct {
	ID        string        `json:"id"`
	Date      string        `json:"date"`
	StartedAt time.Time     `json:"started_at"`
	Stages    []StageResult `json:"stages"`
}

// Fatal returns the fatal stage result, if any.
func (r *Run) Fatal() *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Status == StatusFatal {
			return &r.Stages[i]
		}
	}
	return nil
}

// Runner executes a fixed stage table.
type Runner struct {
	log    *slog.Logger
	stages []Stage
}

// NewRunner builds a Runner over an ordered stage table.
func NewRunner(log *slog.Logger, stages []Stage) *Runner {
	return &Runner{log: log, stages: stages}
}

// Execute runs every stage in order for date. The returned error is the
// single-line cause of the fatal stage, if one occurred; the Run record
// always covers every attempted stage.
func (r *Runner) Execute(ctx context.Context, date string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Date:      date,
		StartedAt: time.Now().UTC(),
		Stages:    make([]StageResult, 0, len(r.stages)),
	}

	r.log.Info("pipeline run starting", slog.String("run_id", run.ID), slog.String("date", date))

	for _, stage := range r.stages {
		start := time.Now()
		err := stage.Action(ctx)
		result := StageResult{Name: stage.Name, Status: StatusOK, Duration: time.Since(start)}

		if err != nil {
			result.Cause = err.Error()
			if stage.Criticality == Critical {
				result.Status = StatusFatal
				run.Stages = append(run.Stages, result)
				r.log.Error("critical stage failed, aborting run",
					slog.String("run_id", run.ID),
					slog.String("stage", stage.Name),
					slog.Any("err", err),
				)
				return run, fmt.Errorf("stage %s: %s (see run %s log)", stage.Name, err, run.ID)
			}
			result.Status = StatusWarn
			r.log.Warn("optional stage failed, continuing",
				slog.String("run_id", run.ID),
				slog.String("stage", stage.Name),
				slog.Any("err", err),
			)
		} else {
			r.log.Info("stage done",
				slog.String("run_id", run.ID),
				slog.String("stage", stage.Name),
				slog.Duration("took", result.Duration),
			)
		}
		run.Stages = append(run.Stages, result)
	}

	r.log.Info("pipeline run finished", slog.String("run_id", run.ID), slog.String("date", date))
	return run, nil
}
