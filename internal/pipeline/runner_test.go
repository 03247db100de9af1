package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"fxradar/internal/pipeline"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecuteAllOK(t *testing.T) {
	var order []string
	stages := []pipeline.Stage{
		{Name: "first", Criticality: pipeline.Critical, Action: func(ctx context.Context) error {
			order = append(order, "first")
			return nil
		}},
		{Name: "second", Criticality: pipeline.Optional, Action: func(ctx context.Context) error {
			order = append(order, "second")
			return nil
		}},
	}

	run, err := pipeline.NewRunner(discard(), stages).Execute(context.Background(), "2026-02-14")
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, order)
	require.NotEmpty(t, run.ID)
	require.Equal(t, "2026-02-14", run.Date)
	require.Len(t, run.Stages, 2)
	for _, st := range run.Stages {
		require.Equal(t, pipeline.StatusOK, st.Status)
		require.Empty(t, st.Cause)
	}
	require.Nil(t, run.Fatal())
}

func TestExecuteCriticalFailureAborts(t *testing.T) {
	downstream := false
	stages := []pipeline.Stage{
		{Name: "boom", Criticality: pipeline.Critical, Action: func(ctx context.Context) error {
			return errors.New("raw snapshot gone")
		}},
		{Name: "never", Criticality: pipeline.Optional, Action: func(ctx context.Context) error {
			downstream = true
			return nil
		}},
	}

	run, err := pipeline.NewRunner(discard(), stages).Execute(context.Background(), "2026-02-14")
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
	require.Contains(t, err.Error(), run.ID)
	require.False(t, downstream)

	require.Len(t, run.Stages, 1)
	fatal := run.Fatal()
	require.NotNil(t, fatal)
	require.Equal(t, "boom", fatal.Name)
	require.Equal(t, pipeline.StatusFatal, fatal.Status)
	require.Equal(t, "raw snapshot gone", fatal.Cause)
}

func TestExecuteOptionalFailureContinues(t *testing.T) {
	ran := false
	stages := []pipeline.Stage{
		{Name: "flaky", Criticality: pipeline.Optional, Action: func(ctx context.Context) error {
			return errors.New("index offline")
		}},
		{Name: "after", Criticality: pipeline.Critical, Action: func(ctx context.Context) error {
			ran = true
			return nil
		}},
	}

	run, err := pipeline.NewRunner(discard(), stages).Execute(context.Background(), "2026-02-14")
	require.NoError(t, err)
	require.True(t, ran)

	require.Len(t, run.Stages, 2)
	require.Equal(t, pipeline.StatusWarn, run.Stages[0].Status)
	require.Equal(t, "index offline", run.Stages[0].Cause)
	require.Equal(t, pipeline.StatusOK, run.Stages[1].Status)
	require.Nil(t, run.Fatal())
}
