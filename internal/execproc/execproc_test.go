package execproc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fxradar/internal/execproc"
)

func TestRunCapturesOutput(t *testing.T) {
	res, err := execproc.Local{}.Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2")
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "out\n", res.Stdout)
	require.Equal(t, "err\n", res.Stderr)
	require.Greater(t, res.Duration.Nanoseconds(), int64(0))
}

func TestRunNonZeroExit(t *testing.T) {
	res, err := execproc.Local{}.Run(context.Background(), "sh", "-c", "exit 3")
	require.Error(t, err)
	require.Equal(t, 3, res.ExitCode)
}

func TestRunMissingBinary(t *testing.T) {
	res, err := execproc.Local{}.Run(context.Background(), "definitely-not-a-binary-fxradar")
	require.Error(t, err)
	require.Equal(t, -1, res.ExitCode)
}
