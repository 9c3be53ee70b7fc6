package benchmark

import (
	"context"
	"errors"
	"testing"
	"time"

	"FMGoalMusic/internal/latency"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunSyntheticPasses(t *testing.T) {
	t.Parallel()

	rec := latency.NewRecorder(80 * time.Millisecond)
	tick := SyntheticTick(time.Millisecond, 100*time.Microsecond, 2*time.Millisecond, 50*time.Microsecond)

	rep, err := Run(context.Background(), Config{Warmup: 5, Iterations: 30}, rec, tick, zap.NewNop().Sugar())
	require.NoError(t, err)

	// прогрев сброшен: в отчёте ровно измеряемые тики
	assert.Equal(t, 30, rep.Total.Count)
	require.Len(t, rep.Stages, 4)
	assert.True(t, rep.Pass, "synthetic stage durations fit the budget: %s", rep.Render())
	assert.Equal(t, latency.StageRecognize, rep.Slowest)
}

func TestRunAbortsOnTickError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("capture lost")
	calls := 0
	tick := func(tt *latency.TickTimer) error {
		calls++
		if calls == 3 {
			return sentinel
		}
		tt.Done()
		return nil
	}

	rec := latency.NewRecorder(0)
	_, err := Run(context.Background(), Config{Iterations: 100}, rec, tick, zap.NewNop().Sugar())
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls, "first error stops the run")
}

func TestRunHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := latency.NewRecorder(0)
	_, err := Run(ctx, Config{Warmup: 1, Iterations: 10}, rec, SyntheticTick(0, 0, 0, 0), zap.NewNop().Sugar())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunDefaultsIterations(t *testing.T) {
	t.Parallel()

	calls := 0
	tick := func(tt *latency.TickTimer) error {
		calls++
		tt.Done()
		return nil
	}
	rec := latency.NewRecorder(0)
	_, err := Run(context.Background(), Config{Iterations: 0, Warmup: -3}, rec, tick, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, 500, calls)
}
