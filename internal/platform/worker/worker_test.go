package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleTickerLoop_RunOnStartAndCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32

	stopped := false

	errCh := make(chan error, 1)
	go func() {
		errCh <- SingleTickerLoop(ctx, SingleTickerConfig{
			Name:       "test",
			Interval:   time.Hour,
			RunOnStart: true,
			OnTick:     func(context.Context) { ticks.Add(1) },
			OnStop:     func() { stopped = true },
		})
	}()

	assert.Eventually(t, func() bool { return ticks.Load() == 1 }, time.Second, time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after cancellation")
	}

	assert.True(t, stopped)
	assert.Equal(t, int32(1), ticks.Load())
}

func TestSingleTickerLoop_TicksAtInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks atomic.Int32

	go func() {
		_ = SingleTickerLoop(ctx, SingleTickerConfig{
			Name:     "test",
			Interval: 5 * time.Millisecond,
			OnTick:   func(context.Context) { ticks.Add(1) },
		})
	}()

	assert.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, time.Millisecond)
}

func TestWait_Elapses(t *testing.T) {
	require.NoError(t, Wait(context.Background(), time.Millisecond))
	require.NoError(t, Wait(context.Background(), 0))
}

func TestWait_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, Wait(ctx, time.Minute), context.Canceled)
}

func TestRecoverPanic(t *testing.T) {
	logger := zerolog.Nop()

	require.NotPanics(t, func() {
		defer RecoverPanic(&logger, "test op")
		panic("boom")
	})
}
