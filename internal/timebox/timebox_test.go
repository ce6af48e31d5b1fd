package timebox

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Policy{First: 30 * time.Millisecond, Retry: 60 * time.Millisecond}

func TestRun_Completed(t *testing.T) {
	out := Run(context.Background(), time.Second, func(context.Context) (int, error) {
		return 42, nil
	})
	assert.True(t, out.Completed())
	assert.Equal(t, 42, out.Value)
	assert.NoError(t, out.Err)
}

func TestRun_TimedOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	out := Run(context.Background(), 10*time.Millisecond, func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	assert.True(t, out.TimedOut)
	assert.False(t, out.Completed())
}

func TestDo_NoRetryOnOrdinaryError(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")

	_, err := Do(context.Background(), fast, func(context.Context) (string, error) {
		calls.Add(1)
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_RetriesOnceAfterTimeout(t *testing.T) {
	var calls atomic.Int32

	got, err := Do(context.Background(), fast, func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			time.Sleep(100 * time.Millisecond)
			return "late", nil
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_SecondTimeoutSurfaces(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	defer close(release)

	_, err := Do(context.Background(), fast, func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRun_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	release := make(chan struct{})
	defer close(release)

	out := Run(ctx, time.Second, func(context.Context) (int, error) {
		<-release
		return 0, nil
	})
	assert.ErrorIs(t, out.Err, context.Canceled)
}
