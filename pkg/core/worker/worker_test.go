package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type readyGate chan struct{}

func (g readyGate) WaitReady(ctx context.Context) error {
	select {
	case <-g:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type shutdownRecorder struct {
	called atomic.Bool
}

func (s *shutdownRecorder) Shutdown(...fx.ShutdownOption) error {
	s.called.Store(true)
	return nil
}

func newWorker(run func(ctx context.Context) error, gate readyGate, sd *shutdownRecorder, opts Options) *baseWorker {
	return &baseWorker{
		name:       "feed",
		log:        zap.NewNop(),
		runFunc:    run,
		readiness:  gate,
		shutdowner: sd,
		options:    opts,
	}
}

func TestOptions(t *testing.T) {
	opts := Options{}
	WithReady()(&opts)
	WithShutdown()(&opts)

	assert.True(t, opts.WaitReady)
	assert.True(t, opts.ShutdownOnError)
}

func TestBaseWorker_StartStop(t *testing.T) {
	// Arrange
	started := make(chan struct{})
	w := newWorker(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	}, nil, &shutdownRecorder{}, Options{})

	// Act
	w.Start()
	<-started
	w.Stop()

	// Assert
	require.NotNil(t, w.cancelFunc)
}

func TestBaseWorker_WaitReady(t *testing.T) {
	// Arrange
	gate := make(readyGate)
	var ran atomic.Bool
	w := newWorker(func(context.Context) error {
		ran.Store(true)
		return nil
	}, gate, &shutdownRecorder{}, Options{WaitReady: true})

	// Act
	w.Start()
	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load())
	close(gate)

	// Assert
	assert.Eventually(t, ran.Load, time.Second, 5*time.Millisecond)
	w.Stop()
}

func TestBaseWorker_StopWhileWaitingForReadiness(t *testing.T) {
	var ran atomic.Bool
	w := newWorker(func(context.Context) error {
		ran.Store(true)
		return nil
	}, make(readyGate), &shutdownRecorder{}, Options{WaitReady: true})

	w.Start()
	w.Stop()

	assert.False(t, ran.Load())
}

func TestBaseWorker_ShutdownOnError(t *testing.T) {
	tests := []struct {
		name         string
		opts         Options
		wantShutdown bool
	}{
		{name: "with shutdown", opts: Options{ShutdownOnError: true}, wantShutdown: true},
		{name: "without shutdown", opts: Options{}, wantShutdown: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			sd := &shutdownRecorder{}
			w := newWorker(func(context.Context) error {
				return errors.New("listener failed")
			}, nil, sd, tt.opts)

			// Act
			w.Start()
			w.wg.Wait()

			// Assert
			assert.Equal(t, tt.wantShutdown, sd.called.Load())
		})
	}
}

type hookRecorder struct {
	hooks []fx.Hook
}

func (h *hookRecorder) Append(hook fx.Hook) {
	h.hooks = append(h.hooks, hook)
}

func TestRegisterWorker(t *testing.T) {
	// Arrange
	lc := &hookRecorder{}
	var runs atomic.Int32
	w := newWorker(func(ctx context.Context) error {
		runs.Add(1)
		<-ctx.Done()
		return nil
	}, nil, &shutdownRecorder{}, Options{})

	// Act
	registerWorker(lc, w)
	require.Len(t, lc.hooks, 1)
	require.NoError(t, lc.hooks[0].OnStart(context.Background()))
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, lc.hooks[0].OnStop(context.Background()))

	// Assert
	assert.Equal(t, int32(1), runs.Load())
}
