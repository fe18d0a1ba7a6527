package worker

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/health"
)

type worker interface {
	Start()
	Stop()
}

type runnable interface {
	Run(ctx context.Context) error
}

type Options struct {
	WaitReady       bool
	ShutdownOnError bool
}

type Option func(*Options)

// WithReady delays the run until every readiness component is ready.
func WithReady() Option {
	return func(o *Options) {
		o.WaitReady = true
	}
}

// WithShutdown stops the application when the run returns an error.
func WithShutdown() Option {
	return func(o *Options) {
		o.ShutdownOnError = true
	}
}

type baseWorker struct {
	name       string
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	log        *zap.Logger
	runFunc    func(ctx context.Context) error
	shutdowner fx.Shutdowner
	readiness  health.ReadinessWaiter
	options    Options
}

func (w *baseWorker) Start() {
	w.log.Info("starting " + w.name)
	ctx, cancel := context.WithCancel(context.Background())
	w.cancelFunc = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

func (w *baseWorker) run(ctx context.Context) {
	if w.options.WaitReady {
		w.log.Info("waiting for components readiness")
		if err := w.readiness.WaitReady(ctx); err != nil {
			w.log.Info(w.name + " stopped (cancelled while waiting for readiness)")
			return
		}
	}

	err := w.runFunc(ctx)
	if err == nil {
		w.log.Info(w.name + " stopped")
		return
	}

	if !w.options.ShutdownOnError {
		w.log.Error(w.name+" stopped with error", zap.Error(err))
		return
	}

	w.log.Error(w.name+" fatal error, initiating shutdown", zap.Error(err))
	if shutdownErr := w.shutdowner.Shutdown(fx.ExitCode(1)); shutdownErr != nil {
		w.log.Error("failed to initiate shutdown", zap.Error(shutdownErr))
	}
}

// Stop cancels the run and waits for it to return.
func (w *baseWorker) Stop() {
	w.log.Info("stopping " + w.name)
	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.wg.Wait()
}

func registerWorker(lc fx.Lifecycle, w worker) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			w.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			w.Stop()
			return nil
		},
	})
}

// Register provides a worker, tagged into the "workers" group, that runs
// dep.Run for the lifetime of the application.
//
//	fx.Provide(worker.Register[*app.Feed]("feed", worker.WithReady(), worker.WithShutdown()))
func Register[T runnable](name string, opts ...Option) any {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}

	return fx.Annotate(
		func(lc fx.Lifecycle, log *zap.Logger, shutdowner fx.Shutdowner, readiness health.ReadinessWaiter, dep T) worker {
			w := &baseWorker{
				name:       name,
				log:        log.With(zap.String("worker", name)),
				runFunc:    dep.Run,
				shutdowner: shutdowner,
				readiness:  readiness,
				options:    options,
			}
			registerWorker(lc, w)
			return w
		},
		fx.ResultTags(`group:"workers"`),
	)
}

// Invoke forces construction of every registered worker.
func Invoke() fx.Option {
	return fx.Invoke(fx.Annotate(func([]worker) {}, fx.ParamTags(`group:"workers"`)))
}
