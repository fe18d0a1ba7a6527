package health

import (
	"context"
	"errors"
	"net"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewReadinessModule provides the readiness tracker behind its interfaces.
func NewReadinessModule() fx.Option {
	return fx.Provide(
		func(log *zap.Logger) *readiness {
			return newReadiness(log.With(zap.String("component", "readiness")))
		},
		func(r *readiness) ComponentManager { return r },
		func(r *readiness) ReadinessChecker { return r },
		func(r *readiness) ReadinessWaiter { return r },
	)
}

type serverParams struct {
	fx.In

	Lc        fx.Lifecycle
	Conf      Config
	Checker   ReadinessChecker
	Reporters []StateReporter `group:"state-reporters"`
	Log       *zap.Logger
}

// NewHealthServerModule serves the health endpoint for the lifetime of the app.
// Components join the listener report by providing a StateReporter into the
// "state-reporters" group.
func NewHealthServerModule() fx.Option {
	return fx.Options(
		fx.Provide(newConfig),
		fx.Invoke(startServer),
	)
}

func startServer(p serverParams) {
	if !p.Conf.Enabled() {
		return
	}

	log := p.Log.With(zap.String("component", "health-server"))
	srv := &http.Server{
		Addr:    p.Conf.Addr,
		Handler: NewHandler(p.Checker, p.Reporters, log),
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("health server stopped", zap.Error(err))
				}
			}()
			log.Info("health server started", zap.String("addr", ln.Addr().String()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, p.Conf.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
}
