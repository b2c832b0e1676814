package daemon

import (
	"context"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"daemon",
		logger.WithNamedLogger("daemon"),
		fx.Provide(NewSupervisor),
		fx.Provide(NewCommands),
		fx.Invoke(func(lc fx.Lifecycle, s *Supervisor) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					s.Start()
					return nil
				},
				OnStop: s.Stop,
			})
		}),
	)
}
