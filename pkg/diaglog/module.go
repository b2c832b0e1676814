package diaglog

import (
	"context"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"diaglog",
		logger.WithNamedLogger("diaglog"),
		fx.Provide(New),
		fx.Invoke(func(lc fx.Lifecycle, sink *Sink, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					if err := sink.Sync(); err != nil {
						logger.Debug("failed to sync diagnostic log", zap.Error(err))
					}
					return nil
				},
			})
		}),
	)
}
