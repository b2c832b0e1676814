package internal

import (
	"context"

	"github.com/capcom6/go-infra-fx/validator"
	"github.com/go-core-fx/fiberfx"
	"github.com/go-core-fx/healthfx"
	"github.com/go-core-fx/logger"
	"github.com/zync-tools/zyncmon/internal/config"
	"github.com/zync-tools/zyncmon/internal/daemon"
	"github.com/zync-tools/zyncmon/internal/repositories"
	"github.com/zync-tools/zyncmon/internal/server"
	"github.com/zync-tools/zyncmon/pkg/badgerfx"
	"github.com/zync-tools/zyncmon/pkg/diaglog"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Run() {
	fx.New(
		// CORE MODULES
		logger.Module(),
		logger.WithFxDefaultLogger(),
		badgerfx.Module(),
		diaglog.Module(),
		healthfx.Module(),
		fiberfx.Module(),
		validator.Module,
		//
		// APP MODULES
		config.Module(),
		server.Module(),
		//
		// BUSINESS MODULES
		fx.Provide(func() healthfx.Version { return healthfx.Version{Version: "0.1.0", ReleaseID: 1} }),
		// registry must be restored before the daemon starts writing to it
		repositories.Module(),
		daemon.Module(),
		//
		// LIFECYCLE MANAGEMENT
		fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("zyncmon starting up")
					return nil
				},
				OnStop: func(_ context.Context) error {
					logger.Info("zyncmon shutting down")
					return nil
				},
			})
		}),
	).Run()
}
