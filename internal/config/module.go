package config

import (
	"github.com/go-core-fx/fiberfx"
	"github.com/zync-tools/zyncmon/internal/daemon"
	"github.com/zync-tools/zyncmon/internal/repositories"
	"github.com/zync-tools/zyncmon/pkg/badgerfx"
	"github.com/zync-tools/zyncmon/pkg/diaglog"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(New),
		fx.Provide(func(cfg Config) fiberfx.Config {
			return fiberfx.Config{
				Address:     cfg.HTTP.Address,
				ProxyHeader: cfg.HTTP.ProxyHeader,
				Proxies:     cfg.HTTP.Proxies,
			}
		}),
		fx.Provide(newBadgerConfig),
		fx.Provide(func(cfg Config) diaglog.Config {
			return diaglog.Config{
				Path: cfg.Log.Path,
			}
		}),
		fx.Provide(func(cfg Config) repositories.Config {
			return repositories.Config{
				MaxRecordSize: cfg.Parser.MaxRecordSize,
			}
		}),
		fx.Provide(func(cfg Config) daemon.Config {
			return daemon.Config{
				Binary:     cfg.Daemon.Binary,
				DaemonArgs: cfg.Daemon.Args,
				CheckArgs:  cfg.Daemon.CheckArgs,
				PushArgs:   cfg.Daemon.PushArgs,

				RestartDelay:   cfg.Daemon.RestartDelay,
				StopTimeout:    cfg.Daemon.StopTimeout,
				CommandTimeout: cfg.Daemon.CommandTimeout,
				MaxOutputSize:  cfg.Daemon.MaxOutputSize,
			}
		}),
	)
}

func newBadgerConfig(cfg Config) badgerfx.Config {
	return badgerfx.Config{
		Dir:        cfg.Storage.DataDir,
		InMemory:   cfg.Storage.InMemory,
		SyncWrites: cfg.Storage.SyncWrites,
	}
}
