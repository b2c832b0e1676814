package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-core-fx/config"
	"github.com/zync-tools/zyncmon/internal/status"
)

type http struct {
	Address     string   `koanf:"address"`
	ProxyHeader string   `koanf:"proxy_header"`
	Proxies     []string `koanf:"proxies"`
}

type storageConfig struct {
	DataDir    string `koanf:"data_dir"`
	InMemory   bool   `koanf:"in_memory"`
	SyncWrites bool   `koanf:"sync_writes"`
}

type daemonConfig struct {
	Binary    string   `koanf:"binary"`
	Args      []string `koanf:"args"`
	CheckArgs []string `koanf:"check_args"`
	PushArgs  []string `koanf:"push_args"`

	RestartDelay   time.Duration `koanf:"restart_delay"`
	StopTimeout    time.Duration `koanf:"stop_timeout"`
	CommandTimeout time.Duration `koanf:"command_timeout"`
	MaxOutputSize  int           `koanf:"max_output_size"`
}

type logConfig struct {
	Path string `koanf:"path"`
}

type parserConfig struct {
	MaxRecordSize int `koanf:"max_record_size"`
}

type Config struct {
	HTTP http `koanf:"http"`

	Storage storageConfig `koanf:"storage"`
	Daemon  daemonConfig  `koanf:"daemon"`
	Log     logConfig     `koanf:"log"`
	Parser  parserConfig  `koanf:"parser"`
}

func Default() Config {
	zyncDir := zyncConfigDir()

	//nolint:exhaustruct,mnd //default values
	return Config{
		HTTP: http{
			Address:     "127.0.0.1:3000",
			ProxyHeader: "X-Forwarded-For",
			Proxies:     []string{},
		},

		Storage: storageConfig{
			DataDir: filepath.Join(zyncDir, "state"),
		},

		Daemon: daemonConfig{
			Binary:    "zync",
			Args:      []string{"--delim", "daemon"},
			CheckArgs: []string{"--check", "push"},
			PushArgs:  []string{"push"},

			RestartDelay:   5 * time.Second,
			StopTimeout:    5 * time.Second,
			CommandTimeout: 10 * time.Minute,
			MaxOutputSize:  64 * 1024,
		},

		Log: logConfig{
			Path: filepath.Join(zyncDir, "log"),
		},

		Parser: parserConfig{
			MaxRecordSize: status.DefaultMaxRecordSize,
		},
	}
}

// zyncConfigDir is the directory zync keeps its own configuration in,
// $XDG_CONFIG_HOME/zync on Linux.
func zyncConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "zync"
	}
	return filepath.Join(dir, "zync")
}

func New() (Config, error) {
	cfg := Default()

	options := []config.Option{}
	if yamlPath := os.Getenv("CONFIG_PATH"); yamlPath != "" {
		options = append(options, config.WithLocalYAML(yamlPath))
	}

	if err := config.Load(&cfg, options...); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}
