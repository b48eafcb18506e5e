package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/flowctl/internal/logger"
)

// HomeEnv names the environment variable resolving the base directory. It is
// also re-exported into every launched service so the underlying program
// resolves its state consistently with the supervisor.
const HomeEnv = "AIRFLOW_HOME"

// ConfigFileName is the optional settings file inside the base directory.
const ConfigFileName = "flowctl.toml"

// servicesSubdir holds pid records and per-service log/out/err files.
const servicesSubdir = "services-logs"

// WorkerVariant describes one queue-consuming worker flavor. The empty
// zero value is the default worker (all queues, default concurrency).
type WorkerVariant struct {
	Queues      string `mapstructure:"queues"`
	Concurrency int    `mapstructure:"concurrency"`
}

// Config is the full supervisor configuration. Everything has a default so
// running without a settings file behaves like the stock deployment.
type Config struct {
	Home         string                   `mapstructure:"-"`
	Program      string                   `mapstructure:"program"`       // external workflow executable
	StartWindow  time.Duration            `mapstructure:"start_window"`  // wait for the record to materialize
	StopTimeout  time.Duration            `mapstructure:"stop_timeout"`  // graceful termination wait
	DrainTimeout time.Duration            `mapstructure:"drain_timeout"` // worker queue drain wait
	PollInterval time.Duration            `mapstructure:"poll_interval"`
	Workers      map[string]WorkerVariant `mapstructure:"workers"`
	HistoryDSN   string                   `mapstructure:"history_dsn"` // sqlite path, postgres:// or clickhouse:// DSN
	Listen       string                   `mapstructure:"listen"`      // serve mode address
	Log          logger.Config            `mapstructure:"log"`
}

// Default returns the configuration used when no settings file exists.
func Default(home string) *Config {
	return &Config{
		Home:         home,
		Program:      "airflow",
		StartWindow:  time.Second,
		StopTimeout:  10 * time.Second,
		DrainTimeout: 100 * time.Second,
		PollInterval: 100 * time.Millisecond,
		Workers: map[string]WorkerVariant{
			"default": {},
			"gpu":     {Queues: "gpu", Concurrency: 1},
		},
		Listen: "127.0.0.1:8113",
	}
}

// ResolveHome returns the base directory from the environment, defaulting to
// <user home>/airflow. The directory must already exist.
func ResolveHome() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		home = filepath.Join(userHome, "airflow")
	}
	fi, err := os.Stat(home)
	if err != nil {
		return "", fmt.Errorf("base directory %s: %w", home, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("base directory %s is not a directory", home)
	}
	return home, nil
}

// Load resolves the base directory, merges the optional settings file on top
// of the defaults and makes sure the services directory exists.
func Load() (*Config, error) {
	home, err := ResolveHome()
	if err != nil {
		return nil, err
	}
	return LoadFrom(home)
}

// LoadFrom is Load with an explicit base directory; tests use it directly.
func LoadFrom(home string) (*Config, error) {
	cfg := Default(home)

	path := filepath.Join(home, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.Home = home
	if len(cfg.Workers) == 0 {
		cfg.Workers = Default(home).Workers
	}

	if err := os.MkdirAll(cfg.ServicesDir(), 0o750); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ServicesDir is where pid records and service stream files live.
func (c *Config) ServicesDir() string {
	return filepath.Join(c.Home, servicesSubdir)
}

// ChildEnv is the environment for launched services: the caller's environment
// plus the base directory export.
func (c *Config) ChildEnv() []string {
	return append(os.Environ(), HomeEnv+"="+c.Home)
}
