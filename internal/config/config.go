// Package config loads the service configuration in layers: flag
// defaults, then an optional YAML file, then RECALL_* environment
// variables, then explicitly set command line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"
)

const envPrefix = "RECALL_"

// Config carries everything the process needs to run.
type Config struct {
	Port      int    `koanf:"port" validate:"gte=1,lte=65535"`
	DB        string `koanf:"db" validate:"required"`
	ReposDir  string `koanf:"repos-dir" validate:"required"`
	DueLimit  int    `koanf:"due-limit" validate:"gte=1,lte=500"`
	NoBrowser bool   `koanf:"no-browser"`
	LogMode   string `koanf:"log-mode" validate:"oneof=development production"`
}

// Addr is the listen address for the web interface.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Flags returns the flag set for the service's tunables. Flag names
// double as the config file keys.
func Flags(name string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.Int("port", 8000, "port for the web interface")
	f.String("db", "recall.db", "path to the sqlite database")
	f.String("repos-dir", "repos", "directory git deck sources are mirrored into")
	f.Int("due-limit", 20, "maximum items handed out per review session")
	f.Bool("no-browser", false, "do not open the browser on startup")
	f.String("log-mode", "development", "log output mode: development or production")
	return f
}

// Load resolves the configuration from path (skipped when empty), the
// environment, and the parsed flag set, in rising priority.
func Load(path string, flags *flag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(key string) string {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		return strings.ReplaceAll(key, "_", "-")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	// Passing k makes unchanged flags yield to file and environment
	// values while still supplying defaults for everything unset.
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
