package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

const envPrefix = "PARAMCTL_"

// Config is the paramctl configuration. Precedence, weakest first: defaults,
// config file, PARAMCTL_* environment, command line flags.
type Config struct {
	Namespace string        `koanf:"namespace"`
	Schema    string        `koanf:"schema"`
	Actor     string        `koanf:"actor"`
	Evaluator string        `koanf:"evaluator" validate:"oneof=expr cel js"`
	CacheSize int           `koanf:"cache_size" validate:"gte=0"`
	Backend   BackendConfig `koanf:"backend"`
	Log       LogConfig     `koanf:"log"`
	Metrics   MetricsConfig `koanf:"metrics"`
}

type BackendConfig struct {
	Kind   string       `koanf:"kind" validate:"oneof=memory redis sqlite"`
	Memory MemoryConfig `koanf:"memory"`
	Redis  RedisConfig  `koanf:"redis"`
	SQLite SQLiteConfig `koanf:"sqlite"`
}

// MemoryConfig seeds the in-process store from a key/value file.
type MemoryConfig struct {
	Seed string `koanf:"seed"`
}

type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0"`
	Prefix   string        `koanf:"prefix"`
	Retries  uint64        `koanf:"retries"`
	Backoff  time.Duration `koanf:"backoff"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json tint"`
}

type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DefaultConfig is the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		Evaluator: "expr",
		CacheSize: 256,
		Backend: BackendConfig{
			Kind: "memory",
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				Prefix:  "params:",
				Retries: 3,
				Backoff: 50 * time.Millisecond,
			},
			SQLite: SQLiteConfig{Path: "params.db"},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig layers defaults, the optional file at path, the environment
// and overrides, then validates the result.
func LoadConfig(path string, environ []string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	known := envMappings(k.Keys())

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		var values map[string]any
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := k.Load(rawMap(values), nil); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return known[key], value
		},
		EnvironFunc: func() []string { return environ },
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if len(overrides) > 0 {
		keys := make([]string, 0, len(overrides))
		for key := range overrides {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if err := k.Set(key, overrides[key]); err != nil {
				return nil, fmt.Errorf("override %s: %w", key, err)
			}
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and the backend specific requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Backend.Kind {
	case "redis":
		if c.Backend.Redis.Addr == "" {
			return fmt.Errorf("invalid config: backend.redis.addr is required for the redis backend")
		}
	case "sqlite":
		if c.Backend.SQLite.Path == "" {
			return fmt.Errorf("invalid config: backend.sqlite.path is required for the sqlite backend")
		}
	}
	return nil
}

// envMappings derives PARAMCTL_BACKEND_REDIS_ADDR style names from koanf
// paths; unknown variables map to "" and are skipped.
func envMappings(keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		out[envPrefix+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}
	return out
}

// rawMap is a koanf.Provider adapter for already decoded data.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("ReadBytes not implemented")
}
