// Package config loads statelift settings from a YAML file and STATELIFT_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/statelift/internal/logging"
	"github.com/aretw0/statelift/pkg/persistence/middleware"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "statelift.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STATELIFT_"

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type Config struct {
	Store      Store      `mapstructure:"store" yaml:"store"`
	Encryption Encryption `mapstructure:"encryption" yaml:"encryption"`
	Redact     []string   `mapstructure:"redact" yaml:"redact"`
	Transforms Transforms `mapstructure:"transforms" yaml:"transforms"`
	Log        Log        `mapstructure:"log" yaml:"log"`
	HTTP       HTTP       `mapstructure:"http" yaml:"http"`
}

type Store struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
	Redis   Redis  `mapstructure:"redis" yaml:"redis"`
	SQLite  SQLite `mapstructure:"sqlite" yaml:"sqlite"`
}

type Redis struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type SQLite struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// Encryption keys are 32 bytes, hex or base64 encoded. An empty Key
// disables encryption.
type Encryption struct {
	Key            string   `mapstructure:"key" yaml:"key"`
	FallbackKeys   []string `mapstructure:"fallback_keys" yaml:"fallback_keys"`
	AllowPlaintext bool     `mapstructure:"allow_plaintext" yaml:"allow_plaintext"`
}

type Transforms struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type Log struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

type HTTP struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Store: Store{
			Backend: BackendFile,
			Dir:     filepath.Join(".statelift", "states"),
			Redis: Redis{
				Addr:   "localhost:6379",
				Prefix: "statelift:state:",
			},
			SQLite: SQLite{Path: filepath.Join(".statelift", "states.db")},
		},
		Transforms: Transforms{Dir: filepath.Join(".statelift", "transforms")},
		Log:        Log{Level: "info"},
		HTTP:       HTTP{Addr: ":8080"},
	}
}

// Load builds a Config from defaults, the YAML file at path and the
// environment, in that order of precedence (environment wins).
// An empty path tries DefaultFile and ignores its absence.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if err := decode(doc, &cfg); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := decode(fromEnv(os.LookupEnv), &cfg); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	return &cfg, nil
}

func decode(input map[string]any, out *Config) error {
	if len(input) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// fromEnv maps STATELIFT_STORE_REDIS_ADDR style variables onto the nested
// keys of Config. Only known keys are read.
func fromEnv(lookup func(string) (string, bool)) map[string]any {
	out := map[string]any{}
	for _, key := range keys(reflect.TypeOf(Config{}), nil) {
		name := EnvPrefix + strings.ToUpper(strings.Join(key, "_"))
		val, ok := lookup(name)
		if !ok {
			continue
		}
		node := out
		for _, part := range key[:len(key)-1] {
			next, ok := node[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				node[part] = next
			}
			node = next
		}
		node[key[len(key)-1]] = val
	}
	return out
}

// keys lists the mapstructure paths of every leaf field.
func keys(t reflect.Type, prefix []string) [][]string {
	var out [][]string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := f.Tag.Get("mapstructure")
		path := append(append([]string{}, prefix...), name)
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Duration(0)) {
			out = append(out, keys(f.Type, path)...)
			continue
		}
		out = append(out, path)
	}
	return out
}

// Validate checks backend names, key material, redact patterns and the log level.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}

	if c.Store.Redis.TTL < 0 {
		errs = append(errs, errors.New("store.redis.ttl cannot be negative"))
	}

	if c.Encryption.Key == "" && len(c.Encryption.FallbackKeys) > 0 {
		errs = append(errs, errors.New("encryption.fallback_keys requires encryption.key"))
	}
	if _, _, err := c.Encryption.Keys(); err != nil {
		errs = append(errs, err)
	}

	if _, err := middleware.NewRedactor(c.Redact); err != nil {
		errs = append(errs, err)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Keys decodes the configured keys. active is nil when encryption is off.
func (e Encryption) Keys() (active []byte, fallback [][]byte, err error) {
	if e.Key == "" {
		return nil, nil, nil
	}
	active, err = middleware.DecodeKey(e.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption.key: %w", err)
	}
	for i, k := range e.FallbackKeys {
		key, err := middleware.DecodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("encryption.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}
