// Package config loads the gamesession settings from a YAML file and
// GAMESESSION_* environment variables. Command-line flags are applied last
// by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/gamesession/internal/logging"
	httpadapter "github.com/aretw0/gamesession/pkg/adapters/http"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/orchestrator"
	"github.com/aretw0/gamesession/pkg/session"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GAMESESSION_"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config holds every runtime setting.
type Config struct {
	ServiceAddress string        `yaml:"service_address" mapstructure:"service_address"`
	SelfAddress    string        `yaml:"self_address" mapstructure:"self_address"`
	ServiceURL     string        `yaml:"service_url" mapstructure:"service_url"`
	SendTimeout    time.Duration `yaml:"send_timeout" mapstructure:"send_timeout"`
	WatchdogDelay  uint32        `yaml:"watchdog_delay" mapstructure:"watchdog_delay"`
	TickInterval   time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`
	Store          StoreConfig   `yaml:"store" mapstructure:"store"`
	HTTP           HTTPConfig    `yaml:"http" mapstructure:"http"`
	LogLevel       string        `yaml:"log_level" mapstructure:"log_level"`
	LogFormat      string        `yaml:"log_format" mapstructure:"log_format"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Kind          string        `yaml:"kind" mapstructure:"kind"`
	Path          string        `yaml:"path" mapstructure:"path"`
	RedisAddr     string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string        `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int           `yaml:"redis_db" mapstructure:"redis_db"`
	Prefix        string        `yaml:"prefix" mapstructure:"prefix"`
	LockTTL       time.Duration `yaml:"lock_ttl" mapstructure:"lock_ttl"`
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		ServiceAddress: "wordle",
		SelfAddress:    string(orchestrator.DefaultSelf),
		SendTimeout:    httpadapter.DefaultSendTimeout,
		WatchdogDelay:  orchestrator.DefaultWatchdogDelay,
		TickInterval:   100 * time.Millisecond,
		Store: StoreConfig{
			Kind:    StoreMemory,
			LockTTL: session.DefaultLockTTL,
		},
		HTTP:      HTTPConfig{Addr: ":8080"},
		LogLevel:  "info",
		LogFormat: string(logging.FormatText),
	}
}

// envKeys lists the overridable settings as dotted mapstructure paths.
// GAMESESSION_STORE_KIND sets store.kind.
var envKeys = []string{
	"service_address",
	"self_address",
	"service_url",
	"send_timeout",
	"watchdog_delay",
	"tick_interval",
	"store.kind",
	"store.path",
	"store.redis_addr",
	"store.redis_password",
	"store.redis_db",
	"store.prefix",
	"store.lock_ttl",
	"http.addr",
	"log_level",
	"log_format",
}

// EnvName returns the environment variable for a dotted key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is not empty), then the environment as seen through lookup. A nil
// lookup reads the process environment.
func Load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.mergeEnv(lookup); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: failed to parse %s: %v", domain.ErrValidation, path, err)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	overlay := make(map[string]any)
	for _, key := range envKeys {
		val, ok := lookup(EnvName(key))
		if !ok {
			continue
		}
		section, leaf, nested := strings.Cut(key, ".")
		if !nested {
			overlay[key] = val
			continue
		}
		m, _ := overlay[section].(map[string]any)
		if m == nil {
			m = make(map[string]any)
			overlay[section] = m
		}
		m[leaf] = val
	}
	if len(overlay) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(overlay); err != nil {
		return fmt.Errorf("%w: environment: %v", domain.ErrValidation, err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ServiceAddress) == "" {
		errs = append(errs, domain.ErrInvalidServiceAddress)
	}
	if strings.TrimSpace(c.SelfAddress) == "" {
		errs = append(errs, fmt.Errorf("%w: self address is empty", domain.ErrValidation))
	}
	if c.WatchdogDelay == 0 {
		errs = append(errs, fmt.Errorf("%w: watchdog delay must be positive", domain.ErrValidation))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: tick interval must be positive", domain.ErrValidation))
	}
	if c.SendTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: send timeout must be positive", domain.ErrValidation))
	}

	switch c.Store.Kind {
	case StoreMemory:
	case StoreFile, StoreSQLite:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("%w: %s store needs a path", domain.ErrValidation, c.Store.Kind))
		}
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("%w: redis store needs an address", domain.ErrValidation))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown store kind %q", domain.ErrValidation, c.Store.Kind))
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", domain.ErrValidation, err))
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", domain.ErrValidation, err))
	}
	return errors.Join(errs...)
}
