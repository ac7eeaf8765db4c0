package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/gamesession"
	"github.com/aretw0/gamesession/internal/config"
	"github.com/aretw0/gamesession/internal/logging"
	"github.com/aretw0/gamesession/pkg/adapters/file"
	"github.com/aretw0/gamesession/pkg/adapters/memory"
	"github.com/aretw0/gamesession/pkg/adapters/redis"
	"github.com/aretw0/gamesession/pkg/adapters/sqlite"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/ports"
)

// Backend is an opened session store with the resources it holds.
type Backend struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker
	Closer io.Closer
}

// Close releases the store connection, if any.
func (b Backend) Close() error {
	if b.Closer == nil {
		return nil
	}
	return b.Closer.Close()
}

// OpenStore opens the store selected by cfg.Kind.
func OpenStore(cfg config.StoreConfig) (Backend, error) {
	switch cfg.Kind {
	case config.StoreMemory, "":
		return Backend{Store: memory.NewStore()}, nil
	case config.StoreFile:
		return Backend{Store: file.New(cfg.Path)}, nil
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return Backend{}, err
		}
		return Backend{Store: s, Closer: s}, nil
	case config.StoreRedis:
		var opts []redis.Option
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		s := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		prefix := cfg.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		return Backend{Store: s, Locker: redis.NewLocker(s.Client(), prefix), Closer: s}, nil
	}
	return Backend{}, fmt.Errorf("%w: unknown store kind %q", domain.ErrValidation, cfg.Kind)
}

// CreateLogger builds the logger described by cfg. Invalid values fall back
// to info level text output; Validate reports them earlier.
func CreateLogger(cfg config.Config) *slog.Logger {
	level, _ := logging.ParseLevel(cfg.LogLevel)
	format, _ := logging.ParseFormat(cfg.LogFormat)
	return logging.NewWithWriter(stderr, level, format)
}

// NewEngine assembles an engine from cfg. The engine owns the backend and
// closes it on Engine.Close.
func NewEngine(cfg config.Config, logger *slog.Logger, extra ...gamesession.Option) (*gamesession.Engine, error) {
	backend, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("error opening session store: %w", err)
	}

	opts := []gamesession.Option{
		gamesession.WithSelf(domain.ActorID(cfg.SelfAddress)),
		gamesession.WithWatchdogDelay(cfg.WatchdogDelay),
		gamesession.WithTickInterval(cfg.TickInterval),
		gamesession.WithStore(backend.Store),
		gamesession.WithLogger(logger),
		gamesession.WithCloser(backend),
	}
	if backend.Locker != nil {
		opts = append(opts, gamesession.WithLocker(backend.Locker, cfg.Store.LockTTL))
	}
	if cfg.ServiceURL != "" {
		opts = append(opts,
			gamesession.WithRemoteService(cfg.ServiceURL),
			gamesession.WithSendTimeout(cfg.SendTimeout),
		)
	}
	opts = append(opts, extra...)

	engine, err := gamesession.New(domain.ActorID(cfg.ServiceAddress), opts...)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("error initializing gamesession: %w", err)
	}
	return engine, nil
}
