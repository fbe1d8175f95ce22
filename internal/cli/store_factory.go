package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/statelift/internal/config"
	"github.com/aretw0/statelift/pkg/adapters/file"
	"github.com/aretw0/statelift/pkg/adapters/memory"
	"github.com/aretw0/statelift/pkg/adapters/redis"
	"github.com/aretw0/statelift/pkg/adapters/sqlite"
	"github.com/aretw0/statelift/pkg/persistence/middleware"
	"github.com/aretw0/statelift/pkg/ports"
)

// lockPrefix keeps lock keys apart from state keys.
const lockPrefix = "statelift:"

// openStore builds the configured backend and wraps it with encryption when a
// key is set. Redis also provides the distributed locker.
func openStore(cfg *config.Config, logger *slog.Logger) (ports.StateStore, ports.DistributedLocker, []io.Closer, error) {
	var (
		store   ports.StateStore
		locker  ports.DistributedLocker
		closers []io.Closer
	)

	switch cfg.Store.Backend {
	case config.BackendMemory:
		store = memory.NewStore()
	case config.BackendFile:
		store = file.New(cfg.Store.Dir)
	case config.BackendRedis:
		r := cfg.Store.Redis
		var opts []redis.Option
		if r.Prefix != "" {
			opts = append(opts, redis.WithPrefix(r.Prefix))
		}
		if r.TTL > 0 {
			opts = append(opts, redis.WithTTL(r.TTL))
		}
		rs := redis.New(r.Addr, r.Password, r.DB, opts...)
		store = rs
		locker = redis.NewLocker(rs.Client(), lockPrefix)
		closers = append(closers, rs)
	case config.BackendSQLite:
		ss, err := sqlite.Open(cfg.Store.SQLite.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		store = ss
		closers = append(closers, ss)
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	active, fallback, err := cfg.Encryption.Keys()
	if err != nil {
		return nil, nil, nil, err
	}
	if active != nil {
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:      active,
			FallbackKeys:   fallback,
			AllowPlaintext: cfg.Encryption.AllowPlaintext,
		})(store)
	}

	logger.Debug("Store ready", "backend", cfg.Store.Backend, "encrypted", active != nil)
	return store, locker, closers, nil
}
