package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/storyline/internal/config"
	"github.com/aretw0/storyline/pkg/adapters/file"
	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/adapters/postgres"
	"github.com/aretw0/storyline/pkg/adapters/redis"
	"github.com/aretw0/storyline/pkg/adapters/sqlite"
	"github.com/aretw0/storyline/pkg/ports"
)

// OpenStore opens the progress store selected by cfg.Driver. The locker is
// non-nil only for drivers that can share a lock across processes. closer
// releases the store's connections.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store ports.ProgressStore, locker ports.DistributedLocker, closer func() error, err error) {
	nop := func() error { return nil }

	switch cfg.Driver {
	case config.DriverMemory, "":
		return memory.NewStore(), nil, nop, nil

	case config.DriverRedis:
		s := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return s, redis.NewLocker(s.Client(), s.Prefix()+"lock:"), s.Close, nil

	case config.DriverPostgres:
		pg := cfg.Postgres
		s, err := postgres.Open(ctx, postgres.Options{
			Host:     pg.Host,
			Port:     pg.Port,
			Username: pg.Username,
			Password: pg.Password,
			Database: pg.Database,
			SSLMode:  pg.SSLMode,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return s, nil, s.Close, nil

	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, nil, s.Close, nil

	case config.DriverFile:
		return file.New(cfg.File.Path), nil, nop, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
