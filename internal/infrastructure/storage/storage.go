package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"loanledger/internal/adapter/repository/memory"
	mysqlrepo "loanledger/internal/adapter/repository/mysql"
	"loanledger/internal/adapter/repository/rediskv"
	"loanledger/internal/config"
	"loanledger/internal/domain/store"
	"loanledger/internal/infrastructure/cache"
	"loanledger/internal/infrastructure/db"
)

// RedisPrefix namespaces ledger documents in a shared redis database.
const RedisPrefix = "loanledger:"

// Backend is an opened Persisted Store with its lifecycle hooks.
type Backend struct {
	Store store.Store
	Ping  func(ctx context.Context) error
	Close func() error
}

// Open builds the Persisted Store selected by cfg.StoreDriver. The sql
// drivers get their table migrated before use.
func Open(cfg *config.Config, log *zap.Logger) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMySQL, config.DriverSQLite:
		gdb, err := db.OpenGorm(cfg.StoreDriver, cfg.DSN(), log)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		if err := mysqlrepo.Migrate(gdb); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &Backend{Store: mysqlrepo.NewKVStore(gdb), Ping: sqlDB.PingContext, Close: sqlDB.Close}, nil
	case config.DriverRedis:
		rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store: rediskv.New(rdb, RedisPrefix),
			Ping:  func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			Close: rdb.Close,
		}, nil
	case config.DriverMemory:
		return &Backend{Store: memory.New(), Close: func() error { return nil }}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
