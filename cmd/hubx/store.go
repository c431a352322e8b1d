package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bluescreen10/hubx"
	"github.com/bluescreen10/hubx/gormstore"
	"github.com/bluescreen10/hubx/internal/config"
	"github.com/bluescreen10/hubx/memstore"
	"github.com/bluescreen10/hubx/mysqlstore"
	"github.com/bluescreen10/hubx/redisstore"
	"github.com/redis/go-redis/v9"
)

// openStore opens the backend named by cfg.TokenStore. The returned
// func releases its connections.
func openStore(cfg *config.Config) (hubx.Store, func() error, error) {
	switch cfg.TokenStore {
	case "memory":
		return memstore.New(), func() error { return nil }, nil

	case "sqlite", "postgres", "gorm-mysql":
		dialect := strings.TrimPrefix(cfg.TokenStore, "gorm-")
		db, err := gormstore.Open(dialect, cfg.TokenDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.TokenStore, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		store, err := gormstore.New(db)
		if err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("migrate %s: %w", cfg.TokenStore, err)
		}
		return store, sqlDB.Close, nil

	case "mysql":
		db, err := mysqlstore.Open(cfg.TokenDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		store, err := mysqlstore.New(db)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("create table: %w", err)
		}
		return store, db.Close, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return redisstore.New(rdb), rdb.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
}
