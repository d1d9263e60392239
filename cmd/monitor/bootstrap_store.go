package main

import (
	"context"
	"fmt"

	config "github.com/NordCoder/Sentinel/internal/config/monitor"
	"github.com/NordCoder/Sentinel/internal/domain/record"
	"github.com/NordCoder/Sentinel/internal/obs/retry"
	"github.com/NordCoder/Sentinel/internal/repository/filestore"
	pg "github.com/NordCoder/Sentinel/internal/repository/postgres"
	rds "github.com/NordCoder/Sentinel/internal/repository/redis"
	"go.uber.org/zap"
)

type recordStore struct {
	record.Store
	ping  func(context.Context) error
	close func()
}

// initStore opens the configured record store, retrying while the backend comes up.
func initStore(ctx context.Context, cfg config.Store, l *zap.Logger) (*recordStore, error) {
	switch cfg.Driver {
	case config.DriverFile:
		s, err := filestore.New(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return &recordStore{Store: s, ping: s.Ping, close: func() {}}, nil

	case config.DriverPostgres:
		var db *pg.DB
		err := retry.Do(ctx, retry.BootstrapPolicy("store.postgres", l), func(ctx context.Context) error {
			var err error
			db, err = pg.NewDB(ctx, cfg.DB)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &recordStore{Store: pg.NewRecordRepo(db), ping: db.Ping, close: db.Close}, nil

	case config.DriverRedis:
		client, err := rds.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		s := rds.NewStore(client, cfg.Redis.Prefix)
		if err := retry.Do(ctx, retry.BootstrapPolicy("store.redis", l), s.Ping); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return &recordStore{Store: s, ping: s.Ping, close: func() { _ = client.Close() }}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
