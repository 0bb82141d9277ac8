package main

import (
	"context"
	"fmt"
	"log/slog"

	"sapid/internal/consent/store"
	"sapid/internal/platform/config"
	"sapid/internal/platform/postgres"
	"sapid/internal/platform/redis"
)

// preferenceStore is the configured consent backend plus whatever must be
// closed on shutdown.
type preferenceStore struct {
	store store.PreferenceStore
	close func()
}

func openPreferenceStore(ctx context.Context, cfg config.Server, log *slog.Logger) (preferenceStore, error) {
	switch cfg.ConsentStore {
	case config.ConsentStoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return preferenceStore{}, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("consent preferences stored in redis")
		return preferenceStore{
			store: store.NewRedisStore(client.Client),
			close: func() { _ = client.Close() },
		}, nil
	case config.ConsentStorePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return preferenceStore{}, fmt.Errorf("connect postgres: %w", err)
		}
		pg := store.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			_ = db.Close()
			return preferenceStore{}, fmt.Errorf("migrate consent schema: %w", err)
		}
		log.Info("consent preferences stored in postgres")
		return preferenceStore{store: pg, close: func() { _ = db.Close() }}, nil
	default:
		log.Warn("consent preferences kept in memory; they are lost on restart")
		return preferenceStore{store: store.NewInMemoryStore(), close: func() {}}, nil
	}
}
