package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/boardswallah/boards-press/app/cfg"
)

// Open selects the store variant named by the configuration.
func Open(ctx context.Context, config *cfg.Cfg) (Store, error) {
	switch config.StoreDriver {
	case "sqlite":
		store, err := OpenSQLite(config.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("Content store ready", "driver", "sqlite", "path", config.SQLitePath)
		return store, nil
	case "postgres":
		store, err := OpenPostgres(ctx, config.PostgresDSN())
		if err != nil {
			return nil, err
		}
		slog.Info("Content store ready", "driver", "postgres", "host", config.DBHost, "db", config.DBName)
		return store, nil
	case "memory":
		slog.Warn("Content store is in-memory, nothing will persist across restarts")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", config.StoreDriver)
	}
}
