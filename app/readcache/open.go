package readcache

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/boardswallah/boards-press/app/cfg"
)

const DefaultMemorySize = 1024

// TTLsFromConfig reads the per-kind TTLs.
func TTLsFromConfig(config *cfg.Cfg) TTLs {
	return TTLs{
		List:     config.ListTTL,
		Article:  config.ArticleTTL,
		Slugs:    config.SlugsTTL,
		Schedule: config.ScheduleTTL,
		Settings: config.SettingsTTL,
	}
}

// Open builds the cache in front of reader on the configured backend.
// The returned close function releases the backend connection.
func Open(ctx context.Context, config *cfg.Cfg, reader Reader) (*Cache, func() error, error) {
	ttls := TTLsFromConfig(config)

	switch config.CacheBackend {
	case "memory":
		size := cmp.Or(config.CacheSize, DefaultMemorySize)
		backend, err := NewMemoryBackend(size, time.Now)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Read cache ready", "backend", "memory", "size", size)
		return New(reader, backend, ttls), func() error { return nil }, nil
	case "redis":
		client, err := ConnectRedis(ctx, config.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Read cache ready", "backend", "redis", "addr", config.RedisAddr)
		return New(reader, NewRedisBackend(client, DefaultRedisPrefix), ttls), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", config.CacheBackend)
	}
}
