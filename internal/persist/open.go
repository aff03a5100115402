package persist

import (
	"fmt"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/roomsync/roomsync-client/config"
)

// Open builds the Storage selected by cfg.Driver.
func Open(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		return NewMemoryStorage(), nil
	case config.StorageFile:
		return NewFileStorage(filepath.Join(cfg.Path, cfg.KeyPrefix))
	case config.StorageSQLite:
		return NewSQLiteStorage(filepath.Join(cfg.Path, cfg.KeyPrefix+".db"))
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStorage(client, cfg.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
