package storage

import (
	"context"
	"fmt"

	"social-poster/internal/config"
)

// Backend bundles the stores chosen by configuration.
type Backend struct {
	Users UserStore
	Posts PostLog
	close func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open constructs the backend selected by cfg.StorageBackend.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return &Backend{Users: NewMemoryUserStore(), Posts: NewMemoryPostLog()}, nil
	case config.BackendFile:
		users, err := NewFileUserStore(cfg.UsersFilePath)
		if err != nil {
			return nil, err
		}
		posts, err := NewFilePostLog(cfg.PostsFilePath)
		if err != nil {
			return nil, err
		}
		return &Backend{Users: users, Posts: posts}, nil
	case config.BackendBolt:
		bs, err := NewBoltStore(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return &Backend{Users: bs.Users(), Posts: bs.Posts(), close: bs.Close}, nil
	case config.BackendRedis:
		rs, err := NewRedisStore(ctx, cfg.RedisURL, cfg.RedisKeyPrefix)
		if err != nil {
			return nil, err
		}
		return &Backend{Users: rs.Users(), Posts: rs.Posts(), close: rs.Close}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
