package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNilCache = errors.New("cache is not connected")

type Service interface {
	Health() bool
}

// Cache is connected in the background while the server already serves requests, so
// the client is swapped in atomically.
type Cache struct {
	db atomic.Pointer[redis.Client]
}

func DefaultCache() *Cache {
	return &Cache{}
}

// Client is the connected redis client, nil until Connect succeeds.
func (cache *Cache) Client() *redis.Client {
	if cache == nil {
		return nil
	}
	return cache.db.Load()
}

func (cache *Cache) Connect(address string, username string, password string) error {
	if address == "" {
		return fmt.Errorf("%w: no cache address", ErrNilCache)
	}
	db := redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.Ping(ctx).Result(); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to cache: %w", err)
	}
	if previous := cache.db.Swap(db); previous != nil {
		previous.Close()
	}
	slog.Info("Cache connection succeeded", "address", address)
	return nil
}

func (cache *Cache) Connected() bool {
	return cache.Client() != nil
}

func (cache *Cache) Health() bool {
	db := cache.Client()
	if db == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	return db.Ping(ctx).Err() == nil
}

func (cache *Cache) Close() error {
	if cache == nil {
		return nil
	}
	db := cache.db.Swap(nil)
	if db == nil {
		return nil
	}
	return db.Close()
}
