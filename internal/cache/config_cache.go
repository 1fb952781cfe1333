// Package cache mirrors the restaurant configuration into a shared
// store so every terminal converges on the same tax and tip policy.
// Consistency is eventual: the last successful fetch wins, and peers
// are nudged through a change signal rather than any transaction.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mesaviva/pos-payments-terminal/internal/config"
	"github.com/mesaviva/pos-payments-terminal/internal/models"
)

const (
	// configKey is the fixed cache key shared by all terminals.
	configKey = "pos:restaurant-config"

	// configChannel carries change notifications to open terminals.
	configChannel = "pos:restaurant-config:updated"
)

// ConfigCache stores the last known restaurant configuration and
// broadcasts updates to other terminals.
type ConfigCache interface {
	Get(ctx context.Context) (*models.SystemConfiguration, error)
	Set(ctx context.Context, cfg *models.SystemConfiguration) error
	Subscribe(ctx context.Context, onChange func(*models.SystemConfiguration))
}

// RedisConfigCache implements ConfigCache using Redis. The cached value
// has no TTL: a stale policy beats blocking the payment flow.
type RedisConfigCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisConfigCache creates a new Redis-based configuration cache.
func NewRedisConfigCache(cfg config.RedisConfig, logger *slog.Logger) *RedisConfigCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisConfigCache{
		client: client,
		logger: logger,
	}
}

// Get retrieves the cached configuration. A cache miss is (nil, nil).
func (c *RedisConfigCache) Get(ctx context.Context) (*models.SystemConfiguration, error) {
	data, err := c.client.Get(ctx, configKey).Bytes()
	if err == redis.Nil {
		c.logger.Debug("config cache miss")
		return nil, nil
	}
	if err != nil {
		c.logger.Error("config cache get error", "error", err)
		return nil, err
	}

	var cached models.CachedConfiguration
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	c.logger.Debug("config cache hit", "updated_at", cached.UpdatedAt)
	return cached.Data, nil
}

// Set stores the configuration and broadcasts the change so other open
// terminals re-resolve without a reload.
func (c *RedisConfigCache) Set(ctx context.Context, cfg *models.SystemConfiguration) error {
	data, err := json.Marshal(models.CachedConfiguration{
		Data:      cfg,
		UpdatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, configKey, data, 0).Err(); err != nil {
		c.logger.Error("config cache set error", "error", err)
		return err
	}

	if err := c.client.Publish(ctx, configChannel, data).Err(); err != nil {
		c.logger.Error("config change broadcast error", "error", err)
		return err
	}

	c.logger.Debug("configuration cached and broadcast")
	return nil
}

// Subscribe listens for configuration changes published by other
// terminals and invokes onChange for each one. Blocks until ctx is done.
func (c *RedisConfigCache) Subscribe(ctx context.Context, onChange func(*models.SystemConfiguration)) {
	sub := c.client.Subscribe(ctx, configChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var cached models.CachedConfiguration
			if err := json.Unmarshal([]byte(msg.Payload), &cached); err != nil {
				c.logger.Error("bad config broadcast payload", "error", err)
				continue
			}
			if cached.Data != nil {
				c.logger.Info("configuration updated by another terminal")
				onChange(cached.Data)
			}
		}
	}
}

// Close releases the Redis connection.
func (c *RedisConfigCache) Close() error {
	return c.client.Close()
}

// MemoryConfigCache is a process-local ConfigCache used when the shared
// cache is disabled and in tests. Changes are not visible to other
// terminals.
type MemoryConfigCache struct {
	cfg *models.SystemConfiguration
}

// NewMemoryConfigCache creates an empty in-memory configuration cache.
func NewMemoryConfigCache() *MemoryConfigCache {
	return &MemoryConfigCache{}
}

func (c *MemoryConfigCache) Get(ctx context.Context) (*models.SystemConfiguration, error) {
	return c.cfg, nil
}

func (c *MemoryConfigCache) Set(ctx context.Context, cfg *models.SystemConfiguration) error {
	c.cfg = cfg
	return nil
}

func (c *MemoryConfigCache) Subscribe(ctx context.Context, onChange func(*models.SystemConfiguration)) {
	<-ctx.Done()
}
