package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Yoyzhao/CampusIdle/internal/domain/models"
	"github.com/redis/go-redis/v9"
)

const listingKey = "catalog:listing"

// Cache is a time-boxed response cache for the public catalog listing.
// Writers invalidate it synchronously; readers fall through to Postgres on
// miss or error.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) GetListing(ctx context.Context) ([]models.Item, bool) {
	payload, err := c.client.Get(ctx, listingKey).Bytes()
	if err != nil {
		return nil, false
	}

	var items []models.Item
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, false
	}

	return items, true
}

func (c *Cache) SetListing(ctx context.Context, items []models.Item) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, listingKey, payload, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, listingKey).Err()
}
