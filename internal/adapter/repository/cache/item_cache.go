package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/domain"
	"github.com/redis/go-redis/v9"
)

// itemTTL is deliberately short: the current price moves with every bid
// and a stale price only survives until the next write invalidates it.
const itemTTL = 5 * time.Minute

type ItemCache struct {
	client *redis.Client
}

func NewItemCache(addr string) (*ItemCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr, // e.g., "localhost:6379"
	})
	_, err := client.Ping(context.Background()).Result()
	if err != nil {
		return nil, err
	}
	return &ItemCache{client: client}, nil
}

func (c *ItemCache) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	data, err := c.client.Get(ctx, "item:"+id).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}
	var item domain.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *ItemCache) SetItem(ctx context.Context, item *domain.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "item:"+item.ID.Hex(), data, itemTTL).Err()
}

func (c *ItemCache) DeleteItem(ctx context.Context, id string) error {
	return c.client.Del(ctx, "item:"+id).Err()
}

func (c *ItemCache) Close() error {
	return c.client.Close()
}
