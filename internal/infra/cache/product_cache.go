package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"grocery/internal/domain/model"
	"grocery/internal/infra/retry"

	"github.com/go-redis/redis/v8"
)

const productKeyPrefix = "product:"

// 商品詳細の読み取りキャッシュ（redis）
type ProductCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	policy retry.Policy
}

func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return rdb, nil
}

func NewProductCache(rdb *redis.Client, ttl time.Duration, policy retry.Policy) *ProductCache {
	// キャッシュは待たせない
	policy.Attempts = 1
	return &ProductCache{rdb: rdb, ttl: ttl, policy: policy}
}

func productKey(id int64) string {
	return fmt.Sprintf("%s%d", productKeyPrefix, id)
}

// 無ければ ok=false
func (c *ProductCache) Get(ctx context.Context, id int64) (model.Product, bool, error) {
	var raw []byte
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		b, err := c.rdb.Get(ctx, productKey(id)).Bytes()
		raw = b
		return err
	})
	if errors.Is(err, redis.Nil) {
		return model.Product{}, false, nil
	}
	if err != nil {
		return model.Product{}, false, err
	}

	var p model.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Product{}, false, fmt.Errorf("decode cached product: %w", err)
	}
	return p, true, nil
}

func (c *ProductCache) Set(ctx context.Context, p model.Product) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}
	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		return c.rdb.Set(ctx, productKey(p.ID), b, c.ttl).Err()
	})
}

func (c *ProductCache) Invalidate(ctx context.Context, id int64) error {
	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		return c.rdb.Del(ctx, productKey(id)).Err()
	})
}
