package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"grocery/internal/domain/domainerr"
	"grocery/internal/domain/model"
	"grocery/internal/infra/retry"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func TestProductKey(t *testing.T) {
	assert.Equal(t, "product:42", productKey(42))
}

func TestNewProductCache_NoRetry(t *testing.T) {
	c := NewProductCache(nil, time.Minute, retry.DefaultPolicy())
	assert.Equal(t, 1, c.policy.Attempts)
	assert.Equal(t, time.Minute, c.ttl)
}

// 繋がらない redis は一時エラーとして返る（呼び出し側は DB に落とす）
func TestProductCache_Unreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	c := NewProductCache(rdb, time.Minute, retry.Policy{Timeout: time.Second, Attempts: 1})
	ctx := context.Background()

	_, ok, err := c.Get(ctx, 1)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, domainerr.ErrTransient), "err=%v", err)

	err = c.Set(ctx, model.Product{ID: 1, Name: "Milk"})
	assert.True(t, errors.Is(err, domainerr.ErrTransient), "err=%v", err)

	err = c.Invalidate(ctx, 1)
	assert.Error(t, err)
}
