package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// 在庫が動いた商品のキャッシュを消す。コミット後に呼ぶ。
// 失敗してもログだけ（キャッシュは TTL で切れる）。
type stockCacheInvalidator struct {
	cache   ProductCache
	log     *zap.Logger
	timeout time.Duration
}

func newStockCacheInvalidator(cache ProductCache, log *zap.Logger) *stockCacheInvalidator {
	if log == nil {
		log = zap.NewNop()
	}
	return &stockCacheInvalidator{cache: cache, log: log, timeout: 2 * time.Second}
}

func (s *stockCacheInvalidator) afterStockChange(ctx context.Context, productIDs []int64) {
	if s == nil || s.cache == nil || len(productIDs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	seen := make(map[int64]struct{}, len(productIDs))
	for _, id := range productIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.log.Warn("product cache invalidate failed", zap.Int64("product_id", id), zap.Error(err))
		}
	}
}
