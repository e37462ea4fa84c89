package repository

import (
	"context"

	"grocery/internal/domain/model"
)

// カートの保存先（1ユーザー1カート）。
// 同時更新は行単位の後勝ち（マージやバージョン確認はしない）。
type CartRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	FindItem(ctx context.Context, userID int64, productID int64) (model.CartItem, error)
	// 同一商品は行を上書き（数量・価格スナップショット）
	Upsert(ctx context.Context, item model.CartItem) error
	UpdateQuantity(ctx context.Context, userID int64, productID int64, qty int64) error
	Remove(ctx context.Context, userID int64, productID int64) error
	Clear(ctx context.Context, userID int64) error
}
