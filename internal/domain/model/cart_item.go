package model

import (
	"time"

	"grocery/internal/domain/pricing"

	"github.com/shopspring/decimal"
)

// カートの明細。1ユーザー×1商品で1行。
// 追加時点の価格を必ず保存。
type CartItem struct {
	ID                int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64            `gorm:"not null;uniqueIndex:idx_cart_items_user_product" json:"user_id"`
	ProductID         int64            `gorm:"not null;uniqueIndex:idx_cart_items_user_product" json:"product_id"`
	Quantity          int64            `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot decimal.Decimal  `gorm:"type:numeric(12,2);not null;column:unit_price_snapshot" json:"unit_price_snapshot"`
	ListPriceSnapshot *decimal.Decimal `gorm:"type:numeric(12,2);column:list_price_snapshot" json:"list_price_snapshot,omitempty"`
	CreatedAt         time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ci CartItem) LineItem() (pricing.LineItem, error) {
	return pricing.NewLineItem(ci.ProductID, ci.UnitPriceSnapshot, ci.ListPriceSnapshot, ci.Quantity)
}
