package model

import (
	"time"

	"grocery/internal/domain/pricing"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID                  int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64            `gorm:"not null;index" json:"order_id"`
	ProductID           int64            `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string           `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"unit_price_snapshot"`
	ListPriceSnapshot   *decimal.Decimal `gorm:"type:numeric(12,2)" json:"list_price_snapshot,omitempty"`
	Quantity            int64            `gorm:"not null" json:"quantity"`
	CreatedAt           time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (oi OrderItem) LineItem() (pricing.LineItem, error) {
	return pricing.NewLineItem(oi.ProductID, oi.UnitPriceSnapshot, oi.ListPriceSnapshot, oi.Quantity)
}
