package model

import (
	"time"

	"grocery/internal/domain/lifecycle"
	"grocery/internal/domain/pricing"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentOnline PaymentMethod = "ONLINE"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCOD || p == PaymentOnline
}

// 注文時点の住所をそのまま写したもの
type ShippingAddress struct {
	Name       string `gorm:"type:varchar(255);not null" json:"name"`
	Phone      string `gorm:"type:varchar(30);not null;default:''" json:"phone"`
	Address    string `gorm:"type:text;not null" json:"address"`
	City       string `gorm:"type:varchar(255);not null" json:"city"`
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code"`
}

// 作成後、明細と金額は変えない。変わるのはライフサイクル系のカラムだけ。
type Order struct {
	ID       int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   int64           `gorm:"not null;index;uniqueIndex:idx_orders_user_idem" json:"user_id"`
	Shipping ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	DestLat  *float64        `json:"dest_lat,omitempty"`
	DestLng  *float64        `json:"dest_lng,omitempty"`

	Subtotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	DeliveryFee decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"delivery_fee"`
	Discount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount"`
	Total       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`

	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`

	Status         lifecycle.OrderStatus    `gorm:"type:varchar(20);not null;index" json:"status"`
	DeliveryStatus lifecycle.DeliveryStatus `gorm:"type:varchar(20);not null;default:'';index" json:"delivery_status"`
	CourierID      *int64                   `gorm:"index" json:"courier_id,omitempty"`
	CancelReason   string                   `gorm:"type:text;not null;default:''" json:"cancel_reason,omitempty"`

	IdempotencyKey string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_user_idem" json:"-"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (o Order) Lifecycle() lifecycle.State {
	return lifecycle.State{
		Status:       o.Status,
		Delivery:     o.DeliveryStatus,
		CourierID:    o.CourierID,
		CancelReason: o.CancelReason,
	}
}

// ライフサイクル系のカラムだけ差し替える
func (o Order) WithLifecycle(s lifecycle.State) Order {
	o.Status = s.Status
	o.DeliveryStatus = s.Delivery
	o.CourierID = s.CourierID
	o.CancelReason = s.CancelReason
	return o
}

func (o Order) Destination() *pricing.Coordinate {
	if o.DestLat == nil || o.DestLng == nil {
		return nil
	}
	return &pricing.Coordinate{Lat: *o.DestLat, Lng: *o.DestLng}
}
