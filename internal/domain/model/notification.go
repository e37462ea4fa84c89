package model

import "time"

type NotificationKind string

const (
	NotificationOrderAccepted  NotificationKind = "ORDER_ACCEPTED"
	NotificationOrderRejected  NotificationKind = "ORDER_REJECTED"
	NotificationOrderClaimed   NotificationKind = "ORDER_CLAIMED"
	NotificationOrderDeparted  NotificationKind = "ORDER_DEPARTED"
	NotificationOrderDelivered NotificationKind = "ORDER_DELIVERED"
	NotificationOrderCancelled NotificationKind = "ORDER_CANCELLED"
)

// 顧客へのお知らせ（追記のみ）
type Notification struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64            `gorm:"not null;index" json:"user_id"`
	OrderID   *int64           `gorm:"index" json:"order_id,omitempty"`
	Kind      NotificationKind `gorm:"type:varchar(50);not null" json:"kind"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `gorm:"not null;autoCreateTime;index" json:"created_at"`
}
