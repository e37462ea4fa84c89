package repository

import (
	"context"
	"time"

	"grocery/internal/domain/lifecycle"
	"grocery/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page           int
	Limit          int
	Status         lifecycle.OrderStatus
	DeliveryStatus lifecycle.DeliveryStatus
	UserID         *int64
	CourierID      *int64
	From           *time.Time
	To             *time.Time
}

// 配達員向け一覧の範囲
type CourierScope string

const (
	//ACCEPTED・配達PENDING・未担当
	CourierScopeAvailable CourierScope = "available"
	//自分が担当
	CourierScopeMine CourierScope = "mine"
)

type CourierOrderFilter struct {
	Scope     CourierScope
	CourierID int64
	Page      int
	Limit     int
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	// from と一致しているときだけ status / delivery_status / courier_id / cancel_reason を to に更新する。
	// 一致しなかったら false（他の更新に負けた）。
	CompareAndSwapLifecycle(ctx context.Context, orderID int64, from lifecycle.State, to lifecycle.State) (bool, error)

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	//配達員用の注文一覧
	ListForCourier(ctx context.Context, f CourierOrderFilter) ([]model.Order, int64, error)
	//管理者による削除（明細も消す）
	Delete(ctx context.Context, orderID int64) error
}
