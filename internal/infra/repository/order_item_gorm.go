package repository

import (
	"context"

	"grocery/internal/domain/model"
	"grocery/internal/infra/retry"

	"gorm.io/gorm"
)

type OrderItemGormRepository struct {
	store
}

func NewOrderItemGormRepository(db *gorm.DB, policy retry.Policy) *OrderItemGormRepository {
	return &OrderItemGormRepository{store: newStore(db, policy)}
}

func (r *OrderItemGormRepository) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]model.OrderItem, len(items))
	for i, it := range items {
		it.OrderID = orderID
		rows[i] = it
	}
	return r.run(ctx, func(db *gorm.DB) error {
		return db.Create(&rows).Error
	})
}

func (r *OrderItemGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("order_id = ?", orderID).Order("id asc").Find(&items).Error
	})
	if err != nil {
		return []model.OrderItem{}, err
	}
	return items, nil
}
