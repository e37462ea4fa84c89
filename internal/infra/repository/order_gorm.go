package repository

import (
	"context"
	"errors"

	"grocery/internal/domain/lifecycle"
	"grocery/internal/domain/model"
	"grocery/internal/infra/retry"
	repo "grocery/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	store
}

func NewOrderGormRepository(db *gorm.DB, policy retry.Policy) *OrderGormRepository {
	return &OrderGormRepository{store: newStore(db, policy)}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("id = ?", orderID).First(&o).Error
	})
	if err != nil {
		return model.Order{}, notFound(err)
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	offset, size := pageOf(page, limit, 20, 100)

	var total int64
	var items []model.Order
	err := r.run(ctx, func(db *gorm.DB) error {
		q := db.Model(&model.Order{}).Where("user_id = ?", userID)
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return q.Order("id desc").Limit(size).Offset(offset).Find(&items).Error
	})
	if err != nil {
		return []model.Order{}, 0, err
	}
	return items, total, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Create(&order).Error
	})
	if err != nil {
		return 0, duplicated(err)
	}
	return order.ID, nil
}

// ライフサイクル4カラムが from のままなら to に書き換える（条件付き更新）
func (r *OrderGormRepository) CompareAndSwapLifecycle(ctx context.Context, orderID int64, from lifecycle.State, to lifecycle.State) (bool, error) {
	var affected int64
	err := r.run(ctx, func(db *gorm.DB) error {
		q := db.Model(&model.Order{}).
			Where("id = ? AND status = ? AND delivery_status = ? AND cancel_reason = ?",
				orderID, from.Status, from.Delivery, from.CancelReason)
		if from.CourierID == nil {
			q = q.Where("courier_id IS NULL")
		} else {
			q = q.Where("courier_id = ?", *from.CourierID)
		}

		res := q.Updates(map[string]interface{}{
			"status":          to.Status,
			"delivery_status": to.Delivery,
			"courier_id":      to.CourierID,
			"cancel_reason":   to.CancelReason,
		})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ? AND idempotency_key = ?", userID, key).First(&o).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Order{}, false, nil
		}
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	offset, size := pageOf(f.Page, f.Limit, 50, 100)

	var total int64
	var items []model.Order
	err := r.run(ctx, func(db *gorm.DB) error {
		q := db.Model(&model.Order{})

		//status 絞り込み
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.DeliveryStatus != lifecycle.DeliveryNone {
			q = q.Where("delivery_status = ?", f.DeliveryStatus)
		}

		//user_id / courier_id 絞り込み
		if f.UserID != nil {
			q = q.Where("user_id = ?", *f.UserID)
		}
		if f.CourierID != nil {
			q = q.Where("courier_id = ?", *f.CourierID)
		}

		//期間絞り込み
		if f.From != nil {
			q = q.Where("created_at >= ?", *f.From)
		}
		if f.To != nil {
			q = q.Where("created_at <= ?", *f.To)
		}

		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return q.Order("id desc").Limit(size).Offset(offset).Find(&items).Error
	})
	if err != nil {
		return []model.Order{}, 0, err
	}
	return items, total, nil
}

func (r *OrderGormRepository) ListForCourier(ctx context.Context, f repo.CourierOrderFilter) ([]model.Order, int64, error) {
	offset, size := pageOf(f.Page, f.Limit, 50, 100)

	var total int64
	var items []model.Order
	err := r.run(ctx, func(db *gorm.DB) error {
		q := db.Model(&model.Order{}).Where("status = ?", lifecycle.StatusAccepted)

		if f.Scope == repo.CourierScopeMine {
			q = q.Where("courier_id = ?", f.CourierID)
		} else {
			// 配達キャンセル済みは二度と未担当に戻らない
			q = q.Where("delivery_status = ? AND courier_id IS NULL", lifecycle.DeliveryPending)
		}

		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return q.Order("id asc").Limit(size).Offset(offset).Find(&items).Error
	})
	if err != nil {
		return []model.Order{}, 0, err
	}
	return items, total, nil
}

// 明細ごと消す
func (r *OrderGormRepository) Delete(ctx context.Context, orderID int64) error {
	return r.run(ctx, func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error; err != nil {
				return err
			}
			res := tx.Where("id = ?", orderID).Delete(&model.Order{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return repo.ErrNotFound
			}
			return nil
		})
	})
}
