package repository

import (
	"context"

	"grocery/internal/domain/model"
	"grocery/internal/infra/retry"
	repo "grocery/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	store
}

func NewInventoryGormRepository(db *gorm.DB, policy retry.Policy) *InventoryGormRepository {
	return &InventoryGormRepository{store: newStore(db, policy)}
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, newStock int64) error {
	return r.run(ctx, func(db *gorm.DB) error {
		res := db.Model(&model.Product{}).
			Where("id = ?", productID).
			Update("stock", newStock)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// 在庫が足りるときだけ減らす
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	var ok bool
	err := r.run(ctx, func(db *gorm.DB) error {
		res := db.Model(&model.Product{}).
			Where("id = ? AND stock >= ?", productID, qty).
			Update("stock", gorm.Expr("stock - ?", qty))
		if res.Error != nil {
			return res.Error
		}
		ok = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

// 在庫戻し（却下・配達キャンセル）
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	return r.run(ctx, func(db *gorm.DB) error {
		// 論理削除済みの商品にも戻す
		res := db.Unscoped().Model(&model.Product{}).
			Where("id = ?", productID).
			Update("stock", gorm.Expr("stock + ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	return r.run(ctx, func(db *gorm.DB) error {
		row := adj
		return db.Create(&row).Error
	})
}
