package repository

import (
	"context"

	"grocery/internal/domain/model"
	"grocery/internal/infra/retry"
	repo "grocery/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	store
}

// DI
func NewCartGormRepository(db *gorm.DB, policy retry.Policy) *CartGormRepository {
	return &CartGormRepository{store: newStore(db, policy)}
}

// ユーザーのカート明細を追加順で返す
func (r *CartGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ?", userID).Order("id asc").Find(&items).Error
	})
	if err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

func (r *CartGormRepository) FindItem(ctx context.Context, userID int64, productID int64) (model.CartItem, error) {
	var item model.CartItem
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
	})
	if err != nil {
		return model.CartItem{}, notFound(err)
	}
	return item, nil
}

// (user_id, product_id) が既にあれば数量と価格スナップショットを上書き
func (r *CartGormRepository) Upsert(ctx context.Context, item model.CartItem) error {
	item.ID = 0
	return r.run(ctx, func(db *gorm.DB) error {
		row := item
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "unit_price_snapshot", "list_price_snapshot", "updated_at"}),
		}).Create(&row).Error
	})
}

// 明細の数量を更新
func (r *CartGormRepository) UpdateQuantity(ctx context.Context, userID int64, productID int64, qty int64) error {
	return r.run(ctx, func(db *gorm.DB) error {
		res := db.Model(&model.CartItem{}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			Update("quantity", qty)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// 明細を削除
func (r *CartGormRepository) Remove(ctx context.Context, userID int64, productID int64) error {
	return r.run(ctx, func(db *gorm.DB) error {
		res := db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&model.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// カートを空にする（空でもエラーにしない）
func (r *CartGormRepository) Clear(ctx context.Context, userID int64) error {
	return r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ?", userID).Delete(&model.CartItem{}).Error
	})
}
