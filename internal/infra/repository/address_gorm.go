package repository

import (
	"context"

	"grocery/internal/domain/model"
	"grocery/internal/infra/retry"
	repo "grocery/internal/repository"

	"gorm.io/gorm"
)

type addressGormRepository struct {
	store
}

// DI
func NewAddressGormRepository(db *gorm.DB, policy retry.Policy) repo.AddressRepository {
	return &addressGormRepository{store: newStore(db, policy)}
}

// 住所を作成
func (r *addressGormRepository) Create(ctx context.Context, address model.Address) (model.Address, error) {
	var out model.Address
	err := r.run(ctx, func(db *gorm.DB) error {
		out = address
		return db.Create(&out).Error
	})
	if err != nil {
		return model.Address{}, err
	}
	return out, nil
}

// ユーザーの住所一覧を返す
func (r *addressGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	var list []model.Address
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ?", userID).Order("is_default DESC, id ASC").Find(&list).Error
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// 住所IDで1件取得
func (r *addressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.First(&a, addressID).Error
	})
	if err != nil {
		return model.Address{}, notFound(err)
	}
	return a, nil
}

// 住所を更新（位置は両方そろって入れ替える）
func (r *addressGormRepository) Update(ctx context.Context, address model.Address) error {
	return r.run(ctx, func(db *gorm.DB) error {
		res := db.Model(&model.Address{}).
			Where("id = ?", address.ID).
			Select("name", "phone", "line1", "line2", "city", "postal_code", "lat", "lng").
			Updates(address)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// 住所を削除
func (r *addressGormRepository) Delete(ctx context.Context, addressID int64) error {
	return r.run(ctx, func(db *gorm.DB) error {
		res := db.Where("id = ?", addressID).Delete(&model.Address{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// その住所がそのユーザーのものか
func (r *addressGormRepository) IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error) {
	var count int64
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Model(&model.Address{}).
			Where("id = ? AND user_id = ?", addressID, userID).
			Count(&count).Error
	})
	if err != nil {
		return false, err
	}
	return count == 1, nil
}

// デフォルト住所を切り替える
func (r *addressGormRepository) SetDefault(ctx context.Context, userID, addressID int64) error {
	return r.run(ctx, func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			//指定住所がこのユーザーのものか確認
			var count int64
			if err := tx.Model(&model.Address{}).
				Where("id = ? AND user_id = ?", addressID, userID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return repo.ErrNotFound
			}

			//そのユーザーのdefaultを全て false
			if err := tx.Model(&model.Address{}).
				Where("user_id = ? AND is_default = TRUE", userID).
				Update("is_default", false).Error; err != nil {
				return err
			}

			//指定住所だけ true
			return tx.Model(&model.Address{}).
				Where("id = ? AND user_id = ?", addressID, userID).
				Update("is_default", true).Error
		})
	})
}
