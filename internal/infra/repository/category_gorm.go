package repository

import (
	"context"

	"grocery/internal/domain/model"
	"grocery/internal/infra/retry"
	repo "grocery/internal/repository"

	"gorm.io/gorm"
)

type categoryGormRepository struct {
	store
}

func NewCategoryGormRepository(db *gorm.DB, policy retry.Policy) repo.CategoryRepository {
	return &categoryGormRepository{store: newStore(db, policy)}
}

func (r *categoryGormRepository) List(ctx context.Context) ([]model.Category, error) {
	var list []model.Category
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Order("sort_order asc, id asc").Find(&list).Error
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *categoryGormRepository) FindByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.First(&c, id).Error
	})
	if err != nil {
		return model.Category{}, notFound(err)
	}
	return c, nil
}

func (r *categoryGormRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	var out model.Category
	err := r.run(ctx, func(db *gorm.DB) error {
		out = c
		return db.Create(&out).Error
	})
	if err != nil {
		return model.Category{}, duplicated(err)
	}
	return out, nil
}

func (r *categoryGormRepository) Update(ctx context.Context, c model.Category) error {
	return r.run(ctx, func(db *gorm.DB) error {
		res := db.Model(&model.Category{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
			"name":       c.Name,
			"sort_order": c.SortOrder,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// カテゴリを消したら商品は未分類に戻す
func (r *categoryGormRepository) Delete(ctx context.Context, id int64) error {
	return r.run(ctx, func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&model.Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
				return err
			}
			res := tx.Delete(&model.Category{}, id)
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
