package repository

import (
	"context"
	"strings"

	"grocery/internal/domain/model"
	"grocery/internal/infra/retry"
	repo "grocery/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	store
}

// DI
func NewProductGormRepository(db *gorm.DB, policy retry.Policy) *ProductGormRepository {
	return &ProductGormRepository{store: newStore(db, policy)}
}

// 公開商品のみを、検索/カテゴリ/価格帯/ソート/ページング付きで返す。
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	offset, size := pageOf(q.Page, q.Limit, 20, 100)

	var products []model.Product
	var total int64
	err := r.run(ctx, func(db *gorm.DB) error {
		tx := db.Model(&model.Product{})

		// 公開（is_active=true）かつ、商品削除されていないものだけ
		if !q.IncludeInactive {
			tx = tx.Where("is_active = ?", true)
		}

		// q nameを対象
		if kw := strings.TrimSpace(q.Q); kw != "" {
			tx = tx.Where("name ILIKE ?", "%"+kw+"%")
		}
		if q.CategoryID != nil {
			tx = tx.Where("category_id = ?", *q.CategoryID)
		}

		//価格帯
		if q.MinPrice != nil {
			tx = tx.Where("price >= ?", *q.MinPrice)
		}
		if q.MaxPrice != nil {
			tx = tx.Where("price <= ?", *q.MaxPrice)
		}

		//total（件数）
		if err := tx.Count(&total).Error; err != nil {
			return err
		}

		//sort
		switch q.Sort {
		case "price_asc":
			tx = tx.Order("price asc").Order("id asc")
		case "price_desc":
			tx = tx.Order("price desc").Order("id desc")
		case "name":
			tx = tx.Order("name asc").Order("id asc")
		default:
			tx = tx.Order("created_at desc").Order("id desc")
		}

		return tx.Offset(offset).Limit(size).Find(&products).Error
	})
	if err != nil {
		return []model.Product{}, 0, err
	}
	return products, total, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.First(&p, id).Error
	})
	if err != nil {
		return model.Product{}, notFound(err)
	}
	return p, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	var out model.Product
	err := r.run(ctx, func(db *gorm.DB) error {
		out = p
		return db.Create(&out).Error
	})
	if err != nil {
		return model.Product{}, err
	}
	return out, nil
}

// 商品の更新（在庫は在庫APIで変える）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	return r.run(ctx, func(db *gorm.DB) error {
		res := db.Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"category_id": p.CategoryID,
			"name":        p.Name,
			"description": p.Description,
			"price":       p.Price,
			"list_price":  p.ListPrice,
			"unit":        p.Unit,
			"image_url":   p.ImageURL,
			"is_active":   p.IsActive,
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

// 商品削除
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	return r.run(ctx, func(db *gorm.DB) error {
		res := db.Delete(&model.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}
