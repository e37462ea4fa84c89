package repository

import (
	"context"
	"errors"

	"grocery/internal/domain/model"
	"grocery/internal/infra/retry"
	domainrepo "grocery/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	store
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB, policy retry.Policy) domainrepo.UserRepository {
	return &userGormRepository{store: newStore(db, policy)}
}

// Create はユーザーを新規作成
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Create(user).Error
	})
	return duplicated(err)
}

// emailでユーザーを1件取得
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("email = ?", email).First(&u).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// IDでユーザーを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("id = ?", id).First(&u).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ユーザーを更新。
func (r *userGormRepository) Update(ctx context.Context, user *model.User) error {
	return r.run(ctx, func(db *gorm.DB) error {
		return db.Save(user).Error
	})
}

// token_versionを+1 します。
func (r *userGormRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	return r.run(ctx, func(db *gorm.DB) error {
		res := db.Model(&model.User{}).
			Where("id = ?", id).
			UpdateColumn("token_version", gorm.Expr("token_version + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		// 0件更新は「対象がない」
		if res.RowsAffected == 0 {
			return domainrepo.ErrUserNotFound
		}
		return nil
	})
}

func (r *userGormRepository) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	var list []model.User
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("role = ?", role).Order("id asc").Find(&list).Error
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}
