package repository

import (
	"context"
	"time"

	"grocery/internal/domain/model"
	"grocery/internal/infra/retry"
	repo "grocery/internal/repository"

	"gorm.io/gorm"
)

type notificationGormRepository struct {
	store
}

func NewNotificationGormRepository(db *gorm.DB, policy retry.Policy) repo.NotificationRepository {
	return &notificationGormRepository{store: newStore(db, policy)}
}

func (r *notificationGormRepository) Create(ctx context.Context, n model.Notification) (model.Notification, error) {
	var out model.Notification
	err := r.run(ctx, func(db *gorm.DB) error {
		out = n
		return db.Create(&out).Error
	})
	if err != nil {
		return model.Notification{}, err
	}
	return out, nil
}

// 新しい順
func (r *notificationGormRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var list []model.Notification
	err := r.run(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ?", userID).Order("id desc").Limit(limit).Find(&list).Error
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// 既読済みでも成功扱い（他人のものは見つからない）
func (r *notificationGormRepository) MarkRead(ctx context.Context, userID int64, notificationID int64) error {
	return r.run(ctx, func(db *gorm.DB) error {
		var count int64
		if err := db.Model(&model.Notification{}).
			Where("id = ? AND user_id = ?", notificationID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return repo.ErrNotFound
		}
		return db.Model(&model.Notification{}).
			Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
			Update("read_at", time.Now()).Error
	})
}
