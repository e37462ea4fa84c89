package repository

import (
	"context"

	"grocery/internal/domain/model"
	"grocery/internal/infra/retry"
	repo "grocery/internal/repository"

	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	store
}

func NewAuditLogGormRepository(db *gorm.DB, policy retry.Policy) repo.AuditLogRepository {
	return &auditLogGormRepository{store: newStore(db, policy)}
}

func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	return r.run(ctx, func(db *gorm.DB) error {
		row := log
		return db.Create(&row).Error
	})
}

func (r *auditLogGormRepository) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	// limit/offset
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var logs []model.AuditLog
	err := r.run(ctx, func(db *gorm.DB) error {
		q := db.Model(&model.AuditLog{})

		if filter.ActorUserID != nil {
			q = q.Where("actor_user_id = ?", *filter.ActorUserID)
		}
		if filter.Action != nil {
			q = q.Where("action = ?", *filter.Action)
		}
		if filter.ResourceType != nil {
			q = q.Where("resource_type = ?", *filter.ResourceType)
		}
		if filter.ResourceID != nil {
			q = q.Where("resource_id = ?", *filter.ResourceID)
		}
		if filter.CreatedFrom != nil {
			q = q.Where("created_at >= ?", *filter.CreatedFrom)
		}
		if filter.CreatedTo != nil {
			q = q.Where("created_at <= ?", *filter.CreatedTo)
		}

		//新しい順
		return q.Order("id DESC").Limit(limit).Offset(offset).Find(&logs).Error
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}
