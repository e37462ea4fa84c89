package repository

import (
	"context"

	"grocery/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n model.Notification) (model.Notification, error)
	ListByUserID(ctx context.Context, userID int64, limit int) ([]model.Notification, error)
	// 本人のお知らせだけ既読にする
	MarkRead(ctx context.Context, userID int64, notificationID int64) error
}
