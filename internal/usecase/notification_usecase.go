package usecase

import (
	"context"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
)

type NotificationUsecase struct {
	notifications repo.NotificationRepository
}

func NewNotificationUsecase(notifications repo.NotificationRepository) *NotificationUsecase {
	return &NotificationUsecase{notifications: notifications}
}

func (u *NotificationUsecase) List(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	if userID <= 0 {
		return nil, unauthorized()
	}
	list, err := u.notifications.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return list, nil
}

func (u *NotificationUsecase) MarkRead(ctx context.Context, userID int64, notificationID int64) error {
	if userID <= 0 {
		return unauthorized()
	}
	if notificationID <= 0 {
		return badRequest("invalid id")
	}
	return toHTTPError(u.notifications.MarkRead(ctx, userID, notificationID))
}
