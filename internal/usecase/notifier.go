package usecase

import (
	"context"
	"fmt"
	"time"

	"grocery/internal/domain/lifecycle"
	"grocery/internal/domain/model"
	repo "grocery/internal/repository"

	"go.uber.org/zap"
)

// 注文イベントを外へ流す（AMQP_URL が無ければ何もしない実装）
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev lifecycle.Event, o model.Order) error
}

// コミット後の通知とイベント。失敗しても呼び出し元は失敗にしない。
type orderNotifier struct {
	notifications repo.NotificationRepository
	publisher     OrderEventPublisher
	log           *zap.Logger
	timeout       time.Duration
}

func newOrderNotifier(notifications repo.NotificationRepository, publisher OrderEventPublisher, log *zap.Logger) *orderNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &orderNotifier{notifications: notifications, publisher: publisher, log: log, timeout: 3 * time.Second}
}

func (n *orderNotifier) afterTransition(ctx context.Context, ev lifecycle.Event, o model.Order) {
	if n == nil {
		return
	}
	// リクエストが切れても書き込みは続ける
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	fields := []zap.Field{zap.Int64("order_id", o.ID), zap.String("event", string(ev))}

	if n.notifications != nil {
		if kind, msg, ok := notificationFor(ev, o); ok {
			orderID := o.ID
			if _, err := n.notifications.Create(ctx, model.Notification{
				UserID:  o.UserID,
				OrderID: &orderID,
				Kind:    kind,
				Message: msg,
			}); err != nil {
				n.log.Warn("notification insert failed", append(fields, zap.Error(err))...)
			}
		}
	}

	if n.publisher != nil {
		if err := n.publisher.PublishOrderEvent(ctx, ev, o); err != nil {
			n.log.Warn("order event publish failed", append(fields, zap.Error(err))...)
		}
	}
}

func notificationFor(ev lifecycle.Event, o model.Order) (model.NotificationKind, string, bool) {
	switch ev {
	case lifecycle.EventAccept:
		return model.NotificationOrderAccepted, fmt.Sprintf("Your order #%d has been accepted.", o.ID), true
	case lifecycle.EventReject:
		return model.NotificationOrderRejected, fmt.Sprintf("Your order #%d could not be accepted.", o.ID), true
	case lifecycle.EventClaim:
		return model.NotificationOrderClaimed, fmt.Sprintf("A delivery partner has picked up order #%d.", o.ID), true
	case lifecycle.EventDepart:
		return model.NotificationOrderDeparted, fmt.Sprintf("Order #%d is on its way.", o.ID), true
	case lifecycle.EventDeliver:
		return model.NotificationOrderDelivered, fmt.Sprintf("Order #%d has been delivered.", o.ID), true
	case lifecycle.EventCancel:
		return model.NotificationOrderCancelled, fmt.Sprintf("Delivery of order #%d was cancelled: %s", o.ID, o.CancelReason), true
	}
	return "", "", false
}
