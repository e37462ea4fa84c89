package usecase

import (
	"context"
	"strings"

	"grocery/internal/domain/lifecycle"
	"grocery/internal/domain/model"
	repo "grocery/internal/repository"

	"go.uber.org/zap"
)

// 配達員ポータル
type DeliveryUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	items    repo.OrderItemRepository
	notifier *orderNotifier
	stock    *stockCacheInvalidator
}

func NewDeliveryUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	items repo.OrderItemRepository,
	notifications repo.NotificationRepository,
	publisher OrderEventPublisher,
	cache ProductCache,
	log *zap.Logger,
) *DeliveryUsecase {
	return &DeliveryUsecase{
		tx:       tx,
		orders:   orders,
		items:    items,
		notifier: newOrderNotifier(notifications, publisher, log),
		stock:    newStockCacheInvalidator(cache, log),
	}
}

type DeliveryListInput struct {
	Scope string
	Page  int
	Limit int
}

// available: 承認済み・未担当・配達待ち / mine: 自分の担当
func (u *DeliveryUsecase) List(ctx context.Context, courierID int64, in DeliveryListInput) (OrderListOutput, error) {
	if courierID <= 0 {
		return OrderListOutput{}, unauthorized()
	}
	if in.Page < 1 {
		return OrderListOutput{}, badRequest("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return OrderListOutput{}, badRequest("invalid limit")
	}

	var scope repo.CourierScope
	switch strings.ToLower(strings.TrimSpace(in.Scope)) {
	case "", string(repo.CourierScopeAvailable):
		scope = repo.CourierScopeAvailable
	case string(repo.CourierScopeMine):
		scope = repo.CourierScopeMine
	default:
		return OrderListOutput{}, badRequest("invalid scope")
	}

	orders, total, err := u.orders.ListForCourier(ctx, repo.CourierOrderFilter{
		Scope:     scope,
		CourierID: courierID,
		Page:      in.Page,
		Limit:     in.Limit,
	})
	if err != nil {
		return OrderListOutput{}, toHTTPError(err)
	}
	outs, err := ordersWithItems(ctx, u.items, orders)
	if err != nil {
		return OrderListOutput{}, err
	}
	return OrderListOutput{Items: outs, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// 先に書き込んだ配達員だけが成功する。負けた側は 409 already assigned。
func (u *DeliveryUsecase) Claim(ctx context.Context, courierID int64, orderID int64) (OrderOutput, error) {
	return u.apply(ctx, courierID, orderID, lifecycle.EventClaim, "")
}

func (u *DeliveryUsecase) Depart(ctx context.Context, courierID int64, orderID int64) (OrderOutput, error) {
	return u.apply(ctx, courierID, orderID, lifecycle.EventDepart, "")
}

func (u *DeliveryUsecase) Deliver(ctx context.Context, courierID int64, orderID int64) (OrderOutput, error) {
	return u.apply(ctx, courierID, orderID, lifecycle.EventDeliver, "")
}

// 理由必須。明細分の在庫を戻す。
func (u *DeliveryUsecase) Cancel(ctx context.Context, courierID int64, orderID int64, reason string) (OrderOutput, error) {
	return u.apply(ctx, courierID, orderID, lifecycle.EventCancel, reason)
}

func (u *DeliveryUsecase) apply(ctx context.Context, courierID int64, orderID int64, ev lifecycle.Event, reason string) (OrderOutput, error) {
	if courierID <= 0 {
		return OrderOutput{}, unauthorized()
	}
	if orderID <= 0 {
		return OrderOutput{}, badRequest("invalid id")
	}

	cmd := lifecycle.Command{
		Event:  ev,
		Actor:  lifecycle.Actor{ID: courierID, Role: lifecycle.ActorCourier},
		Reason: reason,
	}

	var hook transitionHook
	var restocked []int64
	if ev == lifecycle.EventCancel {
		hook = func(ctx context.Context, r repo.TxRepos, _ model.Order, after model.Order) error {
			ids, err := restockOrder(ctx, r, after, courierID, "delivery cancelled: "+after.CancelReason)
			restocked = ids
			return err
		}
	}

	updated, err := transitionOrder(ctx, u.tx, orderID, cmd, hook)
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}

	u.notifier.afterTransition(ctx, ev, updated)
	u.stock.afterStockChange(ctx, restocked)

	items, err := u.items.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}
	return toOrderOutput(updated, items), nil
}
