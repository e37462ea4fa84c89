package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"grocery/internal/domain/domainerr"
	"grocery/internal/domain/lifecycle"
	"grocery/internal/domain/model"
	repo "grocery/internal/repository"

	"go.uber.org/zap"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	items     repo.OrderItemRepository
	auditRepo repo.AuditLogRepository
	notifier  *orderNotifier
	stock     *stockCacheInvalidator
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	items repo.OrderItemRepository,
	auditRepo repo.AuditLogRepository,
	notifications repo.NotificationRepository,
	publisher OrderEventPublisher,
	cache ProductCache,
	log *zap.Logger,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		tx:        tx,
		orders:    orders,
		items:     items,
		auditRepo: auditRepo,
		notifier:  newOrderNotifier(notifications, publisher, log),
		stock:     newStockCacheInvalidator(cache, log),
	}
}

type AdminOrderListInput struct {
	Page           int
	Limit          int
	Status         string
	DeliveryStatus string
	UserID         *int64
	CourierID      *int64
	From           string
	To             string
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, in AdminOrderListInput) (OrderListOutput, error) {
	// page/limitの最低限チェック
	if in.Page < 1 {
		return OrderListOutput{}, badRequest("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return OrderListOutput{}, badRequest("invalid limit")
	}

	f := repo.AdminOrderListFilter{Page: in.Page, Limit: in.Limit, UserID: in.UserID, CourierID: in.CourierID}
	if strings.TrimSpace(in.Status) != "" {
		s, err := lifecycle.ParseOrderStatus(in.Status)
		if err != nil {
			return OrderListOutput{}, toHTTPError(err)
		}
		f.Status = s
	}
	if strings.TrimSpace(in.DeliveryStatus) != "" {
		d, err := lifecycle.ParseDeliveryStatus(in.DeliveryStatus)
		if err != nil {
			return OrderListOutput{}, toHTTPError(err)
		}
		f.DeliveryStatus = d
	}

	var ok bool
	if f.From, ok = parseDateTimeRFC3339(in.From); !ok && strings.TrimSpace(in.From) != "" {
		return OrderListOutput{}, badRequest("invalid from")
	}
	if f.To, ok = parseDateTimeRFC3339(in.To); !ok && strings.TrimSpace(in.To) != "" {
		return OrderListOutput{}, badRequest("invalid to")
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return OrderListOutput{}, toHTTPError(err)
	}
	outs, err := ordersWithItems(ctx, u.items, orders)
	if err != nil {
		return OrderListOutput{}, err
	}
	return OrderListOutput{Items: outs, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *AdminOrderUsecase) Get(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, badRequest("invalid id")
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}
	items, err := u.items.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}
	return toOrderOutput(o, items), nil
}

// 承認 / 却下。却下なら在庫を戻す。承認・却下とも顧客へ通知。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, unauthorized()
	}
	if orderID <= 0 {
		return OrderOutput{}, badRequest("invalid id")
	}

	status, err := lifecycle.ParseOrderStatus(in.Status)
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}

	var ev lifecycle.Event
	switch status {
	case lifecycle.StatusAccepted:
		ev = lifecycle.EventAccept
	case lifecycle.StatusRejected:
		ev = lifecycle.EventReject
	default:
		return OrderOutput{}, toHTTPError(fmt.Errorf("%w: cannot move an order back to %s", domainerr.ErrInvalidTransition, status))
	}

	cmd := lifecycle.Command{Event: ev, Actor: lifecycle.Actor{ID: actorAdminUserID, Role: lifecycle.ActorAdmin}}

	var restocked []int64
	updated, err := transitionOrder(ctx, u.tx, orderID, cmd, func(ctx context.Context, r repo.TxRepos, before, after model.Order) error {
		if ev == lifecycle.EventReject {
			ids, err := restockOrder(ctx, r, after, actorAdminUserID, "order rejected")
			if err != nil {
				return err
			}
			restocked = ids
		}

		// ★監査ログ（UPDATE_ORDER_STATUS）
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   lifecycleJSON(before),
			AfterJSON:    lifecycleJSON(after),
			CreatedAt:    time.Now(),
		})
	})
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

// 管理者による明示的な削除（明細も消える）。
// まだ在庫を押さえている注文（配達完了・キャンセル・却下以外）は在庫を戻してから消す。
func (u *AdminOrderUsecase) Delete(ctx context.Context, actorAdminUserID int64, orderID int64) error {
	if actorAdminUserID <= 0 {
		return unauthorized()
	}
	if orderID <= 0 {
		return badRequest("invalid id")
	}

	var restocked []int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Lifecycle().IsTerminal() {
			ids, err := restockOrder(ctx, r, o, actorAdminUserID, "order deleted")
			if err != nil {
				return err
			}
			restocked = ids
		}
		if err := r.Orders().Delete(ctx, orderID); err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionDeleteOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   lifecycleJSON(o),
			AfterJSON:    "{}",
			CreatedAt:    time.Now(),
		})
	})
	if err != nil {
		return toHTTPError(err)
	}
	u.stock.afterStockChange(ctx, restocked)
	return nil
}

type AuditLogListInput struct {
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         string
	To           string
	Limit        int
	Offset       int
}

func (u *AdminOrderUsecase) ListAuditLogs(ctx context.Context, in AuditLogListInput) ([]model.AuditLog, error) {
	f := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if a := strings.ToUpper(strings.TrimSpace(in.Action)); a != "" {
		action := model.AuditAction(a)
		if !action.Valid() {
			return nil, badRequest("invalid action")
		}
		f.Action = &action
	}
	if rt := strings.ToLower(strings.TrimSpace(in.ResourceType)); rt != "" {
		t := model.AuditResourceType(rt)
		f.ResourceType = &t
	}

	var ok bool
	if f.CreatedFrom, ok = parseDateTimeRFC3339(in.From); !ok && strings.TrimSpace(in.From) != "" {
		return nil, badRequest("invalid from")
	}
	if f.CreatedTo, ok = parseDateTimeRFC3339(in.To); !ok && strings.TrimSpace(in.To) != "" {
		return nil, badRequest("invalid to")
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return logs, nil
}

func lifecycleJSON(o model.Order) string {
	b, err := json.Marshal(map[string]interface{}{
		"status":          o.Status,
		"delivery_status": o.DeliveryStatus,
		"courier_id":      o.CourierID,
		"cancel_reason":   o.CancelReason,
	})
	if err != nil {
		return "{}"
	}
	return string(b)
}

// 期間パラメータ（RFC3339）。空なら nil, false
func parseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
