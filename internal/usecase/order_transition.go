package usecase

import (
	"context"
	"fmt"

	"grocery/internal/domain/domainerr"
	"grocery/internal/domain/lifecycle"
	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
)

// 条件付き更新に負けたときの読み直し回数
const maxTransitionAttempts = 3

// Tx 内で、遷移が決まった直後に呼ばれる
type transitionHook func(ctx context.Context, r repo.TxRepos, before model.Order, after model.Order) error

// 注文を読み、cmd を適用し、読んだときの状態のままなら書き戻す。
// 他の更新に負けたら読み直して判定し直す（先に引き受けた配達員がいれば AlreadyAssigned）。
func transitionOrder(ctx context.Context, tx repo.TransactionManager, orderID int64, cmd lifecycle.Command, hook transitionHook) (model.Order, error) {
	var updated model.Order

	err := tx.WithinTx(ctx, func(r repo.TxRepos) error {
		for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
			o, err := r.Orders().FindByID(ctx, orderID)
			if err != nil {
				return err
			}

			from := o.Lifecycle()
			to, err := lifecycle.Apply(from, cmd)
			if err != nil {
				return err
			}

			swapped, err := r.Orders().CompareAndSwapLifecycle(ctx, orderID, from, to)
			if err != nil {
				return err
			}
			if !swapped {
				continue
			}

			updated = o.WithLifecycle(to)
			if hook != nil {
				if err := hook(ctx, r, o, updated); err != nil {
					return err
				}
			}
			return nil
		}
		return fmt.Errorf("%w: order %d changed concurrently", domainerr.ErrInvalidTransition, orderID)
	})
	if err != nil {
		return model.Order{}, err
	}
	return updated, nil
}

// 注文明細の数量を在庫に戻し、調整履歴を残す。戻した商品IDを返す。
func restockOrder(ctx context.Context, r repo.TxRepos, o model.Order, actorID int64, reason string) ([]int64, error) {
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	orderID := o.ID
	if rs := []rune(reason); len(rs) > 255 {
		reason = string(rs[:255])
	}
	productIDs := make([]int64, 0, len(items))
	for _, it := range items {
		if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
			return nil, err
		}
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   it.ProductID,
			ActorUserID: actorID,
			OrderID:     &orderID,
			Delta:       it.Quantity,
			Reason:      reason,
		}); err != nil {
			return nil, err
		}
		productIDs = append(productIDs, it.ProductID)
	}
	return productIDs, nil
}
