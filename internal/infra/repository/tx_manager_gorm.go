package repository

import (
	"context"

	"grocery/internal/infra/retry"
	repo "grocery/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	carts      repo.CartRepository
	inventory  repo.InventoryRepository
	products   repo.ProductRepository
	auditLogs  repo.AuditLogRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository         { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *txReposGorm) Carts() repo.CartRepository           { return r.carts }
func (r *txReposGorm) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *txReposGorm) Products() repo.ProductRepository     { return r.products }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository   { return r.auditLogs }

type TxManagerGorm struct {
	db     *gorm.DB
	policy retry.Policy
}

func NewTxManagerGorm(db *gorm.DB, policy retry.Policy) *TxManagerGorm {
	return &TxManagerGorm{db: db, policy: policy}
}

// fn は一時エラーのとき最初からもう1回呼ばれることがある
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return retry.Do(ctx, tm.policy, func(ctx context.Context) error {
		return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			//repoはtxを持ったDBで作り直す
			s := store{db: tx, policy: tm.policy, inTx: true}
			r := &txReposGorm{
				orders:     &OrderGormRepository{store: s},
				orderItems: &OrderItemGormRepository{store: s},
				carts:      &CartGormRepository{store: s},
				inventory:  &InventoryGormRepository{store: s},
				products:   &ProductGormRepository{store: s},
				auditLogs:  &auditLogGormRepository{store: s},
			}
			return fn(r)
		})
	})
}
