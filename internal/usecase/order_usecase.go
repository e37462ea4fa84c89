package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"grocery/internal/domain/lifecycle"
	"grocery/internal/domain/model"
	"grocery/internal/domain/pricing"
	repo "grocery/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 並行した同じキーの注文で一意制約に負けた
var errIdempotencyRace = errors.New("idempotency race")

type OrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	items     repo.OrderItemRepository
	carts     repo.CartRepository
	addresses repo.AddressRepository
	calc      *pricing.Calculator
	stock     *stockCacheInvalidator
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	items repo.OrderItemRepository,
	carts repo.CartRepository,
	addresses repo.AddressRepository,
	calc *pricing.Calculator,
	cache ProductCache,
	log *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		orders:    orders,
		items:     items,
		carts:     carts,
		addresses: addresses,
		calc:      calc,
		stock:     newStockCacheInvalidator(cache, log),
	}
}

type QuoteInput struct {
	AddressID int64
}

type PlaceOrderInput struct {
	AddressID      int64
	PaymentMethod  string
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID int64            `json:"product_id"`
	Name      string           `json:"name"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	ListPrice *decimal.Decimal `json:"list_price,omitempty"`
	Quantity  int64            `json:"quantity"`
	LineTotal decimal.Decimal  `json:"line_total"`
}

type OrderOutput struct {
	ID              int64                 `json:"id"`
	UserID          int64                 `json:"user_id"`
	Status          string                `json:"status"`
	DeliveryStatus  string                `json:"delivery_status,omitempty"`
	CourierID       *int64                `json:"courier_id,omitempty"`
	CancelReason    string                `json:"cancel_reason,omitempty"`
	PaymentMethod   string                `json:"payment_method"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	DeliveryFee     decimal.Decimal       `json:"delivery_fee"`
	Discount        decimal.Decimal       `json:"discount"`
	Total           decimal.Decimal       `json:"total"`
	CreatedAt       time.Time             `json:"created_at"`
	Items           []OrderItemOutput     `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 今のカートと配送先での見積もり（保存はしない）
func (u *OrderUsecase) Quote(ctx context.Context, userID int64, in QuoteInput) (pricing.Quote, error) {
	if userID <= 0 {
		return pricing.Quote{}, unauthorized()
	}

	addr, err := u.ownedAddress(ctx, userID, in.AddressID)
	if err != nil {
		return pricing.Quote{}, err
	}

	cartItems, err := u.carts.ListByUserID(ctx, userID)
	if err != nil {
		return pricing.Quote{}, toHTTPError(err)
	}
	cart := model.Cart{UserID: userID, Items: cartItems}
	if cart.IsEmpty() {
		return pricing.Quote{}, badRequest("cart is empty")
	}

	lines, err := cart.LineItems()
	if err != nil {
		return pricing.Quote{}, toHTTPError(err)
	}

	q, err := u.calc.Quote(lines, addr.Coordinate(), decimal.Zero)
	if err != nil {
		return pricing.Quote{}, toHTTPError(err)
	}
	return q, nil
}

// カートを注文にする。在庫引当・注文作成・カート削除は1トランザクション。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, unauthorized()
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, badRequest("invalid idempotency_key")
	}
	pm := model.PaymentMethod(strings.ToUpper(strings.TrimSpace(in.PaymentMethod)))
	if pm == "" {
		pm = model.PaymentCOD
	}
	if !pm.Valid() {
		return OrderOutput{}, badRequest("invalid payment_method")
	}

	//address_idの存在確認＋所有チェック
	addr, err := u.ownedAddress(ctx, userID, in.AddressID)
	if err != nil {
		return OrderOutput{}, err
	}

	var out OrderOutput
	var decremented []int64

	//注文処理はトランザクション
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		decremented = nil
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return err
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return err
			}
			out = toOrderOutput(existing, items)
			return nil
		}

		cartItems, err := r.Carts().ListByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if (model.Cart{UserID: userID, Items: cartItems}).IsEmpty() {
			return badRequest("cart is empty")
		}

		//在庫を確定時に再チェックして減らす
		lines := make([]pricing.LineItem, 0, len(cartItems))
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) || (err == nil && !p.IsActive) {
				return badRequest(fmt.Sprintf("product %d is no longer available", ci.ProductID))
			}
			if err != nil {
				return err
			}

			li, err := ci.LineItem()
			if err != nil {
				return err
			}

			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.ProductID, ci.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return badRequest(fmt.Sprintf("out of stock: %s", p.Name))
			}
			decremented = append(decremented, ci.ProductID)

			//スナップショット
			lines = append(lines, li)
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           ci.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   ci.UnitPriceSnapshot,
				ListPriceSnapshot:   ci.ListPriceSnapshot,
				Quantity:            ci.Quantity,
			})
		}

		q, err := u.calc.Quote(lines, addr.Coordinate(), decimal.Zero)
		if err != nil {
			return err
		}

		order := model.Order{
			UserID:         userID,
			Shipping:       addr.Shipping(),
			DestLat:        addr.Lat,
			DestLng:        addr.Lng,
			Subtotal:       q.Subtotal,
			DeliveryFee:    q.DeliveryFee,
			Discount:       q.Discount,
			Total:          q.Total,
			PaymentMethod:  pm,
			Status:         lifecycle.StatusPending,
			DeliveryStatus: lifecycle.DeliveryNone,
			IdempotencyKey: key,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if errors.Is(err, repo.ErrConflict) {
			return errIdempotencyRace
		}
		if err != nil {
			return err
		}
		order.ID = orderID
		order.CreatedAt = time.Now()

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return err
		}

		//カートを空にする（再注文防止）
		if err := r.Carts().Clear(ctx, userID); err != nil {
			return err
		}

		out = toOrderOutput(order, orderItems)
		return nil
	})

	// 同時に同じキーで作られた注文を返す
	if errors.Is(err, errIdempotencyRace) {
		existing, found, ferr := u.orders.FindByIdempotencyKey(ctx, userID, key)
		if ferr != nil {
			return OrderOutput{}, toHTTPError(ferr)
		}
		if !found {
			return OrderOutput{}, NewHTTPError(http.StatusConflict, "idempotency conflict")
		}
		items, ferr := u.items.ListByOrderID(ctx, existing.ID)
		if ferr != nil {
			return OrderOutput{}, toHTTPError(ferr)
		}
		return toOrderOutput(existing, items), nil
	}
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}
	u.stock.afterStockChange(ctx, decremented)
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, unauthorized()
	}
	if page < 1 {
		return OrderListOutput{}, badRequest("invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, badRequest("invalid limit")
	}

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, toHTTPError(err)
	}

	outs, err := u.withItems(ctx, orders)
	if err != nil {
		return OrderListOutput{}, err
	}
	return OrderListOutput{Items: outs, Total: total, Page: page, Limit: limit}, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, unauthorized()
	}
	if orderID <= 0 {
		return OrderOutput{}, badRequest("invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}
	if o.UserID != userID {
		//他人の注文は「存在しない扱い」にする
		return OrderOutput{}, notFound()
	}

	items, err := u.items.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}
	return toOrderOutput(o, items), nil
}

func (u *OrderUsecase) ownedAddress(ctx context.Context, userID int64, addressID int64) (model.Address, error) {
	if addressID <= 0 {
		return model.Address{}, badRequest("invalid address_id")
	}
	addr, err := u.addresses.FindByID(ctx, addressID)
	if err != nil {
		return model.Address{}, toHTTPError(err)
	}
	//他人の住所も「存在しない扱い」
	if addr.UserID != userID {
		return model.Address{}, notFound()
	}
	return addr, nil
}

func (u *OrderUsecase) withItems(ctx context.Context, orders []model.Order) ([]OrderOutput, error) {
	return ordersWithItems(ctx, u.items, orders)
}

func ordersWithItems(ctx context.Context, items repo.OrderItemRepository, orders []model.Order) ([]OrderOutput, error) {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		its, err := items.ListByOrderID(ctx, o.ID)
		if err != nil {
			return nil, toHTTPError(err)
		}
		outs = append(outs, toOrderOutput(o, its))
	}
	return outs, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			ListPrice: it.ListPriceSnapshot,
			Quantity:  it.Quantity,
			LineTotal: it.UnitPriceSnapshot.Mul(decimal.NewFromInt(it.Quantity)),
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		DeliveryStatus:  string(o.DeliveryStatus),
		CourierID:       o.CourierID,
		CancelReason:    o.CancelReason,
		PaymentMethod:   string(o.PaymentMethod),
		ShippingAddress: o.Shipping,
		Subtotal:        o.Subtotal,
		DeliveryFee:     o.DeliveryFee,
		Discount:        o.Discount,
		Total:           o.Total,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
