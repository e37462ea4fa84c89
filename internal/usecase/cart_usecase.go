package usecase

import (
	"context"
	"errors"

	"grocery/internal/domain/model"
	"grocery/internal/domain/pricing"
	repo "grocery/internal/repository"

	"github.com/shopspring/decimal"
)

// 1数量あたりの上限
const maxCartQuantity = 99

// CartUsecase は /cart の業務ロジックです。
// 同時更新は行単位の後勝ち。
type CartUsecase struct {
	cartRepo    repo.CartRepository
	productRepo repo.ProductRepository
	calc        *pricing.Calculator
}

func NewCartUsecase(cartRepo repo.CartRepository, productRepo repo.ProductRepository, calc *pricing.Calculator) *CartUsecase {
	return &CartUsecase{cartRepo: cartRepo, productRepo: productRepo, calc: calc}
}

// price は unit_price_snapshot（追加時点の価格）
type CartItemResponse struct {
	ProductID int64            `json:"product_id"`
	Name      string           `json:"name"`
	Unit      string           `json:"unit"`
	ImageURL  string           `json:"image_url"`
	Price     decimal.Decimal  `json:"price"`
	ListPrice *decimal.Decimal `json:"list_price,omitempty"`
	Quantity  int64            `json:"quantity"`
	LineTotal decimal.Decimal  `json:"line_total"`
}

type CartResponse struct {
	Items    []CartItemResponse `json:"items"`
	Subtotal decimal.Decimal    `json:"subtotal"`
	Savings  decimal.Decimal    `json:"savings"`
	Count    int64              `json:"count"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, unauthorized()
	}
	return u.buildCartResponse(ctx, userID)
}

// カートに追加（同一商品は数量加算、価格は今の価格で取り直す）
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, unauthorized()
	}
	if in.ProductID <= 0 {
		return CartResponse{}, badRequest("invalid product_id")
	}
	if in.Quantity < 1 || in.Quantity > maxCartQuantity {
		return CartResponse{}, badRequest("invalid quantity")
	}

	p, err := u.activeProduct(ctx, in.ProductID)
	if err != nil {
		return CartResponse{}, err
	}

	var existingQty int64
	item, err := u.cartRepo.FindItem(ctx, userID, in.ProductID)
	switch {
	case err == nil:
		existingQty = item.Quantity
	case !errors.Is(err, repo.ErrNotFound):
		return CartResponse{}, toHTTPError(err)
	}

	newQty := existingQty + in.Quantity
	if newQty > maxCartQuantity {
		return CartResponse{}, badRequest("invalid quantity")
	}
	if newQty > p.Stock {
		return CartResponse{}, badRequest("stock exceeded")
	}

	if err := u.cartRepo.Upsert(ctx, snapshotItem(userID, p, newQty)); err != nil {
		return CartResponse{}, toHTTPError(err)
	}
	return u.buildCartResponse(ctx, userID)
}

// 数量変更（在庫チェック）
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, productID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, unauthorized()
	}
	if productID <= 0 {
		return CartResponse{}, badRequest("invalid product_id")
	}
	if in.Quantity < 1 || in.Quantity > maxCartQuantity {
		return CartResponse{}, badRequest("invalid quantity")
	}

	if _, err := u.cartRepo.FindItem(ctx, userID, productID); err != nil {
		return CartResponse{}, toHTTPError(err)
	}

	p, err := u.activeProduct(ctx, productID)
	if err != nil {
		return CartResponse{}, err
	}
	if in.Quantity > p.Stock {
		return CartResponse{}, badRequest("stock exceeded")
	}

	if err := u.cartRepo.UpdateQuantity(ctx, userID, productID, in.Quantity); err != nil {
		return CartResponse{}, toHTTPError(err)
	}
	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) RemoveCartItem(ctx context.Context, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, unauthorized()
	}
	if productID <= 0 {
		return CartResponse{}, badRequest("invalid product_id")
	}
	if err := u.cartRepo.Remove(ctx, userID, productID); err != nil {
		return CartResponse{}, toHTTPError(err)
	}
	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return unauthorized()
	}
	return toHTTPError(u.cartRepo.Clear(ctx, userID))
}

func (u *CartUsecase) activeProduct(ctx context.Context, productID int64) (model.Product, error) {
	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, notFound()
	}
	if err != nil {
		return model.Product{}, toHTTPError(err)
	}
	//非公開は存在しない扱い
	if !p.IsActive {
		return model.Product{}, notFound()
	}
	return p, nil
}

// 小計・割引額は共通の計算機で出す
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	items, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, toHTTPError(err)
	}

	cart := model.Cart{UserID: userID, Items: items}
	lines, err := cart.LineItems()
	if err != nil {
		return CartResponse{}, toHTTPError(err)
	}

	res := CartResponse{
		Items:    make([]CartItemResponse, 0, len(items)),
		Subtotal: u.calc.Subtotal(lines),
		Savings:  u.calc.Savings(lines),
	}
	for i, it := range items {
		row := CartItemResponse{
			ProductID: it.ProductID,
			Price:     it.UnitPriceSnapshot,
			ListPrice: it.ListPriceSnapshot,
			Quantity:  it.Quantity,
			LineTotal: lines[i].Amount(),
		}
		// 表示用（削除済み商品でも行は出す）
		if p, err := u.productRepo.FindByID(ctx, it.ProductID); err == nil {
			row.Name = p.Name
			row.Unit = p.Unit
			row.ImageURL = p.ImageURL
		}
		res.Items = append(res.Items, row)
		res.Count += it.Quantity
	}
	return res, nil
}

func snapshotItem(userID int64, p model.Product, qty int64) model.CartItem {
	item := model.CartItem{
		UserID:            userID,
		ProductID:         p.ID,
		Quantity:          qty,
		UnitPriceSnapshot: p.Price,
	}
	if p.ListPrice != nil {
		lp := *p.ListPrice
		item.ListPriceSnapshot = &lp
	}
	return item
}
