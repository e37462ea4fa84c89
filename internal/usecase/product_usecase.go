package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"grocery/internal/domain/model"
	"grocery/internal/domain/pricing"
	repo "grocery/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 商品詳細の読み取りキャッシュ（REDIS_URL が無ければ nil）
type ProductCache interface {
	Get(ctx context.Context, id int64) (model.Product, bool, error)
	Set(ctx context.Context, p model.Product) error
	Invalidate(ctx context.Context, id int64) error
}

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	categoryRepo  repo.CategoryRepository
	inventoryRepo repo.InventoryRepository
	auditRepo     repo.AuditLogRepository
	cache         ProductCache
	log           *zap.Logger
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	categoryRepo repo.CategoryRepository,
	inventoryRepo repo.InventoryRepository,
	auditRepo repo.AuditLogRepository,
	cache ProductCache,
	log *zap.Logger,
) *ProductUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductUsecase{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
		cache:         cache,
		log:           log,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
	// 管理画面
	IncludeInactive bool
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, badRequest("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, badRequest("invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, badRequest("q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, badRequest("min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ProductListOutput{}, badRequest("max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, badRequest("min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc", "name":
	default:
		return ProductListOutput{}, badRequest("invalid sort")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:            in.Page,
		Limit:           in.Limit,
		Q:               strings.TrimSpace(in.Q),
		CategoryID:      in.CategoryID,
		MinPrice:        in.MinPrice,
		MaxPrice:        in.MaxPrice,
		Sort:            in.Sort,
		IncludeInactive: in.IncludeInactive,
	})
	if err != nil {
		return ProductListOutput{}, toHTTPError(err)
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

// キャッシュ→DB の順に読む。キャッシュの失敗は DB に落とすだけ。
func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, badRequest("invalid product id")
	}

	if u.cache != nil {
		p, ok, err := u.cache.Get(ctx, productID)
		if err != nil {
			u.log.Warn("product cache get failed", zap.Int64("product_id", productID), zap.Error(err))
		}
		if ok && p.IsActive {
			return p, nil
		}
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, toHTTPError(err)
	}
	if !p.IsActive {
		return model.Product{}, notFound()
	}

	if u.cache != nil {
		if err := u.cache.Set(ctx, p); err != nil {
			u.log.Warn("product cache set failed", zap.Int64("product_id", productID), zap.Error(err))
		}
	}
	return p, nil
}

type AdminProductInput struct {
	CategoryID  *int64
	Name        string
	Description string
	Price       decimal.Decimal
	ListPrice   *decimal.Decimal
	Unit        string
	ImageURL    string
	Stock       int64
	IsActive    bool
}

func (in AdminProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return badRequest("name required")
	}
	if in.Price.IsNegative() {
		return badRequest("price must be >= 0")
	}
	if !pricing.IsMinorUnitSafe(in.Price) {
		return badRequest("price must have at most 2 decimal places")
	}
	if in.ListPrice != nil && !pricing.IsMinorUnitSafe(*in.ListPrice) {
		return badRequest("list_price must have at most 2 decimal places")
	}
	if in.ListPrice != nil && in.ListPrice.LessThan(in.Price) {
		return badRequest("list_price must be >= price")
	}
	if in.Stock < 0 {
		return badRequest("stock must be >= 0")
	}
	return nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, unauthorized()
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}
	if err := u.checkCategory(ctx, in.CategoryID); err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		ListPrice:   in.ListPrice,
		Unit:        strings.TrimSpace(in.Unit),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Stock:       in.Stock,
		IsActive:    in.IsActive,
	})
	if err != nil {
		return model.Product{}, toHTTPError(err)
	}
	return p, nil
}

// 在庫は AdminUpdateInventory で変える
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) error {
	if adminUserID <= 0 {
		return unauthorized()
	}
	if productID <= 0 {
		return badRequest("invalid product id")
	}
	if err := in.validate(); err != nil {
		return err
	}
	if err := u.checkCategory(ctx, in.CategoryID); err != nil {
		return err
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:          productID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		ListPrice:   in.ListPrice,
		Unit:        strings.TrimSpace(in.Unit),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		IsActive:    in.IsActive,
	})
	if err != nil {
		return toHTTPError(err)
	}
	u.invalidate(ctx, productID)
	return nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return unauthorized()
	}
	if productID <= 0 {
		return badRequest("invalid product id")
	}

	if err := u.productRepo.SoftDelete(ctx, productID); err != nil {
		return toHTTPError(err)
	}
	u.invalidate(ctx, productID)
	return nil
}

func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) error {
	if adminUserID <= 0 {
		return unauthorized()
	}
	if productID <= 0 {
		return badRequest("invalid product id")
	}
	if newStock < 0 {
		return badRequest("stock must be >= 0")
	}
	if strings.TrimSpace(reason) == "" {
		return badRequest("reason required")
	}

	//変更前の在庫（before）
	p, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return toHTTPError(err)
	}

	beforeJSON := fmt.Sprintf(`{"stock":%d}`, p.Stock)
	afterJSON := fmt.Sprintf(`{"stock":%d}`, newStock)

	//在庫の現在値を更新
	if err := u.inventoryRepo.SetStock(ctx, productID, newStock); err != nil {
		return toHTTPError(err)
	}

	//履歴を作成（差分）
	adj := model.InventoryAdjustment{
		ProductID:   productID,
		ActorUserID: adminUserID,
		Delta:       newStock - p.Stock,
		Reason:      strings.TrimSpace(reason),
		CreatedAt:   time.Now(),
	}
	if err := u.inventoryRepo.CreateAdjustment(ctx, adj); err != nil {
		return toHTTPError(err)
	}

	//監査ログを作成（在庫更新）
	//「誰が」「何を」「どの対象に」「どう変えたか」を残す
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateStock,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    time.Now(),
	}); err != nil {
		return toHTTPError(err)
	}

	u.invalidate(ctx, productID)
	return nil
}

// ---- categories ----

type CategoryInput struct {
	Name      string
	SortOrder int
}

func (u *ProductUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	list, err := u.categoryRepo.List(ctx)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return list, nil
}

func (u *ProductUsecase) AdminCreateCategory(ctx context.Context, in CategoryInput) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 100 {
		return model.Category{}, badRequest("invalid name")
	}
	c, err := u.categoryRepo.Create(ctx, model.Category{Name: name, SortOrder: in.SortOrder})
	if errors.Is(err, repo.ErrConflict) {
		return model.Category{}, NewHTTPError(http.StatusConflict, "category already exists")
	}
	if err != nil {
		return model.Category{}, toHTTPError(err)
	}
	return c, nil
}

func (u *ProductUsecase) AdminUpdateCategory(ctx context.Context, categoryID int64, in CategoryInput) error {
	if categoryID <= 0 {
		return badRequest("invalid id")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 100 {
		return badRequest("invalid name")
	}
	return toHTTPError(u.categoryRepo.Update(ctx, model.Category{ID: categoryID, Name: name, SortOrder: in.SortOrder}))
}

func (u *ProductUsecase) AdminDeleteCategory(ctx context.Context, categoryID int64) error {
	if categoryID <= 0 {
		return badRequest("invalid id")
	}
	return toHTTPError(u.categoryRepo.Delete(ctx, categoryID))
}

func (u *ProductUsecase) checkCategory(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := u.categoryRepo.FindByID(ctx, *id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return badRequest("unknown category_id")
		}
		return toHTTPError(err)
	}
	return nil
}

func (u *ProductUsecase) invalidate(ctx context.Context, productID int64) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Invalidate(ctx, productID); err != nil {
		u.log.Warn("product cache invalidate failed", zap.Int64("product_id", productID), zap.Error(err))
	}
}
