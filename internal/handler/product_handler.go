package handler

import (
	"net/http"

	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /products /categories の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)
	e.GET("/categories", h.categories)
}

// 公開一覧と管理一覧で共通のクエリ
func bindProductQuery(c echo.Context) (usecase.ListProductsInput, string, bool) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return usecase.ListProductsInput{}, "page", false
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return usecase.ListProductsInput{}, "limit", false
	}
	categoryID, ok := queryInt64Ptr(c, "category_id")
	if !ok {
		return usecase.ListProductsInput{}, "category_id", false
	}

	in := usecase.ListProductsInput{
		Page:       page,
		Limit:      limit,
		Q:          c.QueryParam("q"),
		CategoryID: categoryID,
		Sort:       c.QueryParam("sort"),
	}

	if v := c.QueryParam("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return in, "min_price", false
		}
		in.MinPrice = &d
	}
	if v := c.QueryParam("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return in, "max_price", false
		}
		in.MaxPrice = &d
	}
	return in, "", true
}

func (h *ProductHandler) list(c echo.Context) error {
	in, bad, ok := bindProductQuery(c)
	if !ok {
		return invalid(c, bad)
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "id")
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) categories(c echo.Context) error {
	list, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
