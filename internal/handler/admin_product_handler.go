package handler

import (
	"net/http"

	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

type ProductUpsertRequest struct {
	CategoryID  *int64           `json:"category_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	ListPrice   *decimal.Decimal `json:"list_price"`
	Unit        string           `json:"unit"`
	ImageURL    string           `json:"image_url"`
	Stock       int64            `json:"stock"`
	IsActive    *bool            `json:"is_active"`
}

func (r ProductUpsertRequest) input() usecase.AdminProductInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return usecase.AdminProductInput{
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		ListPrice:   r.ListPrice,
		Unit:        r.Unit,
		ImageURL:    r.ImageURL,
		Stock:       r.Stock,
		IsActive:    active,
	}
}

type InventoryUpdateRequest struct {
	Stock  *int64 `json:"stock"`
	Reason string `json:"reason"`
}

type CategoryRequest struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	admin := e.Group("/admin", guards.Admin()...)

	admin.GET("/products", h.list)
	admin.POST("/products", h.create)
	admin.PUT("/products/:id", h.update)
	admin.DELETE("/products/:id", h.delete)
	admin.PUT("/products/:id/inventory", h.updateInventory)

	admin.POST("/categories", h.createCategory)
	admin.PUT("/categories/:id", h.updateCategory)
	admin.DELETE("/categories/:id", h.deleteCategory)
}

// 非公開の商品も含めて返す
func (h *AdminProductHandler) list(c echo.Context) error {
	in, bad, ok := bindProductQuery(c)
	if !ok {
		return invalid(c, bad)
	}
	in.IncludeInactive = true

	out, err := h.uc.ListPublicProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) create(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	var req ProductUpsertRequest
	if err := c.Bind(&req); err != nil {
		return invalid(c, "body")
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminProductHandler) update(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "id")
	}

	var req ProductUpsertRequest
	if err := c.Bind(&req); err != nil {
		return invalid(c, "body")
	}

	if err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, req.input()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminProductHandler) delete(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "id")
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "id")
	}

	var req InventoryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return invalid(c, "body")
	}
	if req.Stock == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "stock required"})
	}

	if err := h.uc.AdminUpdateInventory(c.Request().Context(), adminID, id, *req.Stock, req.Reason); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "stock updated"})
}

func (h *AdminProductHandler) createCategory(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return invalid(c, "body")
	}

	cat, err := h.uc.AdminCreateCategory(c.Request().Context(), usecase.CategoryInput{Name: req.Name, SortOrder: req.SortOrder})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *AdminProductHandler) updateCategory(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "id")
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return invalid(c, "body")
	}

	if err := h.uc.AdminUpdateCategory(c.Request().Context(), id, usecase.CategoryInput{Name: req.Name, SortOrder: req.SortOrder}); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminProductHandler) deleteCategory(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "id")
	}

	if err := h.uc.AdminDeleteCategory(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
