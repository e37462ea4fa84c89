package handler

import (
	"net/http"

	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	uc *usecase.CartUsecase
}

func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type CartAddRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CartUpdateRequest struct {
	Quantity int64 `json:"quantity"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/cart", guards.Customer()...)

	g.GET("", h.get)
	g.POST("/items", h.add)
	g.PUT("/items/:product_id", h.update)
	g.DELETE("/items/:product_id", h.remove)
	g.DELETE("", h.clear)
}

func (h *CartHandler) get(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	out, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) add(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	var req CartAddRequest
	if err := c.Bind(&req); err != nil {
		return invalid(c, "body")
	}

	out, err := h.uc.AddToCart(c.Request().Context(), userID, usecase.AddCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}
	productID, ok := pathID(c, "product_id")
	if !ok {
		return invalid(c, "product_id")
	}

	var req CartUpdateRequest
	if err := c.Bind(&req); err != nil {
		return invalid(c, "body")
	}

	out, err := h.uc.UpdateCartItem(c.Request().Context(), userID, productID, usecase.UpdateCartItemInput{Quantity: req.Quantity})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) remove(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}
	productID, ok := pathID(c, "product_id")
	if !ok {
		return invalid(c, "product_id")
	}

	out, err := h.uc.RemoveCartItem(c.Request().Context(), userID, productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clear(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	if err := h.uc.ClearCart(c.Request().Context(), userID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
