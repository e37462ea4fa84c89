package handler

import (
	"net/http"

	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type QuoteRequest struct {
	AddressID int64 `json:"address_id"`
}

type OrderCreateRequest struct {
	AddressID     int64  `json:"address_id"`
	PaymentMethod string `json:"payment_method"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	e.POST("/checkout/quote", h.quote, guards.Customer()...)

	g := e.Group("/orders", guards.Customer()...)
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
}

func (h *OrderHandler) quote(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		return invalid(c, "body")
	}

	q, err := h.uc.Quote(c.Request().Context(), userID, usecase.QuoteInput{AddressID: req.AddressID})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return invalid(c, "body")
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	idemKey := c.Request().Header.Get("X-Idempotency-Key")

	out, err := h.uc.PlaceOrder(c.Request().Context(), userID, usecase.PlaceOrderInput{
		AddressID:      req.AddressID,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return invalid(c, "page")
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return invalid(c, "limit")
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "id")
	}

	out, err := h.uc.GetMyOrderDetail(c.Request().Context(), userID, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
