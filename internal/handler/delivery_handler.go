package handler

import (
	"net/http"

	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 配達員ポータル
type DeliveryHandler struct {
	uc *usecase.DeliveryUsecase
}

func NewDeliveryHandler(uc *usecase.DeliveryUsecase) *DeliveryHandler {
	return &DeliveryHandler{uc: uc}
}

type DeliveryCancelRequest struct {
	Reason string `json:"reason"`
}

func (h *DeliveryHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/delivery", guards.Courier()...)

	g.GET("/orders", h.list)
	g.POST("/orders/:id/claim", h.claim)
	g.POST("/orders/:id/depart", h.depart)
	g.POST("/orders/:id/deliver", h.deliver)
	g.POST("/orders/:id/cancel", h.cancel)
}

func (h *DeliveryHandler) list(c echo.Context) error {
	courierID, ok := getUserIDFromContext(c)
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

	out, err := h.uc.List(c.Request().Context(), courierID, usecase.DeliveryListInput{
		Scope: c.QueryParam("scope"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type deliveryAction func(ctx echo.Context, courierID int64, orderID int64) (usecase.OrderOutput, error)

// claim / depart / deliver は同じ形
func (h *DeliveryHandler) run(c echo.Context, act deliveryAction) error {
	courierID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorizedJSON(c)
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return invalid(c, "id")
	}

	out, err := act(c, courierID, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DeliveryHandler) claim(c echo.Context) error {
	return h.run(c, func(c echo.Context, courierID, orderID int64) (usecase.OrderOutput, error) {
		return h.uc.Claim(c.Request().Context(), courierID, orderID)
	})
}

func (h *DeliveryHandler) depart(c echo.Context) error {
	return h.run(c, func(c echo.Context, courierID, orderID int64) (usecase.OrderOutput, error) {
		return h.uc.Depart(c.Request().Context(), courierID, orderID)
	})
}

func (h *DeliveryHandler) deliver(c echo.Context) error {
	return h.run(c, func(c echo.Context, courierID, orderID int64) (usecase.OrderOutput, error) {
		return h.uc.Deliver(c.Request().Context(), courierID, orderID)
	})
}

func (h *DeliveryHandler) cancel(c echo.Context) error {
	var req DeliveryCancelRequest
	if err := c.Bind(&req); err != nil {
		return invalid(c, "body")
	}
	return h.run(c, func(c echo.Context, courierID, orderID int64) (usecase.OrderOutput, error) {
		return h.uc.Cancel(c.Request().Context(), courierID, orderID, req.Reason)
	})
}
