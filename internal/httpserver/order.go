package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mkravets/storefront/internal/domain"
	"github.com/mkravets/storefront/internal/events"
	"github.com/mkravets/storefront/internal/logging"
	authmw "github.com/mkravets/storefront/internal/middleware/auth"
	"github.com/mkravets/storefront/internal/service/order"
	"github.com/mkravets/storefront/internal/transport"
)

type OrderHTTP struct {
	Svc      *order.Service
	Producer *events.Producer
}

func (h *OrderHTTP) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("create_order_error", "status", 401, "error", err)
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	created, err := h.Svc.CreateOrder(ctx, userID, order.CreateOrderRequest{
		Address:      req.ShippingAddress,
		CardToken:    req.CardToken,
		CardLast4:    req.CardLast4,
		CardType:     req.CardType,
		Amount:       req.Amount,
		Currency:     req.Currency,
		CustomerNote: req.CustomerNote,
	})
	if err != nil {
		if errors.Is(err, domain.ErrReconciliationRequired) {
			l.Error("create_order_reconciliation_required", "status", 500, "error", err)
		} else {
			l.Warn("create_order_error", "error", err)
		}
		return failDomain(c, err)
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": created.OrderID,
		"total":   created.TotalAmount,
	})

	l.Info("create_order_success", "orderID", created.OrderID)
	return respond(c, http.StatusCreated, created)
}

func (h *OrderHTTP) ListUserOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_user_orders")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("list_orders_error", "status", 401, "error", err)
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	orders, err := h.Svc.ListOrders(ctx, userID)
	if err != nil {
		l.Error("list_orders_error", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	return respond(c, http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("get_order_error", "status", 401, "error", err)
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	orderID := c.Param("orderId")
	found, err := h.Svc.GetOrder(ctx, userID, orderID)
	if err != nil {
		l.Warn("get_order_error", "error", err)
		return failDomain(c, err)
	}
	return respond(c, http.StatusOK, found)
}

func (h *OrderHTTP) ListAllOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_all_orders")

	orders, err := h.Svc.ListAllOrders(ctx)
	if err != nil {
		l.Error("list_all_orders_error", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	return respond(c, http.StatusOK, orders)
}

func (h *OrderHTTP) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.set_status")

	var req transport.SetStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_status_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	updated, err := h.Svc.SetStatus(ctx, c.Param("orderId"), req.Status)
	if err != nil {
		l.Warn("set_status_error", "error", err)
		return failDomain(c, err)
	}

	h.publish(c, map[string]any{
		"type":    "order_status_changed",
		"userID":  updated.UserID,
		"orderID": updated.OrderID,
		"status":  updated.Status,
	})

	l.Info("set_status_success", "orderID", updated.OrderID, "newStatus", updated.Status)
	return respond(c, http.StatusOK, updated)
}
