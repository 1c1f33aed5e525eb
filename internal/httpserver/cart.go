package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mkravets/storefront/internal/events"
	"github.com/mkravets/storefront/internal/logging"
	authmw "github.com/mkravets/storefront/internal/middleware/auth"
	"github.com/mkravets/storefront/internal/service/cart"
	"github.com/mkravets/storefront/internal/transport"
	"github.com/mkravets/storefront/internal/util"
)

type CartHTTP struct {
	Svc      *cart.Service
	Producer *events.Producer
}

func (h *CartHTTP) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("get_cart_error", "status", 401, "error", err)
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	userCart, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	view, err := h.Svc.View(ctx, userCart)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	return respond(c, http.StatusOK, view)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("add_item_error", "status", 401, "error", err)
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	userCart, err := h.Svc.AddItem(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		l.Warn("add_item_error", "error", err)
		return failDomain(c, err)
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  req.Quantity,
	})

	view, err := h.Svc.View(ctx, userCart)
	if err != nil {
		l.Error("add_item_error", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	l.Info("add_item_success")
	return respond(c, http.StatusCreated, view)
}

func (h *CartHTTP) UpdateLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_line")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("update_line_error", "status", 401, "error", err)
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	lineID := util.ParseIntDefault(c.Param("itemId"), 0)
	if lineID <= 0 {
		return fail(c, http.StatusBadRequest, "invalid item id")
	}

	var req transport.UpdateLineRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_line_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	userCart, err := h.Svc.UpdateLineQuantity(ctx, userID, uint(lineID), req.Quantity)
	if err != nil {
		l.Warn("update_line_error", "error", err)
		return failDomain(c, err)
	}

	h.publish(c, map[string]any{
		"type":     "cart_line_updated",
		"userID":   userID,
		"lineID":   lineID,
		"quantity": req.Quantity,
	})

	view, err := h.Svc.View(ctx, userCart)
	if err != nil {
		l.Error("update_line_error", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	return respond(c, http.StatusOK, view)
}

func (h *CartHTTP) RemoveLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_line")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("remove_line_error", "status", 401, "error", err)
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	lineID := util.ParseIntDefault(c.Param("itemId"), 0)
	if lineID <= 0 {
		return fail(c, http.StatusBadRequest, "invalid item id")
	}

	userCart, err := h.Svc.RemoveLine(ctx, userID, uint(lineID))
	if err != nil {
		l.Warn("remove_line_error", "error", err)
		return failDomain(c, err)
	}

	h.publish(c, map[string]any{
		"type":   "cart_line_removed",
		"userID": userID,
		"lineID": lineID,
	})

	view, err := h.Svc.View(ctx, userCart)
	if err != nil {
		l.Error("remove_line_error", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	return respond(c, http.StatusOK, view)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear_cart")

	userID, err := authmw.UserID(c)
	if err != nil {
		l.Warn("clear_cart_error", "status", 401, "error", err)
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	if err := h.Svc.ClearCart(ctx, userID); err != nil {
		l.Warn("clear_cart_error", "error", err)
		return failDomain(c, err)
	}

	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})

	l.Info("clear_cart_success")
	return respond(c, http.StatusOK, "cart cleared")
}
