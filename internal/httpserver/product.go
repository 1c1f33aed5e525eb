package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mkravets/storefront/internal/events"
	"github.com/mkravets/storefront/internal/logging"
	"github.com/mkravets/storefront/internal/models"
	"github.com/mkravets/storefront/internal/repo"
	"github.com/mkravets/storefront/internal/search"
	"github.com/mkravets/storefront/internal/service/catalog"
	"github.com/mkravets/storefront/internal/transport"
	"github.com/mkravets/storefront/internal/util"
)

type ProductHTTP struct {
	Svc      *catalog.Service
	Producer *events.Producer
	Index    *search.Index
}

func (h *ProductHTTP) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *ProductHTTP) reindex(c echo.Context, product *models.Product) {
	if h.Index == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Index.IndexProduct(ctx, product); err != nil {
		logging.FromContext(c.Request().Context()).Error("es index error", "error", err, "productID", product.ID)
	}
}

func (h *ProductHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id := util.ParseIntDefault(c.Param("id"), 0)
	if id <= 0 {
		return fail(c, http.StatusBadRequest, "id is not a positive integer")
	}

	product, err := h.Svc.GetProduct(ctx, uint(id))
	if err != nil {
		l.Warn("get_product_error", "error", err)
		return failDomain(c, err)
	}
	return respond(c, http.StatusOK, product)
}

func (h *ProductHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	filter := repo.ProductFilter{
		Sort:         c.QueryParam("sort"),
		FeaturedOnly: c.QueryParam("featured") == "true",
		Offset:       offset,
		Limit:        limit,
	}
	if cid := util.ParseIntDefault(c.QueryParam("category_id"), 0); cid > 0 {
		u := uint(cid)
		filter.CategoryID = &u
	}

	total, items, err := h.Svc.ListProducts(ctx, filter)
	if err != nil {
		l.Error("list_products_error", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	return respond(c, http.StatusOK, map[string]any{
		"items": items,
		"meta": transport.PageMeta{
			Page:       page,
			Size:       limit,
			Total:      total,
			TotalPages: (total + int64(limit) - 1) / int64(limit),
			HasPrev:    page > 1,
			HasNext:    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_product_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	product := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Image:       req.Image,
		Featured:    req.Featured,
		CategoryID:  req.CategoryID,
	}
	if err := h.Svc.CreateProduct(ctx, &product); err != nil {
		l.Warn("create_product_error", "error", err)
		return failDomain(c, err)
	}

	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": product.ID,
		"name":      product.Name,
	})
	h.reindex(c, &product)

	l.Info("create_product_success", "productID", product.ID)
	return respond(c, http.StatusCreated, product)
}

func (h *ProductHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update_product")

	id := util.ParseIntDefault(c.Param("id"), 0)
	if id <= 0 {
		return fail(c, http.StatusBadRequest, "id is not a positive integer")
	}

	var patch catalog.PatchProduct
	if err := c.Bind(&patch); err != nil {
		l.Warn("update_product_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	product, err := h.Svc.UpdateProduct(ctx, uint(id), patch)
	if err != nil {
		l.Warn("update_product_error", "error", err)
		return failDomain(c, err)
	}

	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": product.ID,
		"name":      product.Name,
	})
	h.reindex(c, product)

	return respond(c, http.StatusOK, product)
}

func (h *ProductHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id := util.ParseIntDefault(c.Param("id"), 0)
	if id <= 0 {
		return fail(c, http.StatusBadRequest, "id is not a positive integer")
	}

	if err := h.Svc.DeleteProduct(ctx, uint(id)); err != nil {
		l.Warn("delete_product_error", "error", err)
		return failDomain(c, err)
	}

	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	if h.Index != nil {
		idxCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := h.Index.DeleteProduct(idxCtx, uint(id)); err != nil {
			l.Error("es delete error", "error", err, "productID", id)
		}
	}

	l.Info("delete_product_success", "productID", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search_products")

	if h.Index == nil {
		return fail(c, http.StatusServiceUnavailable, "search is not configured")
	}

	q := c.QueryParam("q")
	if q == "" {
		return fail(c, http.StatusBadRequest, "query required")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, products, err := h.Index.Search(ctx, q, from, limit)
	if err != nil {
		l.Error("search_products_error", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	return respond(c, http.StatusOK, map[string]any{
		"total": total,
		"items": products,
	})
}
