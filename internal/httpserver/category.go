package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mkravets/storefront/internal/logging"
	"github.com/mkravets/storefront/internal/models"
	"github.com/mkravets/storefront/internal/repo"
	"github.com/mkravets/storefront/internal/service/catalog"
	"github.com/mkravets/storefront/internal/transport"
	"github.com/mkravets/storefront/internal/util"
)

type CategoryHTTP struct {
	Svc *catalog.Service
}

func (h *CategoryHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.list_categories")

	categories, err := h.Svc.ListCategories(ctx)
	if err != nil {
		l.Error("list_categories_error", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	return respond(c, http.StatusOK, categories)
}

func (h *CategoryHTTP) GetCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get_category")

	id := util.ParseIntDefault(c.Param("id"), 0)
	if id <= 0 {
		return fail(c, http.StatusBadRequest, "id is not a positive integer")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	filter := repo.ProductFilter{
		Sort:   c.QueryParam("sort"),
		Offset: offset,
		Limit:  limit,
	}

	view, total, products, err := h.Svc.GetCategory(ctx, uint(id), filter)
	if err != nil {
		l.Warn("get_category_error", "error", err)
		return failDomain(c, err)
	}

	return respond(c, http.StatusOK, map[string]any{
		"category": view,
		"products": products,
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

func (h *CategoryHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create_category")

	var req transport.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_category_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	category := models.Category{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		Featured:    req.Featured,
	}
	if err := h.Svc.CreateCategory(ctx, &category); err != nil {
		l.Warn("create_category_error", "error", err)
		return failDomain(c, err)
	}

	l.Info("create_category_success", "categoryID", category.ID, "slug", category.Slug)
	return respond(c, http.StatusCreated, category)
}

func (h *CategoryHTTP) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.update_category")

	id := util.ParseIntDefault(c.Param("id"), 0)
	if id <= 0 {
		return fail(c, http.StatusBadRequest, "id is not a positive integer")
	}

	var patch catalog.PatchCategory
	if err := c.Bind(&patch); err != nil {
		l.Warn("update_category_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	category, err := h.Svc.UpdateCategory(ctx, uint(id), patch)
	if err != nil {
		l.Warn("update_category_error", "error", err)
		return failDomain(c, err)
	}
	return respond(c, http.StatusOK, category)
}

func (h *CategoryHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete_category")

	id := util.ParseIntDefault(c.Param("id"), 0)
	if id <= 0 {
		return fail(c, http.StatusBadRequest, "id is not a positive integer")
	}

	if err := h.Svc.DeleteCategory(ctx, uint(id)); err != nil {
		l.Warn("delete_category_error", "error", err)
		return failDomain(c, err)
	}

	l.Info("delete_category_success", "categoryID", id)
	return c.NoContent(http.StatusNoContent)
}
