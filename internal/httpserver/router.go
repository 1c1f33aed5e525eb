package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/mkravets/storefront/internal/middleware/auth"
)

type Deps struct {
	Products   *ProductHTTP
	Categories *CategoryHTTP
	Cart       *CartHTTP
	Orders     *OrderHTTP
	JWTSecret  []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	mw := authmw.NewMiddleware(d.JWTSecret)

	api := e.Group("/api")

	products := api.Group("/products")
	products.GET("/search", d.Products.SearchProducts)
	products.GET("", d.Products.ListProducts)
	products.GET("/:id", d.Products.GetProduct)

	adminProducts := products.Group("", mw.RequireAdmin)
	adminProducts.POST("", d.Products.CreateProduct)
	adminProducts.PUT("/:id", d.Products.UpdateProduct)
	adminProducts.PATCH("/:id", d.Products.UpdateProduct)
	adminProducts.DELETE("/:id", d.Products.DeleteProduct)

	categories := api.Group("/categories")
	categories.GET("", d.Categories.ListCategories)
	categories.GET("/:id", d.Categories.GetCategory)

	adminCategories := categories.Group("", mw.RequireAdmin)
	adminCategories.POST("", d.Categories.CreateCategory)
	adminCategories.PUT("/:id", d.Categories.UpdateCategory)
	adminCategories.PATCH("/:id", d.Categories.UpdateCategory)
	adminCategories.DELETE("/:id", d.Categories.DeleteCategory)

	cart := api.Group("/cart", mw.RequireAuth)
	cart.GET("", d.Cart.GetCart)
	cart.POST("", d.Cart.AddItem)
	cart.PUT("/:itemId", d.Cart.UpdateLine)
	cart.DELETE("/:itemId", d.Cart.RemoveLine)
	cart.DELETE("", d.Cart.ClearCart)

	orders := api.Group("/orders", mw.RequireAuth)
	orders.POST("", d.Orders.CreateOrder)
	orders.GET("/user", d.Orders.ListUserOrders)
	orders.GET("/:orderId", d.Orders.GetOrder)
	orders.GET("", d.Orders.ListAllOrders, mw.RequireAdmin)
	orders.PUT("/:orderId/status", d.Orders.SetStatus, mw.RequireAdmin)
}
