package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/handlers"
	mwauth "github.com/markethub/backend/internal/middleware/auth"
	"github.com/markethub/backend/internal/service/token"
)

type Deps struct {
	DB             *gorm.DB
	Tokens         *token.TokenService
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	CartHandler    *handlers.CartHandler
	OrderHandler   *handlers.OrderHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/token", d.AuthHandler.Token)
	auth.POST("/refresh", d.AuthHandler.Refresh)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/search", d.SearchHandler.Search)
	products.GET("/:id", d.ProductHandler.GetProduct)

	adminProducts := api.Group("/products", mwauth.AdminOnly(d.Tokens))
	adminProducts.POST("", d.ProductHandler.CreateProduct)
	adminProducts.PUT("/:id", d.ProductHandler.PutProduct)
	adminProducts.PATCH("/:id", d.ProductHandler.PatchProduct)
	adminProducts.DELETE("/:id", d.ProductHandler.DeleteProduct)

	cart := api.Group("/cart", mwauth.RequireLogin(d.Tokens))
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PUT("/:id", d.CartHandler.UpdateCartItem)
	cart.PATCH("/:id", d.CartHandler.UpdateCartItem)
	cart.DELETE("/:id", d.CartHandler.DeleteCartItem)

	orders := api.Group("/orders", mwauth.RequireLogin(d.Tokens))
	orders.GET("", d.OrderHandler.GetOrders)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("/:id/pay", d.OrderHandler.Pay)

	adminOrders := api.Group("/orders", mwauth.AdminOnly(d.Tokens))
	adminOrders.PUT("/:id", d.OrderHandler.UpdateOrder)
	adminOrders.PATCH("/:id", d.OrderHandler.UpdateOrder)
	adminOrders.DELETE("/:id", d.OrderHandler.DeleteOrder)
}
