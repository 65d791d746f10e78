package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Endry199/jpstore/controllers"
	"github.com/Endry199/jpstore/middleware"
)

// Legacy paths the deployed storefront still posts to.
const (
	LegacyCheckoutPath = "/.netlify/functions/process-payment"
	LegacyProductPath  = "/.netlify/functions/get-product-details"
)

type Handlers struct {
	Checkout *controllers.CheckoutController
	Products *controllers.ProductController
	Telegram *controllers.TelegramWebhookController
	// CatalogLimiter is optional. Checkout is never rate limited: its
	// responses are restricted to 200, 400, 405 and 500.
	CatalogLimiter *middleware.RateLimiter
	// TrustedProxies may set X-Forwarded-For. Empty means the peer address
	// is the client IP.
	TrustedProxies []string
}

// RegisterRoutes mounts every endpoint. The checkout paths accept any method
// so the handler can answer 405 itself.
func RegisterRoutes(r *gin.Engine, h Handlers) error {
	if err := r.SetTrustedProxies(h.TrustedProxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "Method Not Allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.Any("/checkout", h.Checkout.Checkout)
	r.Any(LegacyCheckoutPath, h.Checkout.Checkout)

	catalog := r.Group("")
	if h.CatalogLimiter != nil {
		catalog.Use(middleware.RateLimit(h.CatalogLimiter))
	}
	catalog.GET("/products/:slug", h.Products.GetProduct)
	catalog.GET("/products/:slug/packages", h.Products.GetPackages)
	catalog.POST("/products/:slug/cart-item", h.Products.BuildCartItem)
	catalog.GET(LegacyProductPath, h.Products.GetProduct)

	r.POST("/telegram/webhook", h.Telegram.HandleUpdate)
	return nil
}
