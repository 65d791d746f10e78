package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Endry199/jpstore/apperrors"
	"github.com/Endry199/jpstore/services"
	"github.com/Endry199/jpstore/storefront"
)

type ProductController struct {
	service services.ProductService
	logger  *zap.Logger
}

func NewProductController(service services.ProductService, logger *zap.Logger) *ProductController {
	return &ProductController{service: service, logger: logger}
}

// GetProduct serves /products/:slug and the legacy ?slug= form.
func (pc *ProductController) GetProduct(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		slug = strings.TrimSpace(c.Query("slug"))
	}
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Product slug is required."})
		return
	}

	product, err := pc.service.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		status, _ := apperrors.Status(err)
		if status >= http.StatusInternalServerError {
			pc.logger.Error("get product failed", zap.String("slug", slug), zap.Error(err))
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// loadPage opens the product page at the default currency and then applies
// the requested one through the page's currency subscription.
func (pc *ProductController) loadPage(c *gin.Context, currency string) (*storefront.ProductPage, bool) {
	cell := storefront.NewCurrencyCell("")
	page, err := storefront.LoadProductPage(c.Request.Context(), pc.service, c.Param("slug"), cell)
	if err != nil {
		if errors.Is(err, storefront.ErrNoSlug) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Product slug is required."})
			return nil, false
		}
		respondError(c, err)
		return nil, false
	}
	cell.Set(currency)
	return page, true
}

// GetPackages renders the product page's package labels for ?currency=,
// VES when absent.
func (pc *ProductController) GetPackages(c *gin.Context) {
	page, ok := pc.loadPage(c, c.Query("currency"))
	if !ok {
		return
	}
	defer page.Close()

	var selected string
	if opt, ok := page.Selected(); ok {
		selected = opt.Name
	}
	c.JSON(http.StatusOK, gin.H{
		"title":      page.Title(),
		"banner_url": page.BannerURL(),
		"step_title": page.StepOneTitle(),
		"require_id": page.Product().RequireID,
		"currency":   page.Currency(),
		"selected":   selected,
		"packages":   page.Options(),
	})
}

type cartItemRequest struct {
	Package  int    `json:"package"`
	PlayerID string `json:"playerId"`
	Currency string `json:"currency"`
}

// BuildCartItem returns the cart line for the chosen package, in the shape
// the checkout expects inside cartDetails.
func (pc *ProductController) BuildCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid cart item request."})
		return
	}

	page, ok := pc.loadPage(c, req.Currency)
	if !ok {
		return
	}
	defer page.Close()

	if err := page.Select(req.Package); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown package."})
		return
	}
	item, err := page.BuildCartItem(req.PlayerID, time.Now())
	switch {
	case errors.Is(err, storefront.ErrPlayerIDRequired):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Player ID is required."})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Select a package first."})
		return
	}
	item.Currency = page.Currency()
	c.JSON(http.StatusOK, item)
}
