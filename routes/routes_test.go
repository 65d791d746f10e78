package routes_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Endry199/jpstore/apperrors"
	"github.com/Endry199/jpstore/controllers"
	"github.com/Endry199/jpstore/middleware"
	"github.com/Endry199/jpstore/models"
	"github.com/Endry199/jpstore/routes"
	"github.com/Endry199/jpstore/sender"
	"github.com/Endry199/jpstore/services"
)

type notReady struct{}

func (notReady) CheckoutReady() error { return errors.New("SMTPHost failed \"required\"") }

type noProducts struct{}

func (noProducts) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return nil, apperrors.NotFound("Product not found.")
}

type noopAck struct{}

func (noopAck) HandleUpdate(ctx context.Context, update *sender.Update) error { return nil }

func newRouter(t *testing.T, limiter *middleware.RateLimiter, trustedProxies ...string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	var svc services.CheckoutService
	r := gin.New()
	require.NoError(t, routes.RegisterRoutes(r, routes.Handlers{
		Checkout:       controllers.NewCheckoutController(svc, notReady{}, 1<<20, logger),
		Products:       controllers.NewProductController(noProducts{}, logger),
		Telegram:       controllers.NewTelegramWebhookController(noopAck{}, "", logger),
		CatalogLimiter: limiter,
		TrustedProxies: trustedProxies,
	}))
	return r
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	return serveFrom(r, method, path, "")
}

// serveFrom sends the request from httptest's default peer 192.0.2.1 with an
// optional X-Forwarded-For header.
func serveFrom(r *gin.Engine, method, path, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes_Mounted(t *testing.T) {
	r := newRouter(t, nil)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodPost, "/checkout").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodPost, routes.LegacyCheckoutPath).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/products/unknown").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, routes.LegacyProductPath+"?slug=unknown").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/telegram/webhook").Code)
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	r := newRouter(t, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/checkout"},
		{http.MethodPatch, routes.LegacyCheckoutPath},
		{http.MethodPost, "/health"},
		{http.MethodDelete, "/products/free-fire"},
	} {
		w := serve(r, tc.method, tc.path)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, tc.path)
		assert.JSONEq(t, `{"message":"Method Not Allowed"}`, w.Body.String(), tc.path)
	}
}

func TestRoutes_CheckoutKeepsItsStatusSet(t *testing.T) {
	r := newRouter(t, middleware.NewRateLimiter(rate.Every(time.Hour), 1, time.Minute))

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodGet, "/checkout").Code)
		assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodPost, "/checkout").Code)
	}
}

func TestRoutes_CatalogRateLimited(t *testing.T) {
	r := newRouter(t, middleware.NewRateLimiter(rate.Every(time.Hour), 1, time.Minute))

	assert.Equal(t, http.StatusNotFound, serveFrom(r, http.MethodGet, "/products/a", "203.0.113.1").Code)
	// an untrusted peer cannot pick its own bucket
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(r, http.MethodGet, "/products/a", "203.0.113.2").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health").Code)
}

func TestRoutes_TrustedProxyForwardsClientIP(t *testing.T) {
	r := newRouter(t, middleware.NewRateLimiter(rate.Every(time.Hour), 1, time.Minute), "192.0.2.1")

	assert.Equal(t, http.StatusNotFound, serveFrom(r, http.MethodGet, "/products/a", "203.0.113.1").Code)
	assert.Equal(t, http.StatusNotFound, serveFrom(r, http.MethodGet, "/products/a", "203.0.113.2").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(r, http.MethodGet, "/products/a", "203.0.113.2").Code)
}

func TestRegisterRoutes_BadProxy(t *testing.T) {
	err := routes.RegisterRoutes(gin.New(), routes.Handlers{TrustedProxies: []string{"not-an-ip"}})
	assert.Error(t, err)
}

func TestRoutes_UnknownPath(t *testing.T) {
	w := serve(newRouter(t, nil), http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
