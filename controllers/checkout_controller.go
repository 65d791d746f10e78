package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Endry199/jpstore/apperrors"
	"github.com/Endry199/jpstore/middleware"
	"github.com/Endry199/jpstore/services"
)

const checkoutAcceptedMessage = "Payment request received successfully. We will send you a confirmation soon!"

// ReadinessChecker reports whether the checkout credentials are present.
type ReadinessChecker interface {
	CheckoutReady() error
}

type CheckoutController struct {
	service      services.CheckoutService
	readiness    ReadinessChecker
	maxBodyBytes int64
	logger       *zap.Logger
}

func NewCheckoutController(service services.CheckoutService, readiness ReadinessChecker, maxBodyBytes int64, logger *zap.Logger) *CheckoutController {
	return &CheckoutController{
		service:      service,
		readiness:    readiness,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// Checkout handles a storefront checkout submission.
func (cc *CheckoutController) Checkout(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "Method Not Allowed"})
		return
	}
	log := cc.logger.With(zap.String("request_id", c.GetString(middleware.RequestIDKey)))

	if err := cc.readiness.CheckoutReady(); err != nil {
		log.Error("checkout not configured", zap.Error(err))
		respondError(c, apperrors.Configuration(err))
		return
	}

	body, err := cc.readBody(c)
	if err != nil {
		log.Warn("decode failed", zap.Error(err))
		respondError(c, err)
		return
	}

	contentType := c.ContentType()
	sub, err := DecodeSubmission(body, c.GetHeader("Content-Type"), isBase64Body(c))
	if err != nil {
		log.Warn("decode failed", zap.String("content_type", contentType), zap.Error(err))
		respondError(c, err)
		return
	}
	defer func() {
		if err := sub.Attachment.Release(); err != nil {
			log.Error("cleanup failed", zap.String("path", sub.Attachment.Path), zap.Error(err))
		}
	}()
	log.Info("decode ok",
		zap.String("encoding", ClassifyContentType(contentType).String()),
		zap.Int("fields", len(sub.Fields)),
		zap.Bool("receipt", sub.Attachment != nil),
	)

	if err := ValidateSubmission(sub); err != nil {
		log.Warn("validate failed", zap.Error(err))
		respondError(c, err)
		return
	}

	order, err := cc.service.Checkout(c.Request.Context(), sub)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       checkoutAcceptedMessage,
		"transactionId": order.ID(),
	})
}

func (cc *CheckoutController) readBody(c *gin.Context) ([]byte, error) {
	if cc.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cc.maxBodyBytes)
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.Malformed(errors.New("request body too large"))
		}
		return nil, apperrors.Malformed(err)
	}
	return body, nil
}

// isBase64Body reports whether a proxy delivered the body base64-encoded.
func isBase64Body(c *gin.Context) bool {
	for _, h := range []string{"Content-Transfer-Encoding", "X-Body-Encoding"} {
		if strings.EqualFold(strings.TrimSpace(c.GetHeader(h)), "base64") {
			return true
		}
	}
	return false
}

// respondError writes the client-facing message for err.
func respondError(c *gin.Context, err error) {
	status, message := apperrors.Status(err)
	c.JSON(status, gin.H{"message": message})
}
