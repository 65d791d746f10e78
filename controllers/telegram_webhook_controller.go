package controllers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Endry199/jpstore/sender"
	"github.com/Endry199/jpstore/services"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type TelegramWebhookController struct {
	service services.AcknowledgementService
	secret  string
	logger  *zap.Logger
}

// NewTelegramWebhookController checks the secret header on every update when
// secret is non-empty.
func NewTelegramWebhookController(service services.AcknowledgementService, secret string, logger *zap.Logger) *TelegramWebhookController {
	return &TelegramWebhookController{service: service, secret: secret, logger: logger}
}

// HandleUpdate answers 200 to every authenticated update so Telegram does
// not redeliver it.
func (tc *TelegramWebhookController) HandleUpdate(c *gin.Context) {
	if tc.secret != "" {
		got := c.GetHeader(telegramSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(tc.secret)) != 1 {
			tc.logger.Warn("telegram webhook rejected: bad secret", zap.String("client_ip", c.ClientIP()))
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
	}

	var update sender.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		tc.logger.Warn("telegram webhook: invalid update", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := tc.service.HandleUpdate(c.Request.Context(), &update); err != nil {
		tc.logger.Error("telegram webhook: update failed",
			zap.Int64("update_id", update.UpdateID),
			zap.Error(err),
		)
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
