package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Endry199/jpstore/apperrors"
	"github.com/Endry199/jpstore/repository"
	"github.com/Endry199/jpstore/sender"
)

type operatorNotifier struct {
	messenger sender.OperatorMessenger
	repo      repository.TransactionRepository
	chatID    string
	logger    *zap.Logger
}

// NewOperatorNotifier alerts the operator chat about new orders. A nil
// messenger makes every notification fail with a NotificationError.
func NewOperatorNotifier(messenger sender.OperatorMessenger, repo repository.TransactionRepository, chatID string, logger *zap.Logger) Notifier {
	return &operatorNotifier{
		messenger: messenger,
		repo:      repo,
		chatID:    chatID,
		logger:    logger,
	}
}

// Notify sends the alert, then the receipt if one is still on disk, then
// stores the alert's message id on the transaction. Only a failed alert is
// returned; receipt and patch failures are logged.
func (n *operatorNotifier) Notify(ctx context.Context, order *Order) error {
	log := n.logger.With(zap.String("transaction_id", order.ID()))

	if n.messenger == nil {
		err := apperrors.Notification("operator", errors.New("messenger not configured"))
		log.Error("notify_operator skipped", zap.Error(err))
		return err
	}

	text, markup := ComposeOperatorMessage(order)
	messageID, err := n.messenger.SendMessage(ctx, n.chatID, text, markup)
	if err != nil {
		log.Error("notify_operator failed", zap.Error(err))
		return apperrors.Notification("operator", err)
	}
	log.Info("notify_operator sent", zap.Int64("message_id", messageID))

	n.sendReceipt(ctx, order, log)

	if err := n.repo.SetTelegramMessageID(ctx, order.Transaction.ID, messageID); err != nil {
		log.Error("notify_operator patch failed", zap.Error(apperrors.Patch(err)))
	} else {
		order.Transaction.TelegramMessageID = &messageID
	}
	return nil
}

func (n *operatorNotifier) sendReceipt(ctx context.Context, order *Order, log *zap.Logger) {
	att := order.Attachment
	if att == nil {
		return
	}
	if !att.Exists() {
		log.Warn("receipt file missing, skipping document", zap.String("path", att.Path))
		return
	}

	f, err := att.Open()
	if err != nil {
		log.Error("receipt open failed", zap.Error(err))
		return
	}
	defer f.Close()

	if err := n.messenger.SendDocument(ctx, n.chatID, f, att.DisplayName(), ReceiptCaption(order)); err != nil {
		log.Error("receipt document failed", zap.Error(err))
		return
	}
	log.Info("receipt document sent", zap.Int64("size", att.Size))
}
