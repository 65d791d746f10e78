package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Endry199/jpstore/apperrors"
	awspkg "github.com/Endry199/jpstore/pkg/aws"
	"github.com/Endry199/jpstore/repository"
	"github.com/Endry199/jpstore/sender"
)

// AcknowledgementService handles operator button presses coming back from
// the bot webhook.
type AcknowledgementService interface {
	HandleUpdate(ctx context.Context, update *sender.Update) error
}

type acknowledgementService struct {
	repo      repository.TransactionRepository
	messenger sender.OperatorMessenger
	metrics   *awspkg.MetricsClient
	logger    *zap.Logger
}

func NewAcknowledgementService(repo repository.TransactionRepository, messenger sender.OperatorMessenger, metrics *awspkg.MetricsClient, logger *zap.Logger) AcknowledgementService {
	return &acknowledgementService{repo: repo, messenger: messenger, metrics: metrics, logger: logger}
}

// HandleUpdate completes the transaction named by a mark_done callback.
// Updates of any other shape are ignored.
func (s *acknowledgementService) HandleUpdate(ctx context.Context, update *sender.Update) error {
	cq := update.CallbackQuery
	if cq == nil || !strings.HasPrefix(cq.Data, MarkDoneCallbackPrefix) {
		return nil
	}
	transactionID := strings.TrimPrefix(cq.Data, MarkDoneCallbackPrefix)
	log := s.logger.With(
		zap.String("transaction_id", transactionID),
		zap.Int64("operator_id", cq.From.ID),
	)

	if s.repo == nil {
		log.Error("mark completed skipped: store not configured")
		s.answer(ctx, cq.ID, "Could not update the transaction, try again.", log)
		return apperrors.Configuration(errors.New("transaction store not configured"))
	}

	changed, err := s.repo.MarkCompleted(ctx, transactionID)
	if err != nil {
		log.Error("mark completed failed", zap.Error(err))
		s.answer(ctx, cq.ID, "Could not update the transaction, try again.", log)
		return fmt.Errorf("mark %s completed: %w", transactionID, err)
	}

	if !changed {
		s.answer(ctx, cq.ID, s.notPendingReason(ctx, transactionID, log), log)
		return nil
	}

	log.Info("transaction completed")
	if s.metrics.IsEnabled() {
		_ = s.metrics.RecordCount(ctx, awspkg.MetricTransactionsCompleted, nil)
	}
	s.answer(ctx, cq.ID, fmt.Sprintf("✅ %s marked as done.", transactionID), log)
	return nil
}

// notPendingReason tells the operator why a button press changed nothing.
func (s *acknowledgementService) notPendingReason(ctx context.Context, transactionID string, log *zap.Logger) string {
	tx, err := s.repo.FindByTransactionID(ctx, transactionID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Warn("mark completed ignored: unknown transaction")
		return fmt.Sprintf("%s was not found.", transactionID)
	case err != nil:
		log.Error("transaction lookup failed", zap.Error(err))
		return fmt.Sprintf("%s is not pending.", transactionID)
	}
	log.Info("mark completed ignored: not pending", zap.String("status", tx.Status))
	return fmt.Sprintf("%s is already %s.", transactionID, tx.Status)
}

func (s *acknowledgementService) answer(ctx context.Context, callbackID, text string, log *zap.Logger) {
	if s.messenger == nil {
		return
	}
	if err := s.messenger.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		log.Warn("answer callback failed", zap.Error(err))
	}
}
