package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Endry199/jpstore/models"
)

// TransactionRepository persists checkout transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	SetTelegramMessageID(ctx context.Context, id uuid.UUID, messageID int64) error
	// MarkCompleted moves a pending transaction to completed. It reports false
	// when no pending transaction has that transaction id.
	MarkCompleted(ctx context.Context, transactionID string) (bool, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
}

type gormTransactionRepo struct {
	db *gorm.DB
}

func NewGormTransactionRepo(db *gorm.DB) TransactionRepository {
	return &gormTransactionRepo{db: db}
}

func (r *gormTransactionRepo) Create(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *gormTransactionRepo) SetTelegramMessageID(ctx context.Context, id uuid.UUID, messageID int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("telegram_message_id", messageID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormTransactionRepo) MarkCompleted(ctx context.Context, transactionID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id_transaccion = ? AND status = ?", transactionID, models.StatusPending).
		Updates(map[string]interface{}{
			"status":       models.StatusCompleted,
			"completed_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormTransactionRepo) FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).
		Where("id_transaccion = ?", transactionID).
		First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}
