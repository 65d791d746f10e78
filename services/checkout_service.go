package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Endry199/jpstore/apperrors"
	"github.com/Endry199/jpstore/models"
	awspkg "github.com/Endry199/jpstore/pkg/aws"
	"github.com/Endry199/jpstore/repository"
	"github.com/Endry199/jpstore/utils"
)

// ReceiptArchiver keeps a durable copy of an uploaded receipt and returns
// where it was stored.
type ReceiptArchiver interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

type CheckoutService interface {
	// Checkout persists a validated submission and then runs both
	// notifications. Only persistence failures are returned.
	Checkout(ctx context.Context, sub *models.Submission) (*Order, error)
}

type CheckoutDeps struct {
	Repo     repository.TransactionRepository
	Operator Notifier
	Customer Notifier
	// Receipts is optional.
	Receipts ReceiptArchiver
	Metrics  *awspkg.MetricsClient
	Logger   *zap.Logger

	TelegramChatID string
	// NewID defaults to NewTransactionID.
	NewID func(time.Time) string
}

type checkoutService struct {
	CheckoutDeps
}

func NewCheckoutService(deps CheckoutDeps) CheckoutService {
	if deps.NewID == nil {
		deps.NewID = NewTransactionID
	}
	return &checkoutService{CheckoutDeps: deps}
}

func (s *checkoutService) Checkout(ctx context.Context, sub *models.Submission) (*Order, error) {
	order, err := s.persist(ctx, sub)
	if err != nil {
		s.count(awspkg.MetricCheckoutsRejected, "persist")
		return nil, err
	}
	s.count(awspkg.MetricCheckoutsAccepted, order.Transaction.PaymentMethod)

	// Notifications outlive a disconnected client; each transport bounds
	// its own calls with a timeout.
	notifyCtx := context.WithoutCancel(ctx)
	if err := s.Operator.Notify(notifyCtx, order); err != nil {
		s.count(awspkg.MetricNotificationsFailed, "operator")
	}
	if err := s.Customer.Notify(notifyCtx, order); err != nil {
		s.count(awspkg.MetricNotificationsFailed, "customer")
	}
	return order, nil
}

func (s *checkoutService) persist(ctx context.Context, sub *models.Submission) (*Order, error) {
	finalPrice, err := models.ParseAmount(sub.Get(models.FieldFinalPrice))
	if err != nil {
		return nil, apperrors.InvalidField(models.FieldFinalPrice, err)
	}

	rawWhatsapp := sub.Get(models.FieldWhatsappNumber)
	canonical := utils.NormalizeWhatsappNumber(rawWhatsapp)

	method := sub.Get(models.FieldPaymentMethod)
	tx := &models.Transaction{
		TransactionID:  s.NewID(time.Now()),
		FinalPrice:     finalPrice,
		Currency:       sub.Get(models.FieldCurrency),
		PaymentMethod:  method,
		Email:          sub.Get(models.FieldEmail),
		WhatsappNumber: contactNumber(canonical, rawWhatsapp),
		MethodDetails:  models.MethodDetailsFor(method, sub.Fields),
		Status:         models.StatusPending,
		TelegramChatID: s.TelegramChatID,
	}
	tx.SnapshotFirstItem(sub.Cart)
	tx.ReceiptURL = s.receiptLocation(ctx, tx.TransactionID, sub.Attachment)

	log := s.Logger.With(zap.String("transaction_id", tx.TransactionID))
	if err := s.Repo.Create(ctx, tx); err != nil {
		log.Error("persist failed", zap.Error(err))
		return nil, apperrors.Persistence(err)
	}
	log.Info("persist ok",
		zap.String("id", tx.ID.String()),
		zap.String("payment_method", method),
		zap.String("currency", tx.Currency),
		zap.Int("items", len(sub.Cart)),
		zap.Bool("receipt", sub.Attachment != nil),
	)

	return &Order{
		Transaction: tx,
		Cart:        sub.Cart,
		FinalPrice:  strings.TrimSpace(sub.Get(models.FieldFinalPrice)),
		RawWhatsapp: rawWhatsapp,
		Whatsapp:    canonical,
		Attachment:  sub.Attachment,
	}, nil
}

// receiptLocation archives the receipt when an archiver is configured and
// falls back to the temporary path otherwise.
func (s *checkoutService) receiptLocation(ctx context.Context, transactionID string, att *models.Attachment) *string {
	if att == nil {
		return nil
	}
	local := att.Path
	if s.Receipts == nil || !att.Exists() {
		return &local
	}

	f, err := att.Open()
	if err != nil {
		s.Logger.Warn("receipt archive skipped", zap.String("transaction_id", transactionID), zap.Error(err))
		return &local
	}
	defer f.Close()

	name := att.DisplayName()
	key := fmt.Sprintf("receipts/%s/%s", transactionID, filepath.Base(name))
	url, err := s.Receipts.Put(ctx, key, mime.TypeByExtension(filepath.Ext(name)), f, att.Size)
	if err != nil {
		s.Logger.Warn("receipt archive failed", zap.String("transaction_id", transactionID), zap.Error(err))
		return &local
	}
	return &url
}

func (s *checkoutService) count(metric, dimension string) {
	if !s.Metrics.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Metrics.RecordCount(ctx, metric, map[string]string{"Dimension": dimension})
	}()
}

// contactNumber stores the canonical number when there is one, else what the
// customer typed, else nothing.
func contactNumber(canonical *string, raw string) *string {
	if canonical != nil {
		return canonical
	}
	if raw != "" {
		return &raw
	}
	return nil
}
