package services

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Endry199/jpstore/apperrors"
	"github.com/Endry199/jpstore/models"
	"github.com/Endry199/jpstore/sender"
)

//go:embed templates/invoice.html
var templateFS embed.FS

const invoiceDateLayout = "02/01/2006 15:04"

type detailLine struct {
	Label string
	Value string
}

type invoiceItem struct {
	Index   int
	Game    string
	Package string
	Price   string
	Details []detailLine
}

type invoiceData struct {
	TransactionID string
	IssuedAt      string
	Email         string
	Currency      string
	MethodLabel   string
	MethodDetails []detailLine
	Items         []invoiceItem
	Subtotal      string
	Total         string
	ContactURL    string
	Year          int
}

type CustomerNotifierConfig struct {
	From          string
	StoreWhatsapp string
	Location      *time.Location
}

type customerNotifier struct {
	mailer sender.EmailSender
	cfg    CustomerNotifierConfig
	tmpl   *template.Template
	now    func() time.Time
	logger *zap.Logger
}

// NewCustomerNotifier parses the invoice template. mailer may be nil when the
// mail transport could not be built; invoices are then skipped with a log line.
func NewCustomerNotifier(mailer sender.EmailSender, cfg CustomerNotifierConfig, logger *zap.Logger) (Notifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/invoice.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice template: %w", err)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &customerNotifier{
		mailer: mailer,
		cfg:    cfg,
		tmpl:   tmpl,
		now:    time.Now,
		logger: logger,
	}, nil
}

func InvoiceSubject(transactionID string) string {
	return fmt.Sprintf("🎉 VIRTUAL INVOICE #%s - JP STORE 🎉", transactionID)
}

func (n *customerNotifier) Notify(ctx context.Context, order *Order) error {
	log := n.logger.With(zap.String("transaction_id", order.ID()))

	to := order.Transaction.Email
	if to == "" {
		log.Info("notify_customer skipped: no email")
		return nil
	}
	if n.mailer == nil {
		err := apperrors.Notification("customer", errors.New("mail transport not configured"))
		log.Error("notify_customer skipped", zap.Error(err))
		return err
	}

	body, err := n.render(order)
	if err != nil {
		log.Error("notify_customer render failed", zap.Error(err))
		return apperrors.Notification("customer", err)
	}

	res, err := n.mailer.SendEmail(ctx, n.cfg.From, to, InvoiceSubject(order.ID()), body)
	if err != nil {
		log.Error("notify_customer failed", zap.Error(err))
		return apperrors.Notification("customer", err)
	}
	log.Info("notify_customer sent", zap.String("message_id", res.MessageID))
	return nil
}

func (n *customerNotifier) render(order *Order) (string, error) {
	var buf bytes.Buffer
	if err := n.tmpl.Execute(&buf, n.invoiceData(order)); err != nil {
		return "", fmt.Errorf("template render failed: %w", err)
	}
	return buf.String(), nil
}

func (n *customerNotifier) invoiceData(order *Order) invoiceData {
	tx := order.Transaction
	now := n.now().In(n.cfg.Location)

	subtotal := decimal.Zero
	items := make([]invoiceItem, 0, len(order.Cart))
	for i, item := range order.Cart {
		price := item.PriceIn(tx.Currency)
		subtotal = subtotal.Add(price.OrZero())
		items = append(items, invoiceItem{
			Index:   i + 1,
			Game:    orDefault(item.Game, "Service"),
			Package: orDefault(item.PackageName, "Unknown package"),
			Price:   price.Fixed(),
			Details: itemDetails(item),
		})
	}

	return invoiceData{
		TransactionID: tx.TransactionID,
		IssuedAt:      now.Format(invoiceDateLayout),
		Email:         tx.Email,
		Currency:      tx.Currency,
		MethodLabel:   MethodLabel(tx.PaymentMethod),
		MethodDetails: methodDetailLines(tx.PaymentMethod, tx.MethodDetails),
		Items:         items,
		Subtotal:      subtotal.StringFixed(2),
		Total:         tx.FinalPrice.StringFixed(2),
		ContactURL:    "https://wa.me/" + n.cfg.StoreWhatsapp,
		Year:          now.Year(),
	}
}

func itemDetails(item models.CartItem) []detailLine {
	switch {
	case item.Game == models.GameRoblox:
		return []detailLine{
			{"Email", orNA(item.RobloxEmail)},
			{"Password", orNA(item.RobloxPassword)},
		}
	case item.Game == models.GameCODM:
		return []detailLine{
			{"Email", orNA(item.CodmEmail)},
			{"Password", orNA(item.CodmPassword)},
			{"Linkage", orNA(item.CodmVinculation)},
		}
	case item.Game == models.GameWalletRecharge && item.GoogleID != "":
		return []detailLine{
			{"Google ID", item.GoogleID},
			{"Package", orDefault(item.PackageName, "Unknown package")},
		}
	case item.PlayerID != "":
		return []detailLine{{"Player ID", item.PlayerID}}
	}
	return nil
}

func methodDetailLines(method string, d models.MethodDetails) []detailLine {
	switch method {
	case models.PaymentPagoMovil:
		return []detailLine{
			{"Phone", orNA(deref(d.Phone))},
			{"Reference", orNA(deref(d.Reference))},
		}
	case models.PaymentBinance:
		return []detailLine{{"TXID", orNA(deref(d.TxID))}}
	case models.PaymentZinli:
		return []detailLine{{"Reference", orNA(deref(d.Reference))}}
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
