package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Payment methods with method-specific details.
const (
	PaymentPagoMovil = "pago-movil"
	PaymentBinance   = "binance"
	PaymentZinli     = "zinli"
)

// Defaults for the first-item snapshot when the cart item leaves them blank.
const (
	DefaultSnapshotGame    = "Carrito Múltiple"
	DefaultSnapshotPackage = "Múltiples Paquetes"
)

// MethodDetails holds the payment-method specific fields. Only the keys that
// apply to the method are set; unknown methods produce an empty set.
type MethodDetails struct {
	Phone     *string `json:"phone,omitempty"`
	Reference *string `json:"reference,omitempty"`
	TxID      *string `json:"txid,omitempty"`
}

// MethodDetailsFor picks the detail fields for method out of the submission.
func MethodDetailsFor(method string, fields map[string]string) MethodDetails {
	get := func(k string) *string { return nonEmpty(fields[k]) }
	switch method {
	case PaymentPagoMovil:
		return MethodDetails{Phone: get(FieldPhone), Reference: get(FieldReference)}
	case PaymentBinance:
		return MethodDetails{TxID: get(FieldTxID)}
	case PaymentZinli:
		return MethodDetails{Reference: get(FieldReference)}
	default:
		return MethodDetails{}
	}
}

// Value implements driver.Valuer for the jsonb column.
func (m MethodDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for the jsonb column.
func (m *MethodDetails) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = MethodDetails{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into MethodDetails", src)
	}
}

// Transaction is the durable record of a checkout submission.
type Transaction struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TransactionID     string          `gorm:"column:id_transaccion;type:varchar(64);uniqueIndex;not null" json:"id_transaccion"`
	FinalPrice        decimal.Decimal `gorm:"column:final_price;type:numeric(14,2);not null" json:"finalPrice"`
	Currency          string          `gorm:"type:varchar(10);not null" json:"currency"`
	PaymentMethod     string          `gorm:"column:payment_method;type:varchar(32);not null" json:"paymentMethod"`
	Email             string          `gorm:"type:varchar(255);not null" json:"email"`
	WhatsappNumber    *string         `gorm:"column:whatsapp_number;type:varchar(32)" json:"whatsappNumber"`
	MethodDetails     MethodDetails   `gorm:"column:method_details;type:jsonb" json:"methodDetails"`
	Status            string          `gorm:"type:varchar(20);not null;index" json:"status"`
	TelegramChatID    string          `gorm:"column:telegram_chat_id;type:varchar(64)" json:"telegram_chat_id"`
	TelegramMessageID *int64          `gorm:"column:telegram_message_id" json:"telegram_message_id"`
	ReceiptURL        *string         `gorm:"column:receipt_url;type:varchar(1024)" json:"receipt_url"`
	GoogleID          *string         `gorm:"column:google_id" json:"google_id"`
	Game              string          `gorm:"type:varchar(255)" json:"game"`
	PackageName       string          `gorm:"column:package_name;type:varchar(255)" json:"packageName"`
	PlayerID          *string         `gorm:"column:player_id" json:"playerId"`
	RobloxEmail       *string         `gorm:"column:roblox_email" json:"roblox_email"`
	RobloxPassword    *string         `gorm:"column:roblox_password" json:"roblox_password"`
	CodmEmail         *string         `gorm:"column:codm_email" json:"codm_email"`
	CodmPassword      *string         `gorm:"column:codm_password" json:"codm_password"`
	CodmVinculation   *string         `gorm:"column:codm_vinculation" json:"codm_vinculation"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string { return "transactions" }

// SnapshotFirstItem copies the first cart item's identifying fields onto the
// record so operators can see them without opening the cart.
func (t *Transaction) SnapshotFirstItem(cart []CartItem) {
	var first CartItem
	if len(cart) > 0 {
		first = cart[0]
	}
	t.Game = orDefault(first.Game, DefaultSnapshotGame)
	t.PackageName = orDefault(first.PackageName, DefaultSnapshotPackage)
	t.GoogleID = nonEmpty(first.GoogleID)
	t.PlayerID = nonEmpty(first.PlayerID)
	t.RobloxEmail = nonEmpty(first.RobloxEmail)
	t.RobloxPassword = nonEmpty(first.RobloxPassword)
	t.CodmEmail = nonEmpty(first.CodmEmail)
	t.CodmPassword = nonEmpty(first.CodmPassword)
	t.CodmVinculation = nonEmpty(first.CodmVinculation)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func nonEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
