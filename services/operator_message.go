package services

import (
	"fmt"
	"strings"

	"github.com/Endry199/jpstore/models"
	"github.com/Endry199/jpstore/sender"
)

const (
	walletHeader = "💸 New JP Store Wallet Recharge 💸"
	cartHeader   = "✨ New JP Store Recharge (CART) ✨"
	separator    = "------------------------------------------------"

	// MarkDoneCallbackPrefix prefixes the acknowledgement button's callback data.
	MarkDoneCallbackPrefix = "mark_done_"

	notAvailable = "N/A"
)

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// md escapes customer-supplied text for Telegram's legacy Markdown mode.
// Escapes only work outside entities, so dynamic values never go inside
// *bold* spans.
func md(s string) string {
	return markdownEscaper.Replace(s)
}

// code wraps s in a code span. Backslashes are literal inside the span, so a
// backtick can only be replaced.
func code(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

// MethodLabel renders a payment method tag for display: the first hyphen
// becomes a space and the result is upper-cased ("pago-movil" -> "PAGO MOVIL").
func MethodLabel(method string) string {
	return strings.ToUpper(strings.Replace(method, "-", " ", 1))
}

// ComposeOperatorMessage builds the Markdown alert and its inline keyboard.
func ComposeOperatorMessage(order *Order) (string, *sender.InlineKeyboardMarkup) {
	tx := order.Transaction
	var b strings.Builder

	wallet := models.IsWalletRecharge(order.Cart)
	if wallet {
		b.WriteString(walletHeader + "\n\n")
	} else {
		b.WriteString(cartHeader + "\n\n")
	}
	fmt.Fprintf(&b, "*Transaction ID:* %s\n", code(tx.TransactionID))
	b.WriteString("*Status:* `PENDING`\n")

	if wallet && order.Cart[0].GoogleID != "" {
		first := order.Cart[0]
		fmt.Fprintf(&b, "🔗 *Google ID (Wallet):* %s\n", code(first.GoogleID))
		fmt.Fprintf(&b, "💵 *Recharged amount (Package):* %s\n", md(orNA(first.PackageName)))
	}
	b.WriteString(separator + "\n")

	for i, item := range order.Cart {
		fmt.Fprintf(&b, "*📦 Product %d:*\n", i+1)
		fmt.Fprintf(&b, "🎮 *Game/Service:* %s\n", md(orNA(item.Game)))
		fmt.Fprintf(&b, "📦 *Package:* %s\n", md(orNA(item.PackageName)))

		switch {
		case item.Game == models.GameRoblox:
			fmt.Fprintf(&b, "📧 Roblox email: %s\n", md(orNA(item.RobloxEmail)))
			fmt.Fprintf(&b, "🔑 Roblox password: %s\n", md(orNA(item.RobloxPassword)))
		case item.Game == models.GameCODM:
			fmt.Fprintf(&b, "📧 CODM email: %s\n", md(orNA(item.CodmEmail)))
			fmt.Fprintf(&b, "🔑 CODM password: %s\n", md(orNA(item.CodmPassword)))
			fmt.Fprintf(&b, "🔗 CODM linkage: %s\n", md(orNA(item.CodmVinculation)))
		case item.PlayerID != "":
			fmt.Fprintf(&b, "👤 *Player ID:* %s\n", md(item.PlayerID))
		}

		if price := item.PriceIn(tx.Currency); !price.IsZero() {
			fmt.Fprintf(&b, "💲 Price (Est.): %s %s\n", price.Fixed(), md(tx.Currency))
		}
		b.WriteString(separator + "\n")
	}

	b.WriteString("\n*PAYMENT SUMMARY*\n")
	fmt.Fprintf(&b, "💰 *TOTAL TO PAY:* %s %s\n", md(order.FinalPrice), md(tx.Currency))
	fmt.Fprintf(&b, "💳 *Payment method:* %s\n", md(MethodLabel(tx.PaymentMethod)))
	fmt.Fprintf(&b, "📧 Customer email: %s\n", md(tx.Email))

	if order.RawWhatsapp != "" {
		fmt.Fprintf(&b, "📱 Customer WhatsApp: %s\n", md(order.RawWhatsapp))
		if order.Whatsapp != nil && *order.Whatsapp != order.RawWhatsapp {
			fmt.Fprintf(&b, "(Normalized number: %s)\n", *order.Whatsapp)
		}
	}

	details := tx.MethodDetails
	switch tx.PaymentMethod {
	case models.PaymentPagoMovil:
		fmt.Fprintf(&b, "📞 Pago Móvil phone: %s\n", md(orNA(deref(details.Phone))))
		fmt.Fprintf(&b, "📊 Pago Móvil reference: %s\n", md(orNA(deref(details.Reference))))
	case models.PaymentBinance:
		fmt.Fprintf(&b, "🆔 Binance TXID: %s\n", md(orNA(deref(details.TxID))))
	case models.PaymentZinli:
		fmt.Fprintf(&b, "📊 Zinli reference: %s\n", md(orNA(deref(details.Reference))))
	}

	return b.String(), operatorKeyboard(order)
}

func operatorKeyboard(order *Order) *sender.InlineKeyboardMarkup {
	rows := [][]sender.InlineKeyboardButton{
		{{Text: "✅ Mark as done", CallbackData: MarkDoneCallbackPrefix + order.ID()}},
	}
	if order.Whatsapp != nil {
		rows = append(rows, []sender.InlineKeyboardButton{
			{Text: "💬 Contact customer on WhatsApp", URL: "https://wa.me/" + *order.Whatsapp},
		})
	}
	return &sender.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// ReceiptCaption is the caption sent with the payment receipt document.
func ReceiptCaption(order *Order) string {
	tx := order.Transaction
	return fmt.Sprintf("*Payment receipt* for transaction %s\n\n*Method:* %s\n*Amount:* %s %s",
		code(tx.TransactionID), md(MethodLabel(tx.PaymentMethod)), md(order.FinalPrice), md(tx.Currency))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
