package models

import "encoding/json"

// Currency codes posted by the storefront.
const (
	CurrencyUSD   = "USD"
	CurrencyVES   = "VES"
	CurrencyUSDM  = "USDM"
	CurrencyJPUSD = "JPUSD"
	CurrencyCOP   = "COP"
)

// Game names with special handling in notifications.
const (
	GameWalletRecharge = "Recarga de Saldo"
	GameRoblox         = "Roblox"
	GameCODM           = "Call of Duty Mobile"
)

// CartItem is one line of the cart posted in cartDetails.
type CartItem struct {
	ID                 json.RawMessage `json:"id,omitempty"`
	Game               string          `json:"game"`
	PackageName        string          `json:"packageName"`
	PlayerID           string          `json:"playerId,omitempty"`
	GoogleID           string          `json:"google_id,omitempty"`
	RobloxEmail        string          `json:"robloxEmail,omitempty"`
	RobloxPassword     string          `json:"robloxPassword,omitempty"`
	CodmEmail          string          `json:"codmEmail,omitempty"`
	CodmPassword       string          `json:"codmPassword,omitempty"`
	CodmVinculation    string          `json:"codmVinculation,omitempty"`
	PriceUSD           Price           `json:"priceUSD"`
	PriceVES           Price           `json:"priceVES"`
	PriceUSDM          Price           `json:"priceUSDM"`
	PriceJPUSD         Price           `json:"priceJPUSD"`
	PriceCOP           Price           `json:"priceCOP"`
	Currency           string          `json:"currency,omitempty"`
	RequiresAssistance bool            `json:"requiresAssistance,omitempty"`
}

// PriceIn selects the item price for the checkout-wide currency. The item's
// own currency field is ignored. COP has no branch here and falls through to
// USD, matching what operators have been verifying against.
func (i CartItem) PriceIn(currency string) Price {
	switch currency {
	case CurrencyUSDM:
		return i.PriceUSDM
	case CurrencyVES:
		return i.PriceVES
	default:
		return i.PriceUSD
	}
}

// IsWalletRecharge reports whether cart is a single balance top-up.
func IsWalletRecharge(cart []CartItem) bool {
	return len(cart) == 1 && cart[0].Game == GameWalletRecharge
}
