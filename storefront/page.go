package storefront

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Endry199/jpstore/models"
	"github.com/Endry199/jpstore/services"
)

const (
	defaultBannerURL = "images/default_banner.jpg"
	unknownGame      = "Unknown game"
)

var (
	ErrNoSlug            = errors.New("no game specified")
	ErrNoPackageSelected = errors.New("select a recharge package")
	ErrPlayerIDRequired  = errors.New("a player ID is required for this product")
)

// PackageOption is one package as the product page shows it.
type PackageOption struct {
	Name       string `json:"name"`
	PriceUSD   string `json:"priceUSD"`
	PriceVES   string `json:"priceVES"`
	PriceJPUSD string `json:"priceJPUSD"`
	PriceCOP   string `json:"priceCOP"`
	// Display is the price label for the page's current currency.
	Display string `json:"display"`
}

// CurrencySymbol is the label prefix for a currency code.
func CurrencySymbol(currency string) string {
	switch currency {
	case models.CurrencyVES:
		return "Bs."
	case models.CurrencyCOP:
		return "COP$"
	default:
		return "$"
	}
}

// DisplayPrice renders a package price in currency. JPUSD shows the USDM
// column and COP falls back to USD while no COP price is set.
func DisplayPrice(pkg models.Package, currency string) string {
	var amount decimal.Decimal
	switch currency {
	case models.CurrencyVES:
		amount = pkg.PriceVES
	case models.CurrencyJPUSD:
		amount = pkg.PriceUSDM
	case models.CurrencyCOP:
		amount = pkg.PriceCOP
		if !amount.IsPositive() {
			amount = pkg.PriceUSD
		}
	default:
		amount = pkg.PriceUSD
	}
	return CurrencySymbol(currency) + " " + amount.StringFixed(2)
}

func optionFor(pkg models.Package, currency string) PackageOption {
	return PackageOption{
		Name:       pkg.Name,
		PriceUSD:   pkg.PriceUSD.StringFixed(2),
		PriceVES:   pkg.PriceVES.StringFixed(2),
		PriceJPUSD: pkg.PriceUSDM.StringFixed(2),
		PriceCOP:   pkg.PriceCOP.StringFixed(2),
		Display:    DisplayPrice(pkg, currency),
	}
}

// ProductPage is the state behind one product page: the loaded product, the
// selected package and the package labels for the current currency.
type ProductPage struct {
	mu       sync.Mutex
	product  *models.Product
	options  []PackageOption
	selected int

	currency    *CurrencyCell
	unsubscribe func()
}

// LoadProductPage fetches the product and selects its first package. The page
// follows currency until Close is called.
func LoadProductPage(ctx context.Context, products services.ProductService, slug string, currency *CurrencyCell) (*ProductPage, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrNoSlug
	}
	product, err := products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	p := &ProductPage{product: product, currency: currency, selected: -1}
	p.render(currency.Get())
	if len(p.options) > 0 {
		p.selected = 0
	}
	p.unsubscribe = currency.Subscribe(p.render)
	return p, nil
}

func (p *ProductPage) render(currency string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	options := make([]PackageOption, 0, len(p.product.Packages))
	for _, pkg := range p.product.Packages {
		options = append(options, optionFor(pkg, currency))
	}
	p.options = options
}

// Close stops following currency changes.
func (p *ProductPage) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
}

func (p *ProductPage) Product() *models.Product {
	return p.product
}

func (p *ProductPage) Currency() string {
	return p.currency.Get()
}

func (p *ProductPage) Title() string {
	return p.product.Name + " - JP STORE"
}

func (p *ProductPage) BannerURL() string {
	if p.product.BannerURL == "" {
		return defaultBannerURL
	}
	return p.product.BannerURL
}

// StepOneTitle depends on whether the product asks for a player ID or is
// handled through WhatsApp assistance.
func (p *ProductPage) StepOneTitle() string {
	if p.product.RequireID {
		return "Step 1: Enter your ID"
	}
	return "Step 1: Assistance Required"
}

// Options returns a copy of the package labels.
func (p *ProductPage) Options() []PackageOption {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PackageOption, len(p.options))
	copy(out, p.options)
	return out
}

func (p *ProductPage) Select(i int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.options) {
		return fmt.Errorf("package %d out of range", i)
	}
	p.selected = i
	return nil
}

func (p *ProductPage) Selected() (PackageOption, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected < 0 || p.selected >= len(p.options) {
		return PackageOption{}, false
	}
	return p.options[p.selected], true
}

// BuildCartItem turns the current selection into the line added to the cart.
func (p *ProductPage) BuildCartItem(playerID string, now time.Time) (models.CartItem, error) {
	opt, ok := p.Selected()
	if !ok {
		return models.CartItem{}, ErrNoPackageSelected
	}
	playerID = strings.TrimSpace(playerID)
	if p.product.RequireID && playerID == "" {
		return models.CartItem{}, ErrPlayerIDRequired
	}

	game := p.product.Name
	if game == "" {
		game = unknownGame
	}
	return models.CartItem{
		ID:                 []byte(strconv.FormatInt(now.UnixMilli(), 10)),
		Game:               game,
		PlayerID:           playerID,
		PackageName:        opt.Name,
		PriceUSD:           models.NewPrice(opt.PriceUSD),
		PriceVES:           models.NewPrice(opt.PriceVES),
		PriceJPUSD:         models.NewPrice(opt.PriceJPUSD),
		PriceCOP:           models.NewPrice(opt.PriceCOP),
		RequiresAssistance: !p.product.RequireID,
	}, nil
}
