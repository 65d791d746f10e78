package storefront

import (
	"strings"
	"sync"

	"github.com/Endry199/jpstore/models"
)

// DefaultCurrency is shown until the shopper picks one.
const DefaultCurrency = models.CurrencyVES

// CurrencyCell holds the shopper's selected currency and notifies subscribers
// when it changes.
type CurrencyCell struct {
	mu      sync.Mutex
	current string
	nextID  int
	subs    map[int]func(string)
}

func NewCurrencyCell(initial string) *CurrencyCell {
	initial = strings.ToUpper(strings.TrimSpace(initial))
	if initial == "" {
		initial = DefaultCurrency
	}
	return &CurrencyCell{current: initial, subs: map[int]func(string){}}
}

func (c *CurrencyCell) Get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set changes the currency. Subscribers run synchronously, outside the lock,
// and only when the value actually changed.
func (c *CurrencyCell) Set(currency string) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return
	}

	c.mu.Lock()
	if currency == c.current {
		c.mu.Unlock()
		return
	}
	c.current = currency
	subs := make([]func(string), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(currency)
	}
}

// Subscribe registers fn for future changes and returns a func that removes it.
func (c *CurrencyCell) Subscribe(fn func(string)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}
