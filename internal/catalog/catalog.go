package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/noah-isme/supermarket-receipt/internal/common"
)

// ErrProductNotFound is returned when a price is requested for a product the
// catalog does not know.
var ErrProductNotFound = fmt.Errorf("product not found: %w", common.ErrQuantityValidation)

// ErrInvalidPrice is returned when a negative unit price is registered.
var ErrInvalidPrice = errors.New("catalog: unit price must not be negative")

// Catalog resolves unit prices in cents.
type Catalog interface {
	Contains(p Product) bool
	UnitPriceCents(p Product) (int64, error)
}

// Memory is an in-process catalog. It is safe for concurrent use.
type Memory struct {
	prices map[Product]int64
	mu     *sync.RWMutex
}

var _ Catalog = (*Memory)(nil)

// NewMemory returns an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{
		prices: make(map[Product]int64),
		mu:     &sync.RWMutex{},
	}
}

// AddProduct registers or re-prices a product.
func (m *Memory) AddProduct(p Product, priceCents int64) error {
	if priceCents < 0 {
		return fmt.Errorf("%w: %s costs %d", ErrInvalidPrice, p.Name, priceCents)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[p] = priceCents
	return nil
}

// Contains reports whether the product is known.
func (m *Memory) Contains(p Product) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.prices[p]
	return ok
}

// UnitPriceCents returns the unit price of p or ErrProductNotFound.
func (m *Memory) UnitPriceCents(p Product) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	price, ok := m.prices[p]
	if !ok {
		return 0, common.NewAppError(ErrProductNotFound, "product_not_found", p.Name, p.Unit.String(),
			"catalog: %s with unit %s is not in the catalog", p.Name, p.Unit)
	}
	return price, nil
}

// Len returns the number of products.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.prices)
}

// Products lists the known products ordered by name, then unit.
func (m *Memory) Products() []Product {
	m.mu.RLock()
	out := make([]Product, 0, len(m.prices))
	for p := range m.prices {
		out = append(out, p)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Unit < out[j].Unit
	})
	return out
}
