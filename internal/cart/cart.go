package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/supermarket-receipt/internal/catalog"
	"github.com/noah-isme/supermarket-receipt/internal/common"
	"github.com/noah-isme/supermarket-receipt/internal/pricing"
)

// Item is the accumulated quantity of one product.
type Item struct {
	Product  catalog.Product
	Quantity pricing.Quantity
}

// Cart accumulates purchased quantities per product, remembering the order in
// which products were first added.
type Cart struct {
	catalog catalog.Catalog

	mu         sync.Mutex
	order      []catalog.Product
	quantities map[catalog.Product]pricing.Quantity
}

// New returns an empty cart validating products against cat. A nil catalog
// knows no products, so every addition is rejected.
func New(cat catalog.Catalog) *Cart {
	if cat == nil {
		cat = catalog.NewMemory()
	}
	return &Cart{
		catalog:    cat,
		quantities: make(map[catalog.Product]pricing.Quantity),
	}
}

// AddItem adds a single piece of p.
func (c *Cart) AddItem(p catalog.Product) error {
	return c.AddItemQuantity(p, decimal.NewFromInt(1))
}

// AddItemQuantity adds quantity of p to the cart. Unknown products, negative
// quantities and fractional quantities of EACH products are rejected and leave
// the cart untouched.
func (c *Cart) AddItemQuantity(p catalog.Product, quantity pricing.Quantity) error {
	if !c.catalog.Contains(p) {
		return common.NewAppError(catalog.ErrProductNotFound, "product_not_found", p.Name, p.Unit.String(),
			"cart: %s with unit %s is not in the catalog", p.Name, p.Unit)
	}
	if quantity.IsNegative() {
		return common.NewAppError(common.ErrQuantityValidation, "negative_quantity", p.Name, quantity.String(),
			"cart: quantity of %s must not be negative, got %s", p.Name, quantity)
	}
	if p.Unit == catalog.Each && !quantity.IsInteger() {
		return common.NewAppError(common.ErrQuantityValidation, "fractional_quantity", p.Name, quantity.String(),
			"cart: %s is sold per piece, got quantity %s", p.Name, quantity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.quantities[p]; ok {
		c.quantities[p] = current.Add(quantity)
		return nil
	}
	c.order = append(c.order, p)
	c.quantities[p] = quantity
	return nil
}

// Quantity returns the accumulated quantity of p (zero when absent).
func (c *Cart) Quantity(p catalog.Product) pricing.Quantity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quantities[p]
}

// Items returns the cart contents in first-insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]Item, 0, len(c.order))
	for _, p := range c.order {
		items = append(items, Item{Product: p, Quantity: c.quantities[p]})
	}
	return items
}

// Purchases returns the cart contents as discount engine input.
func (c *Cart) Purchases() []pricing.Purchase {
	items := c.Items()
	out := make([]pricing.Purchase, len(items))
	for i, it := range items {
		out[i] = pricing.Purchase{Product: it.Product, Quantity: it.Quantity}
	}
	return out
}

// Len returns the number of distinct products in the cart.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}
