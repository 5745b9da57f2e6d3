package receipt

import (
	"errors"

	"github.com/JohnCGriffin/overflow"
	"github.com/google/uuid"

	"github.com/noah-isme/supermarket-receipt/internal/catalog"
	"github.com/noah-isme/supermarket-receipt/internal/pricing"
)

// ErrTotalOverflow is returned when the receipt total does not fit into int64 cents.
var ErrTotalOverflow = errors.New("receipt: total overflows int64 cents")

// Item is one priced line of a receipt.
type Item struct {
	Product         catalog.Product
	Quantity        pricing.Quantity
	UnitPriceCents  pricing.Money
	TotalPriceCents pricing.Money
}

// Receipt collects priced lines and discounts of a single checkout.
type Receipt struct {
	ID        uuid.UUID
	items     []Item
	discounts []pricing.Discount
}

// New returns an empty receipt with a fresh id.
func New() *Receipt {
	return &Receipt{ID: uuid.New()}
}

// AddLineItem appends a priced line. Values are trusted as given.
func (r *Receipt) AddLineItem(p catalog.Product, quantity pricing.Quantity, unitPrice, totalPrice pricing.Money) {
	r.items = append(r.items, Item{
		Product:         p,
		Quantity:        quantity,
		UnitPriceCents:  unitPrice,
		TotalPriceCents: totalPrice,
	})
}

// AddDiscounts appends discounts.
func (r *Receipt) AddDiscounts(discounts ...pricing.Discount) {
	r.discounts = append(r.discounts, discounts...)
}

// Items returns a copy of the priced lines.
func (r *Receipt) Items() []Item {
	out := make([]Item, len(r.items))
	copy(out, r.items)
	return out
}

// Discounts returns a copy of the discounts.
func (r *Receipt) Discounts() []pricing.Discount {
	out := make([]pricing.Discount, len(r.discounts))
	copy(out, r.discounts)
	return out
}

// TotalCents sums line totals and (negative) discount amounts.
func (r *Receipt) TotalCents() (pricing.Money, error) {
	var total pricing.Money
	var ok bool
	for _, it := range r.items {
		if total, ok = overflow.Add64(total, it.TotalPriceCents); !ok {
			return 0, ErrTotalOverflow
		}
	}
	for _, d := range r.discounts {
		if total, ok = overflow.Add64(total, d.AmountCents); !ok {
			return 0, ErrTotalOverflow
		}
	}
	return total, nil
}

// DiscountCents sums all discount amounts.
func (r *Receipt) DiscountCents() (pricing.Money, error) {
	var total pricing.Money
	var ok bool
	for _, d := range r.discounts {
		if total, ok = overflow.Add64(total, d.AmountCents); !ok {
			return 0, ErrTotalOverflow
		}
	}
	return total, nil
}
