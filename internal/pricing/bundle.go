package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/supermarket-receipt/internal/catalog"
)

// Bundle grants DiscountPercentage off every complete set of Products bought
// together.
type Bundle struct {
	Products           []catalog.Product `validate:"min=2,unique,dive"`
	DiscountPercentage decimal.Decimal   `validate:"gte=0,lte=100"`
}

// NewBundle builds a Bundle from a plain percentage.
func NewBundle(percentage float64, products ...catalog.Product) Bundle {
	return Bundle{Products: products, DiscountPercentage: decimal.NewFromFloat(percentage)}
}

// Discount is a reduction granted on a receipt. AmountCents is never positive.
type Discount struct {
	Product     catalog.Product
	Description string
	AmountCents Money
}
