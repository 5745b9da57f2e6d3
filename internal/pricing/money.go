package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/supermarket-receipt/internal/catalog"
	"github.com/noah-isme/supermarket-receipt/internal/common"
)

// Money represents a monetary value stored in minor units (cents).
type Money = int64

// Quantity is a purchased amount: pieces for EACH products, kilograms for KILO.
type Quantity = decimal.Decimal

var hundred = decimal.NewFromInt(100)

// Qty is shorthand for an integral quantity.
func Qty(n int64) Quantity {
	return decimal.NewFromInt(n)
}

// Purchase is one cart line fed to the discount engine.
type Purchase struct {
	Product  catalog.Product
	Quantity Quantity
}

// LineTotal prices quantity at unitPrice, rounding once to whole cents.
func LineTotal(quantity Quantity, unitPrice Money) (Money, error) {
	return toCents(quantity.Mul(decimal.NewFromInt(unitPrice)), "")
}

// toCents rounds an exact decimal amount half-to-even to whole cents.
func toCents(amount decimal.Decimal, product string) (Money, error) {
	rounded := amount.RoundBank(0)
	if !rounded.BigInt().IsInt64() {
		return 0, common.NewAppError(common.ErrConfiguration, "amount_out_of_range", product, amount.String(),
			"pricing: amount %s does not fit into cents", amount.String())
	}
	return rounded.IntPart(), nil
}

func cents(m Money) decimal.Decimal {
	return decimal.NewFromInt(m)
}
