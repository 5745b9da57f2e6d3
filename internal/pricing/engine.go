package pricing

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/supermarket-receipt/internal/catalog"
	"github.com/noah-isme/supermarket-receipt/internal/common"
)

// PriceLookup resolves unit prices. catalog.Catalog satisfies it.
type PriceLookup interface {
	UnitPriceCents(p catalog.Product) (int64, error)
}

// DeriveDiscounts computes offer discounts followed by bundle discounts.
func DeriveDiscounts(purchases []Purchase, offers map[catalog.Product]Offer, bundles []Bundle, prices PriceLookup) ([]Discount, error) {
	discounts, err := DeriveOfferDiscounts(purchases, offers, prices)
	if err != nil {
		return nil, err
	}
	bundled, err := DeriveBundleDiscounts(purchases, bundles, prices)
	if err != nil {
		return nil, err
	}
	return append(discounts, bundled...), nil
}

// DeriveOfferDiscounts returns at most one discount per purchased product that
// has an offer, in purchase order.
func DeriveOfferDiscounts(purchases []Purchase, offers map[catalog.Product]Offer, prices PriceLookup) ([]Discount, error) {
	var discounts []Discount
	for _, purchase := range purchases {
		offer, ok := offers[purchase.Product]
		if !ok {
			continue
		}
		unitPrice, err := prices.UnitPriceCents(purchase.Product)
		if err != nil {
			return nil, errors.Wrapf(err, "offer for %s", purchase.Product.Name)
		}
		discount, err := offerDiscount(purchase.Product, purchase.Quantity, offer, unitPrice)
		if err != nil {
			return nil, err
		}
		if discount != nil {
			discounts = append(discounts, *discount)
		}
	}
	return discounts, nil
}

func offerDiscount(p catalog.Product, quantity Quantity, offer Offer, unitPrice Money) (*Discount, error) {
	switch o := offer.(type) {
	case XForY:
		return xForYDiscount(p, quantity, unitPrice, o.X, o.Y)
	case PercentDiscount:
		return percentageDiscount(p, quantity, unitPrice, o.Percentage)
	case XForAmount:
		return xForAmountDiscount(p, quantity, unitPrice, o.X, o.PaidAmount)
	default:
		return nil, common.NewAppError(common.ErrConfiguration, "unsupported_offer", p.Name, fmt.Sprintf("%T", offer),
			"pricing: unexpected offer type %T for %s", offer, p.Name)
	}
}

func percentageDiscount(p catalog.Product, quantity Quantity, unitPrice Money, percentage decimal.Decimal) (*Discount, error) {
	if percentage.IsNegative() || percentage.GreaterThan(hundred) {
		return nil, common.NewAppError(common.ErrConfiguration, "invalid_percentage", p.Name, percentage.String(),
			"discount percentage must be between 0 and 100, but got %s", percentage)
	}
	amount, err := toCents(quantity.Mul(cents(unitPrice)).Mul(percentage).Div(hundred), p.Name)
	if err != nil {
		return nil, err
	}
	return &Discount{
		Product:     p,
		Description: percentage.String() + "% off",
		AmountCents: -amount,
	}, nil
}

func xForYDiscount(p catalog.Product, quantity Quantity, unitPrice Money, x, y int64) (*Discount, error) {
	if x < 1 || y < 0 {
		return nil, common.NewAppError(common.ErrConfiguration, "invalid_x_for_y", p.Name, fmt.Sprintf("%d for %d", x, y),
			"x for y needs x >= 1 and y >= 0, but got %d for %d", x, y)
	}
	whole := quantity.Floor().IntPart()
	if whole <= y {
		return nil, nil
	}
	if x <= y {
		return nil, common.NewAppError(common.ErrConfiguration, "invalid_x_for_y", p.Name, fmt.Sprintf("%d for %d", x, y),
			"discounted quantity %d must be higher than paid quantity %d", x, y)
	}
	price := cents(unitPrice)
	paid := decimal.NewFromInt(whole / x * y).Mul(price).
		Add(decimal.NewFromInt(whole % x).Mul(price))
	amount, err := toCents(quantity.Mul(price).Sub(paid), p.Name)
	if err != nil {
		return nil, err
	}
	return &Discount{
		Product:     p,
		Description: fmt.Sprintf("%d for %d", x, y),
		AmountCents: -amount,
	}, nil
}

func xForAmountDiscount(p catalog.Product, quantity Quantity, unitPrice Money, x int64, paidPerX Money) (*Discount, error) {
	if x < 1 {
		return nil, common.NewAppError(common.ErrConfiguration, "invalid_x_for_amount", p.Name, x,
			"discounted quantity must be at least 1, but got %d", x)
	}
	whole := quantity.Floor().IntPart()
	if whole < x {
		return nil, nil
	}
	price := cents(unitPrice)
	regular := price.Mul(decimal.NewFromInt(x))
	if cents(paidPerX).GreaterThanOrEqual(regular) {
		return nil, common.NewAppError(common.ErrConfiguration, "invalid_x_for_amount", p.Name, paidPerX,
			"discount \"%d for %d\" must be lower than %d times the unit price of %d = %s by itself",
			x, paidPerX, x, unitPrice, regular)
	}
	paid := cents(paidPerX).Mul(decimal.NewFromInt(whole / x)).
		Add(decimal.NewFromInt(whole % x).Mul(price))
	amount, err := toCents(quantity.Mul(price).Sub(paid), p.Name)
	if err != nil {
		return nil, err
	}
	return &Discount{
		Product:     p,
		Description: fmt.Sprintf("%d for %d", x, paidPerX),
		AmountCents: -amount,
	}, nil
}

type bundleLine struct {
	product   catalog.Product
	quantity  Quantity
	unitPrice Money
}

// DeriveBundleDiscounts returns one discount per product of every bundle whose
// products were all bought, in bundle registration order.
//
// A bundle with an unpurchased product ends the evaluation: bundles registered
// after it yield no discount either.
func DeriveBundleDiscounts(purchases []Purchase, bundles []Bundle, prices PriceLookup) ([]Discount, error) {
	bought := make(map[catalog.Product]Quantity, len(purchases))
	for _, purchase := range purchases {
		if q, ok := bought[purchase.Product]; ok {
			bought[purchase.Product] = q.Add(purchase.Quantity)
			continue
		}
		bought[purchase.Product] = purchase.Quantity
	}

	var discounts []Discount
	for _, bundle := range bundles {
		lines := make([]bundleLine, 0, len(bundle.Products))
		var lowest Quantity
		complete := true
		for i, p := range bundle.Products {
			if p.Unit != catalog.Each {
				return nil, common.NewAppError(common.ErrProductUnitMismatch, "invalid_bundle_unit", p.Name, p.Unit.String(),
					"bundles can only be applied if every product has unit EACH, but %s has %s", p.Name, p.Unit)
			}
			q, ok := bought[p]
			if !ok || q.IsZero() {
				complete = false
				break
			}
			if i == 0 || q.LessThan(lowest) {
				lowest = q
			}
			lines = append(lines, bundleLine{product: p, quantity: q})
		}
		// TODO: confirm with product owners whether an incomplete bundle should
		// only skip itself; this currently stops all remaining bundles.
		if !complete {
			break
		}
		for i := range lines {
			price, err := prices.UnitPriceCents(lines[i].product)
			if err != nil {
				return nil, errors.Wrapf(err, "bundle with %s", lines[i].product.Name)
			}
			lines[i].unitPrice = price
		}
		bundled, err := bundleDiscounts(bundle, lowest, lines)
		if err != nil {
			return nil, err
		}
		discounts = append(discounts, bundled...)
	}
	return discounts, nil
}

func bundleDiscounts(bundle Bundle, lowest Quantity, lines []bundleLine) ([]Discount, error) {
	if !lowest.IsPositive() {
		product := ""
		if len(lines) > 0 {
			product = lines[0].product.Name
		}
		return nil, common.NewAppError(common.ErrConfiguration, "invalid_bundle_quantity", product, lowest.String(),
			"lowest purchase quantity must be greater than 0, but it's %s", lowest)
	}
	pct := bundle.DiscountPercentage
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return nil, common.NewAppError(common.ErrConfiguration, "invalid_percentage", lines[0].product.Name, pct.String(),
			"discount percentage must be between 0 and 100, but got %s", pct)
	}
	description := "Bundle discount: " + pct.String() + "% off"

	discounts := make([]Discount, 0, len(lines))
	for _, line := range lines {
		price := cents(line.unitPrice)
		bundledCents, err := toCents(lowest.Mul(hundred.Sub(pct)).Mul(price).Div(hundred), line.product.Name)
		if err != nil {
			return nil, err
		}
		rest := line.quantity.Sub(lowest).Mul(price)
		amount, err := toCents(line.quantity.Mul(price).Sub(cents(bundledCents)).Sub(rest), line.product.Name)
		if err != nil {
			return nil, err
		}
		discounts = append(discounts, Discount{
			Product:     line.product,
			Description: description,
			AmountCents: -amount,
		})
	}
	return discounts, nil
}
