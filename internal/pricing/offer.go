package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/supermarket-receipt/internal/catalog"
)

// OfferType names the promotion mechanics of an Offer.
type OfferType string

const (
	OfferThreeForTwo     OfferType = "THREE_FOR_TWO"
	OfferPercentDiscount OfferType = "PERCENT_DISCOUNT"
	OfferTwoForAmount    OfferType = "TWO_FOR_AMOUNT"
	OfferFiveForAmount   OfferType = "FIVE_FOR_AMOUNT"
	OfferXForY           OfferType = "X_FOR_Y"
	OfferXForAmount      OfferType = "X_FOR_AMOUNT"
)

// Offer is a single-product promotion. The set of implementations is closed:
// XForY, PercentDiscount and XForAmount.
type Offer interface {
	Product() catalog.Product
	Type() OfferType
	isOffer()
}

// XForY lets the customer take X pieces while paying for Y.
type XForY struct {
	Item catalog.Product
	X    int64 `validate:"gte=1,gtfield=Y"`
	Y    int64 `validate:"gte=0"`
}

// ThreeForTwo is the classic "take three, pay two" offer.
func ThreeForTwo(p catalog.Product) XForY {
	return XForY{Item: p, X: 3, Y: 2}
}

func (o XForY) Product() catalog.Product { return o.Item }

func (o XForY) Type() OfferType {
	if o.X == 3 && o.Y == 2 {
		return OfferThreeForTwo
	}
	return OfferXForY
}

func (XForY) isOffer() {}

// PercentDiscount takes Percentage percent off every unit bought.
type PercentDiscount struct {
	Item       catalog.Product
	Percentage decimal.Decimal `validate:"gte=0,lte=100"`
}

// NewPercentDiscount builds a PercentDiscount from a plain number.
func NewPercentDiscount(p catalog.Product, percentage float64) PercentDiscount {
	return PercentDiscount{Item: p, Percentage: decimal.NewFromFloat(percentage)}
}

func (o PercentDiscount) Product() catalog.Product { return o.Item }
func (PercentDiscount) Type() OfferType            { return OfferPercentDiscount }
func (PercentDiscount) isOffer()                   {}

// XForAmount sells every group of X pieces for PaidAmount cents.
type XForAmount struct {
	Item       catalog.Product
	X          int64 `validate:"gte=1"`
	PaidAmount Money `validate:"gte=0"`
}

// TwoForAmount sells two pieces for amount cents.
func TwoForAmount(p catalog.Product, amount Money) XForAmount {
	return XForAmount{Item: p, X: 2, PaidAmount: amount}
}

// FiveForAmount sells five pieces for amount cents.
func FiveForAmount(p catalog.Product, amount Money) XForAmount {
	return XForAmount{Item: p, X: 5, PaidAmount: amount}
}

func (o XForAmount) Product() catalog.Product { return o.Item }

func (o XForAmount) Type() OfferType {
	switch o.X {
	case 2:
		return OfferTwoForAmount
	case 5:
		return OfferFiveForAmount
	default:
		return OfferXForAmount
	}
}

func (XForAmount) isOffer() {}
