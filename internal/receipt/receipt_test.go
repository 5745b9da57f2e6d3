package receipt_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/supermarket-receipt/internal/catalog"
	"github.com/noah-isme/supermarket-receipt/internal/pricing"
	"github.com/noah-isme/supermarket-receipt/internal/receipt"
)

var (
	toothbrush = catalog.NewProduct("toothbrush", catalog.Each)
	apples     = catalog.NewProduct("apples", catalog.Kilo)
)

func TestTotalCents(t *testing.T) {
	r := receipt.New()
	total, err := r.TotalCents()
	require.NoError(t, err)
	require.Zero(t, total)

	r.AddLineItem(toothbrush, decimal.NewFromInt(3), 99, 297)
	r.AddLineItem(apples, decimal.RequireFromString("0.75"), 199, 149)
	total, err = r.TotalCents()
	require.NoError(t, err)
	require.EqualValues(t, 446, total)

	r.AddDiscounts(pricing.Discount{Product: toothbrush, Description: "3 for 2", AmountCents: -99})
	total, err = r.TotalCents()
	require.NoError(t, err)
	require.EqualValues(t, 347, total)

	discount, err := r.DiscountCents()
	require.NoError(t, err)
	require.EqualValues(t, -99, discount)
}

func TestTotalIndependentOfInsertionOrder(t *testing.T) {
	discount := pricing.Discount{Product: toothbrush, Description: "10% off", AmountCents: -20}

	first := receipt.New()
	first.AddDiscounts(discount)
	first.AddLineItem(apples, decimal.RequireFromString("2.5"), 199, 498)
	first.AddLineItem(toothbrush, decimal.NewFromInt(2), 99, 198)

	second := receipt.New()
	second.AddLineItem(toothbrush, decimal.NewFromInt(2), 99, 198)
	second.AddLineItem(apples, decimal.RequireFromString("2.5"), 199, 498)
	second.AddDiscounts(discount)

	a, err := first.TotalCents()
	require.NoError(t, err)
	b, err := second.TotalCents()
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.EqualValues(t, 676, a)
	require.NotEqual(t, first.ID, second.ID)
}

func TestAccessorsReturnCopies(t *testing.T) {
	r := receipt.New()
	r.AddLineItem(toothbrush, decimal.NewFromInt(1), 99, 99)
	r.AddDiscounts(pricing.Discount{Product: toothbrush, AmountCents: -9})

	items := r.Items()
	items[0].TotalPriceCents = 0
	discounts := r.Discounts()
	discounts[0].AmountCents = 0

	require.EqualValues(t, 99, r.Items()[0].TotalPriceCents)
	require.EqualValues(t, -9, r.Discounts()[0].AmountCents)
}

func TestTotalOverflow(t *testing.T) {
	r := receipt.New()
	r.AddLineItem(toothbrush, decimal.NewFromInt(1), math.MaxInt64, math.MaxInt64)
	r.AddLineItem(toothbrush, decimal.NewFromInt(1), 1, 1)

	_, err := r.TotalCents()
	require.ErrorIs(t, err, receipt.ErrTotalOverflow)
}
