package checkout_test

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/supermarket-receipt/internal/cart"
	"github.com/noah-isme/supermarket-receipt/internal/catalog"
	"github.com/noah-isme/supermarket-receipt/internal/checkout"
	"github.com/noah-isme/supermarket-receipt/internal/common"
	"github.com/noah-isme/supermarket-receipt/internal/obs"
	"github.com/noah-isme/supermarket-receipt/internal/pricing"
	"github.com/noah-isme/supermarket-receipt/internal/receipt"
)

var (
	toothbrush  = catalog.NewProduct("toothbrush", catalog.Each)
	toothpaste  = catalog.NewProduct("toothpaste", catalog.Each)
	dentalFloss = catalog.NewProduct("dental floss", catalog.Each)
	melon       = catalog.NewProduct("melon", catalog.Each)
	apples      = catalog.NewProduct("apples", catalog.Kilo)
)

type fixture struct {
	catalog *catalog.Memory
	teller  *checkout.Teller
	cart    *cart.Cart
}

func newFixture(t *testing.T, prices map[catalog.Product]int64, opts ...checkout.Option) fixture {
	t.Helper()
	mem := catalog.NewMemory()
	for p, price := range prices {
		require.NoError(t, mem.AddProduct(p, price))
	}
	return fixture{catalog: mem, teller: checkout.New(mem, opts...), cart: cart.New(mem)}
}

func (f fixture) add(t *testing.T, p catalog.Product, quantity string) {
	t.Helper()
	require.NoError(t, f.cart.AddItemQuantity(p, decimal.RequireFromString(quantity)))
}

func checkOut(t *testing.T, f fixture) (*receipt.Receipt, int64) {
	t.Helper()
	r, err := f.teller.CheckOut(f.cart)
	require.NoError(t, err)
	total, err := r.TotalCents()
	require.NoError(t, err)
	return r, total
}

func TestThreeForTwoMet(t *testing.T) {
	f := newFixture(t, map[catalog.Product]int64{toothbrush: 100, apples: 200})
	require.NoError(t, f.teller.AddOffer(pricing.ThreeForTwo(toothbrush)))
	f.add(t, apples, "3")
	f.add(t, toothbrush, "3")

	r, total := checkOut(t, f)
	require.EqualValues(t, 800, total)
	require.Len(t, r.Discounts(), 1)
	require.Equal(t, "3 for 2", r.Discounts()[0].Description)

	items := r.Items()
	require.Len(t, items, 2)
	require.Equal(t, apples, items[0].Product)
	require.EqualValues(t, 200, items[0].UnitPriceCents)
	require.EqualValues(t, 600, items[0].TotalPriceCents)
}

func TestThreeForTwoNotMet(t *testing.T) {
	f := newFixture(t, map[catalog.Product]int64{toothbrush: 100, apples: 200})
	require.NoError(t, f.teller.AddOffer(pricing.ThreeForTwo(toothbrush)))
	f.add(t, toothbrush, "2")
	f.add(t, apples, "3")

	r, total := checkOut(t, f)
	require.EqualValues(t, 800, total)
	require.Empty(t, r.Discounts())
}

func TestPercentDiscountWithLooseWeight(t *testing.T) {
	f := newFixture(t, map[catalog.Product]int64{toothbrush: 99, apples: 199})
	require.NoError(t, f.teller.AddOffer(pricing.NewPercentDiscount(toothbrush, 10)))
	f.add(t, apples, "2.5")
	f.add(t, toothbrush, "2")

	r, total := checkOut(t, f)
	require.EqualValues(t, 676, total)
	require.EqualValues(t, 498, r.Items()[0].TotalPriceCents)
	require.EqualValues(t, -20, r.Discounts()[0].AmountCents)
	require.Equal(t, "10% off", r.Discounts()[0].Description)
}

func bundleFixture(t *testing.T, opts ...checkout.Option) fixture {
	t.Helper()
	f := newFixture(t, map[catalog.Product]int64{toothbrush: 100, toothpaste: 80, melon: 210, dentalFloss: 60}, opts...)
	require.NoError(t, f.teller.AddBundle(pricing.NewBundle(20, toothbrush, toothpaste)))
	return f
}

func TestBundleFullSets(t *testing.T) {
	f := bundleFixture(t)
	f.add(t, toothbrush, "2")
	f.add(t, toothpaste, "2")
	f.add(t, melon, "3")

	r, total := checkOut(t, f)
	require.EqualValues(t, 918, total)
	require.Len(t, r.Discounts(), 2)
}

func TestBundleLowestCommonQuantity(t *testing.T) {
	f := bundleFixture(t)
	f.add(t, toothbrush, "2")
	f.add(t, toothpaste, "1")
	f.add(t, melon, "3")

	r, total := checkOut(t, f)
	require.EqualValues(t, 874, total)
	require.Len(t, r.Discounts(), 2)
}

func TestBundleMissingProduct(t *testing.T) {
	f := bundleFixture(t)
	f.add(t, toothbrush, "1")
	f.add(t, melon, "3")

	r, total := checkOut(t, f)
	require.EqualValues(t, 730, total)
	require.Empty(t, r.Discounts())
}

func TestIncompleteBundleSkipsLaterBundles(t *testing.T) {
	f := newFixture(t, map[catalog.Product]int64{toothbrush: 100, toothpaste: 80, melon: 210, dentalFloss: 60})
	require.NoError(t, f.teller.AddBundle(pricing.NewBundle(20, toothbrush, toothpaste)))
	require.NoError(t, f.teller.AddBundle(pricing.NewBundle(10, melon, dentalFloss)))
	f.add(t, toothbrush, "1")
	f.add(t, melon, "1")
	f.add(t, dentalFloss, "1")

	r, total := checkOut(t, f)
	require.Empty(t, r.Discounts())
	require.EqualValues(t, 370, total)
}

func TestOffersAndBundlesTogether(t *testing.T) {
	f := bundleFixture(t)
	require.NoError(t, f.teller.AddOffer(pricing.FiveForAmount(melon, 900)))
	f.add(t, melon, "5")
	f.add(t, toothbrush, "1")
	f.add(t, toothpaste, "1")

	r, total := checkOut(t, f)
	discounts := r.Discounts()
	require.Len(t, discounts, 3)
	require.Equal(t, melon, discounts[0].Product)
	require.EqualValues(t, -150, discounts[0].AmountCents)
	require.EqualValues(t, 1050+100+80-150-20-16, total)
}

func TestAddOfferConflicts(t *testing.T) {
	f := bundleFixture(t)

	require.NoError(t, f.teller.AddOffer(pricing.NewPercentDiscount(melon, 20)))
	err := f.teller.AddOffer(pricing.FiveForAmount(melon, 400))
	require.ErrorIs(t, err, common.ErrRegistrationConflict)
	require.EqualError(t, err, "can't add offer for Product(name=melon): product already has an offer")

	err = f.teller.AddOffer(pricing.FiveForAmount(toothbrush, 400))
	require.ErrorIs(t, err, common.ErrRegistrationConflict)
	require.EqualError(t, err, "can't add offer for Product(name=toothbrush): product already has a bundle")

	offers := f.teller.Offers()
	require.Len(t, offers, 1)
	require.Equal(t, pricing.OfferPercentDiscount, offers[melon].Type())
}

func TestAddBundleConflicts(t *testing.T) {
	f := bundleFixture(t)
	require.NoError(t, f.teller.AddOffer(pricing.NewPercentDiscount(melon, 20)))

	err := f.teller.AddBundle(pricing.NewBundle(10, dentalFloss, melon))
	require.ErrorIs(t, err, common.ErrRegistrationConflict)
	require.EqualError(t, err, "can't add bundle for Product(name=melon): product already has an offer")

	err = f.teller.AddBundle(pricing.NewBundle(10, dentalFloss, toothbrush))
	require.ErrorIs(t, err, common.ErrRegistrationConflict)
	require.EqualError(t, err, "can't add bundle for Product(name=toothbrush): product already has a bundle")

	// Neither rejected bundle left dental floss behind.
	require.Len(t, f.teller.Bundles(), 1)
	require.NoError(t, f.teller.AddOffer(pricing.ThreeForTwo(dentalFloss)))
}

func TestRegistrationValidation(t *testing.T) {
	f := newFixture(t, map[catalog.Product]int64{toothbrush: 100, toothpaste: 80})

	cases := []struct {
		name string
		add  func() error
	}{
		{name: "percentage above 100", add: func() error { return f.teller.AddOffer(pricing.NewPercentDiscount(toothbrush, 101)) }},
		{name: "negative percentage", add: func() error { return f.teller.AddOffer(pricing.NewPercentDiscount(toothbrush, -5)) }},
		{name: "x not above y", add: func() error { return f.teller.AddOffer(pricing.XForY{Item: toothbrush, X: 2, Y: 2}) }},
		{name: "negative paid amount", add: func() error { return f.teller.AddOffer(pricing.TwoForAmount(toothbrush, -1)) }},
		{name: "nil offer", add: func() error { return f.teller.AddOffer(nil) }},
		{name: "unnamed product", add: func() error { return f.teller.AddOffer(pricing.ThreeForTwo(catalog.Product{Unit: catalog.Each})) }},
		{name: "single product bundle", add: func() error { return f.teller.AddBundle(pricing.NewBundle(10, toothbrush)) }},
		{name: "duplicate bundle products", add: func() error { return f.teller.AddBundle(pricing.NewBundle(10, toothbrush, toothbrush)) }},
		{name: "bundle percentage", add: func() error { return f.teller.AddBundle(pricing.NewBundle(150, toothbrush, toothpaste)) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.add()
			require.ErrorIs(t, err, common.ErrConfiguration)
			require.True(t, common.IsAppError(err))
		})
	}
	require.Empty(t, f.teller.Offers())
	require.Empty(t, f.teller.Bundles())
}

func TestCheckOutSurfacesEngineErrors(t *testing.T) {
	f := newFixture(t, map[catalog.Product]int64{toothbrush: 100, apples: 200})
	require.NoError(t, f.teller.AddOffer(pricing.TwoForAmount(toothbrush, 250)))
	f.add(t, toothbrush, "2")

	r, err := f.teller.CheckOut(f.cart)
	require.Nil(t, r)
	require.ErrorIs(t, err, common.ErrConfiguration)

	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "toothbrush", appErr.Product)
}

func TestCheckOutRejectsWeightedBundle(t *testing.T) {
	f := newFixture(t, map[catalog.Product]int64{toothbrush: 100, apples: 200})
	require.NoError(t, f.teller.AddBundle(pricing.NewBundle(10, toothbrush, apples)))
	f.add(t, toothbrush, "1")
	f.add(t, apples, "1")

	_, err := f.teller.CheckOut(f.cart)
	require.ErrorIs(t, err, common.ErrProductUnitMismatch)
}

func TestCheckOutUnknownProduct(t *testing.T) {
	f := newFixture(t, map[catalog.Product]int64{toothbrush: 100})
	f.add(t, toothbrush, "1")

	other := checkout.New(catalog.NewMemory())
	_, err := other.CheckOut(f.cart)
	require.ErrorIs(t, err, catalog.ErrProductNotFound)

	_, err = other.CheckOut(nil)
	require.Error(t, err)
}

func TestCheckOutEmptyCart(t *testing.T) {
	f := bundleFixture(t)
	r, total := checkOut(t, f)
	require.Zero(t, total)
	require.Empty(t, r.Items())
	require.Empty(t, r.Discounts())
}

func TestCheckOutRecordsMetricsAndLogs(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := obs.NewCheckoutMetrics("test", reg)
	var logs bytes.Buffer
	logger := obs.NewLogger(&logs, "json", "debug")

	f := bundleFixture(t, checkout.WithMetrics(metrics), checkout.WithLogger(logger))
	require.NoError(t, f.teller.AddOffer(pricing.ThreeForTwo(melon)))
	require.Error(t, f.teller.AddOffer(pricing.ThreeForTwo(melon)))
	f.add(t, melon, "3")
	f.add(t, toothbrush, "1")
	f.add(t, toothpaste, "1")

	r, total := checkOut(t, f)
	require.Len(t, r.Discounts(), 3)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Checkouts.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Discounts.WithLabelValues("THREE_FOR_TWO")))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.Discounts.WithLabelValues("BUNDLE")))
	require.Equal(t, 246.0, testutil.ToFloat64(metrics.DiscountCents))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Registrations.WithLabelValues("offer", "conflict")))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.Registrations.WithLabelValues("offer", "ok"))+
		testutil.ToFloat64(metrics.Registrations.WithLabelValues("bundle", "ok")))

	require.EqualValues(t, 630+100+80-210-20-16, total)
	require.Contains(t, logs.String(), `"message":"checkout completed"`)
	require.Contains(t, logs.String(), r.ID.String())
	require.Contains(t, logs.String(), `"message":"promotion rejected"`)
}

func TestConcurrentCheckOuts(t *testing.T) {
	f := bundleFixture(t)
	f.add(t, toothbrush, "2")
	f.add(t, toothpaste, "2")

	var wg sync.WaitGroup
	totals := make([]int64, 8)
	for i := range totals {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := f.teller.CheckOut(f.cart)
			if err != nil {
				return
			}
			totals[i], _ = r.TotalCents()
		}(i)
	}
	wg.Wait()
	for _, total := range totals {
		require.EqualValues(t, 288, total)
	}
}
