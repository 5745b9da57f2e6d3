package checkout

import (
	"errors"
	"reflect"
	"sync"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/supermarket-receipt/internal/cart"
	"github.com/noah-isme/supermarket-receipt/internal/catalog"
	"github.com/noah-isme/supermarket-receipt/internal/common"
	"github.com/noah-isme/supermarket-receipt/internal/obs"
	"github.com/noah-isme/supermarket-receipt/internal/pricing"
	"github.com/noah-isme/supermarket-receipt/internal/receipt"
)

const bundlePromotion = "BUNDLE"

// Teller checks out carts against a catalog and the promotions registered on it.
// A product carries at most one promotion: either an offer or a bundle.
type Teller struct {
	catalog  catalog.Catalog
	logger   zerolog.Logger
	metrics  *obs.CheckoutMetrics
	validate *validator.Validate

	mu       sync.Mutex
	offers   map[catalog.Product]pricing.Offer
	bundles  []pricing.Bundle
	bundleOf map[catalog.Product]int
}

// Option customises a Teller.
type Option func(*Teller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Teller) { t.logger = l }
}

// WithMetrics records checkout and registration metrics.
func WithMetrics(m *obs.CheckoutMetrics) Option {
	return func(t *Teller) { t.metrics = m }
}

// WithValidator replaces the registration validator.
func WithValidator(v *validator.Validate) Option {
	return func(t *Teller) {
		if v != nil {
			t.validate = v
		}
	}
}

// NewValidator returns a validator that understands decimal percentages.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// New builds a Teller for cat.
func New(cat catalog.Catalog, opts ...Option) *Teller {
	t := &Teller{
		catalog:  cat,
		logger:   zerolog.Nop(),
		offers:   make(map[catalog.Product]pricing.Offer),
		bundleOf: make(map[catalog.Product]int),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.validate == nil {
		t.validate = NewValidator()
	}
	return t
}

// AddOffer registers an offer. It fails when the offer is malformed or its
// product already has an offer or a bundle; the teller is unchanged then.
func (t *Teller) AddOffer(offer pricing.Offer) error {
	if err := t.validateOffer(offer); err != nil {
		t.rejected("offer", "invalid", err)
		return err
	}
	p := offer.Product()

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.offers[p]; ok {
		err := conflict("offer", p, "an offer")
		t.rejected("offer", "conflict", err)
		return err
	}
	if _, ok := t.bundleOf[p]; ok {
		err := conflict("offer", p, "a bundle")
		t.rejected("offer", "conflict", err)
		return err
	}
	t.offers[p] = offer
	t.metrics.ObserveRegistration("offer", "ok")
	t.logger.Debug().Str("product", p.Name).Str("offer", string(offer.Type())).Msg("offer registered")
	return nil
}

// AddBundle registers a bundle. Registration is all-or-nothing: if any of its
// products already has a promotion nothing is registered.
func (t *Teller) AddBundle(bundle pricing.Bundle) error {
	if err := t.validateBundle(bundle); err != nil {
		t.rejected("bundle", "invalid", err)
		return err
	}
	products := append([]catalog.Product(nil), bundle.Products...)
	bundle.Products = products

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range products {
		if _, ok := t.offers[p]; ok {
			err := conflict("bundle", p, "an offer")
			t.rejected("bundle", "conflict", err)
			return err
		}
		if _, ok := t.bundleOf[p]; ok {
			err := conflict("bundle", p, "a bundle")
			t.rejected("bundle", "conflict", err)
			return err
		}
	}
	idx := len(t.bundles)
	t.bundles = append(t.bundles, bundle)
	for _, p := range products {
		t.bundleOf[p] = idx
	}
	t.metrics.ObserveRegistration("bundle", "ok")
	t.logger.Debug().Int("products", len(products)).Str("percentage", bundle.DiscountPercentage.String()).Msg("bundle registered")
	return nil
}

// Offers returns a copy of the registered offers.
func (t *Teller) Offers() map[catalog.Product]pricing.Offer {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[catalog.Product]pricing.Offer, len(t.offers))
	for p, o := range t.offers {
		out[p] = o
	}
	return out
}

// Bundles returns the registered bundles in registration order.
func (t *Teller) Bundles() []pricing.Bundle {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]pricing.Bundle, len(t.bundles))
	for i, b := range t.bundles {
		b.Products = append([]catalog.Product(nil), b.Products...)
		out[i] = b
	}
	return out
}

// CheckOut prices every cart item, derives the discounts and returns the
// receipt. On error no receipt is returned.
func (t *Teller) CheckOut(c *cart.Cart) (*receipt.Receipt, error) {
	if c == nil {
		return nil, errors.New("checkout: cart is required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	r, err := t.checkOut(c)
	if err != nil {
		t.metrics.ObserveCheckout("error", 0)
		t.logger.Warn().Err(err).Str("code", errorCode(err)).Msg("checkout failed")
		return nil, err
	}
	t.metrics.ObserveCheckout("ok", len(r.Items()))
	return r, nil
}

func (t *Teller) checkOut(c *cart.Cart) (*receipt.Receipt, error) {
	r := receipt.New()
	purchases := c.Purchases()
	for _, purchase := range purchases {
		unitPrice, err := t.catalog.UnitPriceCents(purchase.Product)
		if err != nil {
			return nil, err
		}
		total, err := pricing.LineTotal(purchase.Quantity, unitPrice)
		if err != nil {
			return nil, err
		}
		r.AddLineItem(purchase.Product, purchase.Quantity, unitPrice, total)
	}

	discounts, err := pricing.DeriveDiscounts(purchases, t.offers, t.bundles, t.catalog)
	if err != nil {
		return nil, err
	}
	r.AddDiscounts(discounts...)

	total, err := r.TotalCents()
	if err != nil {
		return nil, err
	}
	for _, d := range discounts {
		t.metrics.ObserveDiscount(t.promotionOf(d.Product), d.AmountCents)
	}
	t.logger.Debug().
		Str("receipt_id", r.ID.String()).
		Int("lines", len(purchases)).
		Int("discounts", len(discounts)).
		Int64("total_cents", total).
		Msg("checkout completed")
	return r, nil
}

func (t *Teller) promotionOf(p catalog.Product) string {
	if offer, ok := t.offers[p]; ok {
		return string(offer.Type())
	}
	return bundlePromotion
}

func (t *Teller) rejected(kind, result string, err error) {
	t.metrics.ObserveRegistration(kind, result)
	evt := t.logger.Warn().Err(err).Str("kind", kind)
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		evt = evt.Str("product", appErr.Product).Str("code", appErr.Code)
	}
	evt.Msg("promotion rejected")
}

func conflict(kind string, p catalog.Product, existing string) error {
	return common.NewAppError(common.ErrRegistrationConflict, "already_has_promotion", p.Name, kind,
		"can't add %s for %s: product already has %s", kind, p, existing)
}

func errorCode(err error) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "internal"
}

func (t *Teller) validateOffer(offer pricing.Offer) error {
	if offer == nil {
		return common.NewAppError(common.ErrConfiguration, "unsupported_offer", "", nil, "offer is required")
	}
	return t.structError("invalid_offer", offer.Product().Name, t.validate.Struct(offer))
}

func (t *Teller) validateBundle(bundle pricing.Bundle) error {
	product := ""
	if len(bundle.Products) > 0 {
		product = bundle.Products[0].Name
	}
	return t.structError("invalid_bundle", product, t.validate.Struct(bundle))
}

func (t *Teller) structError(code, product string, err error) error {
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		fe := fields[0]
		return common.NewAppError(common.ErrConfiguration, code, product, fe.Value(),
			"%s: field %s fails %q (value %v)", code, fe.Namespace(), fe.Tag(), fe.Value())
	}
	return common.NewAppError(common.ErrConfiguration, code, product, nil, "%s: %v", code, err)
}
