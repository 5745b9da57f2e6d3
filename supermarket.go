// Package supermarket prices shopping carts against a product catalog and the
// offers and bundles registered with a Teller.
//
//	cat := supermarket.NewCatalog()
//	_ = cat.AddProduct(toothbrush, 99)
//	teller := supermarket.NewTeller(cat)
//	_ = teller.AddOffer(supermarket.ThreeForTwo(toothbrush))
//	cart := supermarket.NewCart(cat)
//	_ = cart.AddItemQuantity(toothbrush, supermarket.Qty(3))
//	receipt, err := teller.CheckOut(cart)
package supermarket

import (
	"github.com/noah-isme/supermarket-receipt/internal/cart"
	"github.com/noah-isme/supermarket-receipt/internal/catalog"
	"github.com/noah-isme/supermarket-receipt/internal/checkout"
	"github.com/noah-isme/supermarket-receipt/internal/common"
	"github.com/noah-isme/supermarket-receipt/internal/pricing"
	"github.com/noah-isme/supermarket-receipt/internal/receipt"
)

type (
	Product         = catalog.Product
	Unit            = catalog.Unit
	Catalog         = catalog.Catalog
	MemoryCatalog   = catalog.Memory
	Money           = pricing.Money
	Quantity        = pricing.Quantity
	Offer           = pricing.Offer
	XForY           = pricing.XForY
	PercentDiscount = pricing.PercentDiscount
	XForAmount      = pricing.XForAmount
	Bundle          = pricing.Bundle
	Discount        = pricing.Discount
	Cart            = cart.Cart
	Teller          = checkout.Teller
	TellerOption    = checkout.Option
	Receipt         = receipt.Receipt
	ReceiptItem     = receipt.Item
	TextPrinter     = receipt.TextPrinter
	HTMLPrinter     = receipt.HTMLPrinter
	Error           = common.AppError
)

const (
	Each = catalog.Each
	Kilo = catalog.Kilo
)

// Error kinds, for use with errors.Is.
var (
	ErrConfiguration        = common.ErrConfiguration
	ErrProductUnitMismatch  = common.ErrProductUnitMismatch
	ErrRegistrationConflict = common.ErrRegistrationConflict
	ErrQuantityValidation   = common.ErrQuantityValidation
	ErrProductNotFound      = catalog.ErrProductNotFound
)

var (
	NewProduct         = catalog.NewProduct
	NewCatalog         = catalog.NewMemory
	NewCart            = cart.New
	NewTeller          = checkout.New
	WithLogger         = checkout.WithLogger
	WithMetrics        = checkout.WithMetrics
	ThreeForTwo        = pricing.ThreeForTwo
	NewPercentDiscount = pricing.NewPercentDiscount
	TwoForAmount       = pricing.TwoForAmount
	FiveForAmount      = pricing.FiveForAmount
	NewBundle          = pricing.NewBundle
	Qty                = pricing.Qty
	NewTextPrinter     = receipt.NewTextPrinter
)
