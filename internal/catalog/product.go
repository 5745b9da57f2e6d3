package catalog

import (
	"fmt"
	"strings"
)

// Unit describes how a product is measured at the till.
type Unit int

const (
	// Each products are sold per piece and only in whole quantities.
	Each Unit = iota + 1
	// Kilo products are sold by weight and accept fractional quantities.
	Kilo
)

// String returns the canonical upper-case unit name.
func (u Unit) String() string {
	switch u {
	case Each:
		return "EACH"
	case Kilo:
		return "KILO"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// ParseUnit converts a unit name (case-insensitive) into a Unit.
func ParseUnit(value string) (Unit, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "EACH":
		return Each, nil
	case "KILO":
		return Kilo, nil
	default:
		return 0, fmt.Errorf("catalog: unknown unit %q", value)
	}
}

// Product identifies an article by name and unit. Products are comparable and
// two values with the same name and unit are the same product.
type Product struct {
	Name string `validate:"required"`
	Unit Unit   `validate:"oneof=1 2"`
}

// NewProduct builds a Product.
func NewProduct(name string, unit Unit) Product {
	return Product{Name: name, Unit: unit}
}

// String implements fmt.Stringer.
func (p Product) String() string {
	return fmt.Sprintf("Product(name=%s)", p.Name)
}

// key is the storage field used by the persistent adapters.
func (p Product) key() string {
	return p.Name + "|" + p.Unit.String()
}

func parseKey(key string) (Product, error) {
	idx := strings.LastIndex(key, "|")
	if idx <= 0 {
		return Product{}, fmt.Errorf("catalog: malformed product key %q", key)
	}
	unit, err := ParseUnit(key[idx+1:])
	if err != nil {
		return Product{}, err
	}
	return Product{Name: key[:idx], Unit: unit}, nil
}
