package product

import (
	"context"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a merchandise item available in the storefront.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Image    string
	Category string
	Sizes    []string
	InStock  bool
}

// HasSize reports whether label is one of the product's available sizes.
// Products without a size list accept any label, including the empty one.
func (p Product) HasSize(label string) bool {
	if len(p.Sizes) == 0 {
		return true
	}
	return slices.Contains(p.Sizes, label)
}

// Clone returns a deep copy of p, so that later edits of the catalog entry
// do not leak into holders of the copy.
func (p Product) Clone() Product {
	p.Sizes = slices.Clone(p.Sizes)
	return p
}

// ValidationError describes a product field rejected before persisting.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid product " + e.Field + ": " + e.Reason
}

// Validate checks the fields required to list a product in the storefront.
func (p Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return &ValidationError{Field: "name", Reason: "required"}
	case p.Price.IsNegative():
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	for _, s := range p.Sizes {
		if strings.TrimSpace(s) == "" {
			return &ValidationError{Field: "sizes", Reason: "empty size label"}
		}
	}
	return nil
}

// Repository defines the catalog operations backed by the product store.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
