// Package cart implements the storefront shopping cart: lines keyed by
// (product, size, color), totals derived from those lines, and whole-document
// persistence of the cart into a key-value slot.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/product"
)

// Key identifies a cart line. Color is empty for products added without a
// color choice.
type Key struct {
	ProductID string
	Size      string
	Color     string
}

// Line is a single cart entry. Product is the catalog entry as it was when
// the line was first added; later catalog edits do not change it.
type Line struct {
	Key
	Quantity int
	Product  product.Product
}

// Subtotal returns the snapshot unit price multiplied by the quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered list of lines, at most one per Key. Lines keep their
// insertion order. Totals are always computed from the lines.
//
// The zero value is an empty cart.
type Cart struct {
	lines []Line
}

// Lines returns a copy of the cart lines in insertion order.
func (c Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		l.Product = l.Product.Clone()
		out[i] = l
	}
	return out
}

// Len returns the number of distinct lines.
func (c Cart) Len() int { return len(c.lines) }

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Line returns the line stored under k.
func (c Cart) Line(k Key) (Line, bool) {
	if i := c.index(k); i >= 0 {
		l := c.lines[i]
		l.Product = l.Product.Clone()
		return l, true
	}
	return Line{}, false
}

// TotalItems returns the sum of all line quantities.
func (c Cart) TotalItems() int {
	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice returns the sum of snapshot price times quantity over all lines.
func (c Cart) TotalPrice() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// Clone returns a deep copy of c.
func (c Cart) Clone() Cart {
	return Cart{lines: c.Lines()}
}

func (c Cart) index(k Key) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.Key == k })
}

// add increments the quantity of an existing line or appends a new one
// carrying a snapshot of p. The caller guarantees quantity >= 1.
func (c *Cart) add(p product.Product, quantity int, size, color string) Line {
	k := Key{ProductID: p.ID, Size: size, Color: color}
	if i := c.index(k); i >= 0 {
		c.lines[i].Quantity += quantity
		return c.lines[i]
	}
	l := Line{Key: k, Quantity: quantity, Product: p.Clone()}
	c.lines = append(c.lines, l)
	return l
}

// remove deletes the line stored under k and reports whether one existed.
func (c *Cart) remove(k Key) (Line, bool) {
	i := c.index(k)
	if i < 0 {
		return Line{}, false
	}
	l := c.lines[i]
	c.lines = slices.Delete(c.lines, i, i+1)
	return l, true
}

// setQuantity overwrites the quantity of the line stored under k. The caller
// guarantees quantity >= 1.
func (c *Cart) setQuantity(k Key, quantity int) bool {
	i := c.index(k)
	if i < 0 {
		return false
	}
	c.lines[i].Quantity = quantity
	return true
}

func (c *Cart) clear() {
	c.lines = nil
}
