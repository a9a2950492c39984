package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/product"
)

// DocumentVersion is the schema version written into every persisted cart.
// Documents without a version field predate versioning and are read as
// version 1.
const DocumentVersion = 1

// Encode serializes the whole cart into its persisted document form:
//
//	{"version":1,"items":[...],"totalItems":3,"totalPrice":"45.00"}
//
// The totals are written for external readers only; Decode recomputes them.
func Encode(c Cart) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.Obj(func(e *jx.Encoder) {
		e.Field("version", func(e *jx.Encoder) { e.Int(DocumentVersion) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range c.lines {
					encodeLine(e, l)
				}
			})
		})
		e.Field("totalItems", func(e *jx.Encoder) { e.Int(c.TotalItems()) })
		e.Field("totalPrice", func(e *jx.Encoder) { e.Str(c.TotalPrice().StringFixed(2)) })
	})

	out := make([]byte, len(e.Bytes()))
	copy(out, e.Bytes())
	return out
}

func encodeLine(e *jx.Encoder, l Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("productId", func(e *jx.Encoder) { e.Str(l.ProductID) })
		e.Field("size", func(e *jx.Encoder) { e.Str(l.Size) })
		if l.Color != "" {
			e.Field("color", func(e *jx.Encoder) { e.Str(l.Color) })
		}
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
		e.Field("product", func(e *jx.Encoder) { encodeProduct(e, l.Product) })
	})
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Str(p.Price.String()) })
		e.Field("image", func(e *jx.Encoder) { e.Str(p.Image) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("sizes", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, s := range p.Sizes {
					e.Str(s)
				}
			})
		})
		e.Field("inStock", func(e *jx.Encoder) { e.Bool(p.InStock) })
	})
}

// Decode parses a persisted cart document. Any structural problem, an
// unknown version, or a line violating the cart invariants yields an error
// wrapping ErrCorruptDocument.
func Decode(data []byte) (Cart, error) {
	var (
		c       Cart
		version = DocumentVersion
	)
	d := jx.DecodeBytes(data)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "version":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "version")
			}
			version = v
			return nil
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				l, err := decodeLine(d)
				if err != nil {
					return errors.Wrapf(err, "item %d", len(c.lines))
				}
				c.lines = append(c.lines, l)
				return nil
			})
		default:
			// totalItems and totalPrice are projections of the lines.
			return d.Skip()
		}
	}); err != nil {
		return Cart{}, corruptWrap(err, "decode")
	}
	if d.Next() != jx.Invalid {
		return Cart{}, corrupt("trailing data after document")
	}
	if version != DocumentVersion {
		return Cart{}, corrupt("unsupported version %d", version)
	}

	seen := make(map[Key]struct{}, len(c.lines))
	for _, l := range c.lines {
		if _, dup := seen[l.Key]; dup {
			return Cart{}, corrupt("duplicate line for product %q size %q color %q", l.ProductID, l.Size, l.Color)
		}
		seen[l.Key] = struct{}{}
	}
	return c, nil
}

func decodeLine(d *jx.Decoder) (Line, error) {
	var l Line
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "productId":
			l.ProductID, err = d.Str()
		case "size":
			l.Size, err = d.Str()
		case "color":
			l.Color, err = optionalStr(d)
		case "quantity":
			l.Quantity, err = d.Int()
		case "product":
			l.Product, err = decodeProduct(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return Line{}, err
	}

	switch {
	case l.Quantity < 1:
		return Line{}, errors.Errorf("quantity %d below 1", l.Quantity)
	case l.Product.ID == "" && l.ProductID == "":
		return Line{}, errors.New("missing product id")
	case l.ProductID == "":
		l.ProductID = l.Product.ID
	case l.Product.ID == "":
		l.Product.ID = l.ProductID
	case l.Product.ID != l.ProductID:
		return Line{}, errors.Errorf("product id mismatch %q != %q", l.ProductID, l.Product.ID)
	}
	return l, nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			p.ID, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "price":
			p.Price, err = decodeDecimal(d)
		case "image":
			p.Image, err = optionalStr(d)
		case "category":
			p.Category, err = optionalStr(d)
		case "sizes":
			err = d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				if err != nil {
					return err
				}
				p.Sizes = append(p.Sizes, s)
				return nil
			})
		case "inStock":
			p.InStock, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
	return p, err
}

// decodeDecimal accepts both the string form written by Encode and a bare
// JSON number.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch t := d.Next(); t {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Decimal{}, errors.Errorf("unexpected %s for price", t)
	}
}

func optionalStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}
