package handler

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/cart"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/directory"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/order"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/product"
)

func writeJSON(w http.ResponseWriter, code int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

// decodeBody reads a JSON object from the request body, calling fn per key.
func decodeBody(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, defaultMaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return badRequest("request body exceeds %d bytes", tooLarge.Limit)
		}
		return badRequest("read request body: %v", err)
	}
	if len(data) == 0 {
		return badRequest("request body is required")
	}
	d := jx.DecodeBytes(data)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		return fn(d, string(key))
	}); err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			return err
		}
		return badRequest("malformed JSON: %v", err)
	}
	return nil
}

func encodePrice(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}

func (h *Handler) imageURL(img string) string {
	if img == "" || h.imageBaseURL == "" || strings.Contains(img, "://") {
		return img
	}
	return strings.TrimRight(h.imageBaseURL, "/") + "/" + strings.TrimLeft(img, "/")
}

func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { encodePrice(e, p.Price) })
		e.Field("image", func(e *jx.Encoder) { e.Str(h.imageURL(p.Image)) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("sizes", func(e *jx.Encoder) { encodeStrings(e, p.Sizes) })
		e.Field("inStock", func(e *jx.Encoder) { e.Bool(p.InStock) })
	})
}

func (h *Handler) encodeCart(e *jx.Encoder, key string, c cart.Cart) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("key", func(e *jx.Encoder) { e.Str(key) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range c.Lines() {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(l.ProductID) })
						e.Field("size", func(e *jx.Encoder) { e.Str(l.Size) })
						e.Field("color", func(e *jx.Encoder) { e.Str(l.Color) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						e.Field("subtotal", func(e *jx.Encoder) { encodePrice(e, l.Subtotal()) })
						e.Field("product", func(e *jx.Encoder) { h.encodeProduct(e, l.Product) })
					})
				}
			})
		})
		e.Field("totalItems", func(e *jx.Encoder) { e.Int(c.TotalItems()) })
		e.Field("totalPrice", func(e *jx.Encoder) { encodePrice(e, c.TotalPrice()) })
	})
}

func encodeEvents(e *jx.Encoder, events []cart.Event) {
	e.Arr(func(e *jx.Encoder) {
		for _, ev := range events {
			encodeNotification(e, string(ev.Level), ev.Message)
		}
	})
}

func encodeNotification(e *jx.Encoder, level, msg string) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("level", func(e *jx.Encoder) { e.Str(level) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range o.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("size", func(e *jx.Encoder) { e.Str(it.Size) })
						e.Field("color", func(e *jx.Encoder) { e.Str(it.Color) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("unitPrice", func(e *jx.Encoder) { encodePrice(e, it.UnitPrice) })
					})
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { encodePrice(e, o.Total) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.UTC().Format(time.RFC3339)) })
	})
}

func encodeBusiness(e *jx.Encoder, b directory.Business) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(b.ID) })
		e.Field("ownerId", func(e *jx.Encoder) { e.Str(b.OwnerID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(b.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(b.Description) })
		e.Field("category", func(e *jx.Encoder) { e.Str(b.Category) })
		e.Field("subcategory", func(e *jx.Encoder) { e.Str(b.Subcategory) })
		e.Field("location", func(e *jx.Encoder) { e.Str(b.Location) })
		e.Field("province", func(e *jx.Encoder) { e.Str(b.Province) })
		e.Field("city", func(e *jx.Encoder) { e.Str(b.City) })
		e.Field("department", func(e *jx.Encoder) { e.Str(b.Department) })
		e.Field("contact", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				strField(e, "phone", b.Contact.Phone)
				strField(e, "email", b.Contact.Email)
				strField(e, "website", b.Contact.Website)
				strField(e, "whatsapp", b.Contact.WhatsApp)
			})
		})
		e.Field("social", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				strField(e, "facebook", b.Social.Facebook)
				strField(e, "instagram", b.Social.Instagram)
				strField(e, "twitter", b.Social.Twitter)
				strField(e, "linkedin", b.Social.LinkedIn)
				strField(e, "tiktok", b.Social.TikTok)
			})
		})
		e.Field("images", func(e *jx.Encoder) { encodeStrings(e, b.Images) })
		if !b.CreatedAt.IsZero() {
			e.Field("createdAt", func(e *jx.Encoder) { e.Str(b.CreatedAt.UTC().Format(time.RFC3339)) })
		}
		if !b.UpdatedAt.IsZero() {
			e.Field("updatedAt", func(e *jx.Encoder) { e.Str(b.UpdatedAt.UTC().Format(time.RFC3339)) })
		}
	})
}

// strField omits empty values.
func strField(e *jx.Encoder, name, v string) {
	if v == "" {
		return
	}
	e.Field(name, func(e *jx.Encoder) { e.Str(v) })
}

func encodeStrings(e *jx.Encoder, list []string) {
	e.Arr(func(e *jx.Encoder) {
		for _, s := range list {
			e.Str(s)
		}
	})
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	out := []string{}
	if d.Next() == jx.Null {
		return out, d.Null()
	}
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func optionalStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// decodePrice accepts a JSON number or a decimal string.
func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch t := d.Next(); t {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = n.String()
	default:
		return decimal.Decimal{}, badRequest("price must be a number")
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, badRequest("invalid price %q", raw)
	}
	return v, nil
}

func decodeProductInput(w http.ResponseWriter, r *http.Request) (product.Product, error) {
	var (
		p        product.Product
		hasPrice bool
	)
	p.InStock = true
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			p.Name, err = d.Str()
		case "price":
			p.Price, err = decodePrice(d)
			hasPrice = err == nil
		case "image":
			p.Image, err = optionalStr(d)
		case "category":
			p.Category, err = optionalStr(d)
		case "sizes":
			p.Sizes, err = decodeStrings(d)
		case "inStock":
			p.InStock, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return product.Product{}, err
	}
	if !hasPrice {
		return product.Product{}, &product.ValidationError{Field: "price", Reason: "required"}
	}
	return p, nil
}

func decodeBusinessInput(w http.ResponseWriter, r *http.Request) (directory.Business, error) {
	var b directory.Business
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			b.Name, err = d.Str()
		case "description":
			b.Description, err = optionalStr(d)
		case "category":
			b.Category, err = optionalStr(d)
		case "subcategory":
			b.Subcategory, err = optionalStr(d)
		case "location":
			b.Location, err = optionalStr(d)
		case "province":
			b.Province, err = optionalStr(d)
		case "city":
			b.City, err = optionalStr(d)
		case "department":
			b.Department, err = optionalStr(d)
		case "images":
			b.Images, err = decodeStrings(d)
		case "contact":
			err = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				var err error
				switch string(key) {
				case "phone":
					b.Contact.Phone, err = optionalStr(d)
				case "email":
					b.Contact.Email, err = optionalStr(d)
				case "website":
					b.Contact.Website, err = optionalStr(d)
				case "whatsapp":
					b.Contact.WhatsApp, err = optionalStr(d)
				default:
					err = d.Skip()
				}
				return err
			})
		case "social":
			err = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				var err error
				switch string(key) {
				case "facebook":
					b.Social.Facebook, err = optionalStr(d)
				case "instagram":
					b.Social.Instagram, err = optionalStr(d)
				case "twitter":
					b.Social.Twitter, err = optionalStr(d)
				case "linkedin":
					b.Social.LinkedIn, err = optionalStr(d)
				case "tiktok":
					b.Social.TikTok, err = optionalStr(d)
				default:
					err = d.Skip()
				}
				return err
			})
		default:
			err = d.Skip()
		}
		return err
	})
	return b, err
}

// lineInput is the body of cart item mutations.
type lineInput struct {
	ProductID string
	Size      string
	Color     string
	Quantity  int
	hasQty    bool
}

func decodeLineInput(w http.ResponseWriter, r *http.Request) (lineInput, error) {
	var in lineInput
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			in.ProductID, err = d.Str()
		case "size":
			in.Size, err = optionalStr(d)
		case "color":
			in.Color, err = optionalStr(d)
		case "quantity":
			in.Quantity, err = d.Int()
			in.hasQty = err == nil
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return lineInput{}, err
	}
	if in.ProductID == "" {
		return lineInput{}, &cart.ValidationError{Field: "productId", Reason: "required"}
	}
	return in, nil
}
