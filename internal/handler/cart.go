package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/cart"
)

// CartIDHeader carries the client's cart id. A new id is issued when the
// request has none.
const CartIDHeader = "X-Cart-ID"

const maxCartIDLen = 128

func validCartID(id string) bool {
	if len(id) > maxCartIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// session resolves the cart of the request and echoes its id.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*cart.Session, error) {
	id := r.Header.Get(CartIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	if !validCartID(id) {
		return nil, badRequest("%s must be at most %d printable characters", CartIDHeader, maxCartIDLen)
	}
	w.Header().Set(CartIDHeader, id)

	s, err := h.carts.Session(r.Context(), id)
	if err != nil {
		return nil, upstream(err)
	}
	return s, nil
}

func (h *Handler) writeCart(w http.ResponseWriter, code int, s *cart.Session, rec *cart.Recorder) {
	c := s.Snapshot()
	writeJSON(w, code, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("cart", func(e *jx.Encoder) { h.encodeCart(e, s.Key(), c) })
			e.Field("notifications", func(e *jx.Encoder) { encodeEvents(e, rec.Events()) })
		})
	})
}

// mutateCart runs fn against the request's session and responds with the
// resulting cart and the notifications it emitted.
func (h *Handler) mutateCart(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, s *cart.Session) error) {
	rec := &cart.Recorder{}
	ctx := cart.WithRecorder(r.Context(), rec)

	s, err := h.session(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if fn != nil {
		if err := fn(ctx, s); err != nil {
			writeError(ctx, w, err)
			return
		}
	}
	h.writeCart(w, http.StatusOK, s, rec)
}

// GetCart returns the current cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, nil)
}

// AddCartItem adds a product line, merging with an existing line of the same
// product, size and color.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	in, err := decodeLineInput(w, r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if !in.hasQty {
		in.Quantity = 1
	}
	h.mutateCart(w, r, func(ctx context.Context, s *cart.Session) error {
		p, err := h.products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if !p.HasSize(in.Size) {
			return &cart.ValidationError{Field: "size", Reason: strconv.Quote(in.Size) + " is not offered for " + p.Name}
		}
		return s.AddLine(ctx, *p, in.Quantity, in.Size, in.Color)
	})
}

// UpdateCartItem sets the quantity of a line. Zero removes it.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	in, err := decodeLineInput(w, r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if !in.hasQty {
		writeError(r.Context(), w, &cart.ValidationError{Field: "quantity", Reason: "required"})
		return
	}
	h.mutateCart(w, r, func(ctx context.Context, s *cart.Session) error {
		s.SetQuantity(ctx, in.ProductID, in.Size, in.Quantity, in.Color)
		return nil
	})
}

// RemoveCartItem deletes the line identified by the query parameters.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID := q.Get("productId")
	if productID == "" {
		writeError(r.Context(), w, &cart.ValidationError{Field: "productId", Reason: "required"})
		return
	}
	h.mutateCart(w, r, func(ctx context.Context, s *cart.Session) error {
		s.RemoveLine(ctx, productID, q.Get("size"), q.Get("color"))
		return nil
	})
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, func(ctx context.Context, s *cart.Session) error {
		s.Clear(ctx)
		return nil
	})
}

// Checkout turns the cart into an order and empties it.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	rec := &cart.Recorder{}
	ctx := cart.WithRecorder(r.Context(), rec)

	s, err := h.session(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	o, err := h.orders.Checkout(ctx, s)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	c := s.Snapshot()
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("order", func(e *jx.Encoder) { encodeOrder(e, o) })
			e.Field("cart", func(e *jx.Encoder) { h.encodeCart(e, s.Key(), c) })
			e.Field("notifications", func(e *jx.Encoder) { encodeEvents(e, rec.Events()) })
		})
	})
}
