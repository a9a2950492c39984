package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/cart"
)

// ErrEmptyCart is returned when checking out a cart without lines.
var ErrEmptyCart = errors.New("cart is empty")

// Service turns carts into orders.
type Service struct {
	orders Repository
	now    func() time.Time
}

// NewService creates an order Service persisting to orders.
func NewService(orders Repository) *Service {
	return &Service{
		orders: orders,
		now:    time.Now,
	}
}

// Checkout persists the current contents of the session as an order and then
// clears the cart. The session is held for the whole call, so lines added
// while the order is being written stay in the cart. The cart is left
// untouched when persisting fails.
func (s *Service) Checkout(ctx context.Context, session *cart.Session) (*Order, error) {
	var o *Order
	err := session.Checkout(ctx, func(c cart.Cart) error {
		if c.IsEmpty() {
			return ErrEmptyCart
		}
		o = s.newOrder(session.Key(), c)
		if err := s.orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) newOrder(key string, c cart.Cart) *Order {
	lines := c.Lines()
	items := make([]Item, len(lines))
	for i, l := range lines {
		items[i] = Item{
			ProductID: l.ProductID,
			Name:      l.Product.Name,
			Size:      l.Size,
			Color:     l.Color,
			Quantity:  l.Quantity,
			UnitPrice: l.Product.Price,
		}
	}
	return &Order{
		ID:        uuid.New().String(),
		CartKey:   key,
		Items:     items,
		Total:     c.TotalPrice().Round(2),
		CreatedAt: s.now().UTC(),
	}
}
