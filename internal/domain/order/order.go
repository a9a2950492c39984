package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a checked-out cart.
type Order struct {
	ID        string
	CartKey   string
	Items     []Item
	Total     decimal.Decimal
	CreatedAt time.Time
}

// Item is one cart line frozen at checkout. UnitPrice is the price snapshot
// taken when the line was added to the cart.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
}
