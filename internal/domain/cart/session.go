package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/product"
)

// Session is the single source of truth for one cart. Every mutation is
// applied under the session lock and the whole cart is then written to the
// slot store before the lock is released, so mutations are linearizable in
// the order they are dispatched.
type Session struct {
	key     string
	owner   *Manager
	store   Store
	notify  Notifier
	lg      *zap.Logger
	metrics *metrics

	mu       sync.Mutex
	cart     Cart
	lastUsed time.Time
	// retired is set once the manager has dropped the session. Calls on a
	// retired handle are routed to the live session for the key.
	retired bool
}

// Key returns the slot key the session persists to.
func (s *Session) Key() string { return s.key }

// Snapshot returns a copy of the current cart.
func (s *Session) Snapshot() Cart {
	s = s.lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	return s.cart.Clone()
}

// AddLine adds quantity units of p in the given size and color. An existing
// line with the same key has its quantity increased; otherwise a new line is
// appended with a snapshot of p. Quantity must be at least 1.
func (s *Session) AddLine(ctx context.Context, p product.Product, quantity int, size, color string) error {
	if quantity < 1 {
		return &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if p.ID == "" {
		return &ValidationError{Field: "productId", Reason: "required"}
	}

	s = s.lock()
	defer s.mu.Unlock()

	s.cart.add(p, quantity, size, color)
	s.persist(ctx, "add")
	s.emit(ctx, Event{Level: LevelSuccess, Message: addedMessage(p.Name, quantity, size, color)})
	return nil
}

// RemoveLine deletes the line with the given key. Removing a line that does
// not exist is a no-op.
func (s *Session) RemoveLine(ctx context.Context, productID, size, color string) {
	s = s.lock()
	defer s.mu.Unlock()
	s.removeLocked(ctx, Key{ProductID: productID, Size: size, Color: color})
}

func (s *Session) removeLocked(ctx context.Context, k Key) {
	l, ok := s.cart.remove(k)
	if !ok {
		return
	}
	s.persist(ctx, "remove")
	s.emit(ctx, Event{Level: LevelInfo, Message: removedMessage(l.Product.Name)})
}

// SetQuantity overwrites the quantity of an existing line. A quantity of zero
// or less removes the line.
func (s *Session) SetQuantity(ctx context.Context, productID, size string, quantity int, color string) {
	s = s.lock()
	defer s.mu.Unlock()

	k := Key{ProductID: productID, Size: size, Color: color}
	if quantity <= 0 {
		s.removeLocked(ctx, k)
		return
	}
	if s.cart.setQuantity(k, quantity) {
		s.persist(ctx, "set_quantity")
	}
}

// Clear removes every line.
func (s *Session) Clear(ctx context.Context) {
	s = s.lock()
	defer s.mu.Unlock()

	s.clearLocked(ctx, "clear")
}

// Checkout hands a copy of the cart to place and clears the cart once place
// succeeds. The session stays locked for the whole call, so no mutation can
// land between the copy and the clear. When place fails the cart is left
// untouched and the error is returned as is.
func (s *Session) Checkout(ctx context.Context, place func(Cart) error) error {
	s = s.lock()
	defer s.mu.Unlock()

	if err := place(s.cart.Clone()); err != nil {
		return err
	}
	s.clearLocked(ctx, "checkout")
	return nil
}

func (s *Session) clearLocked(ctx context.Context, op string) {
	s.cart.clear()
	s.persist(ctx, op)
	s.emit(ctx, Event{Level: LevelInfo, Message: clearedMessage})
}

// lock acquires the lock of the live session behind s and returns it. A
// handle retired by the manager is either re-adopted or swapped for the
// session that replaced it.
func (s *Session) lock() *Session {
	for {
		s.mu.Lock()
		if !s.retired {
			return s
		}
		s.mu.Unlock()
		s = s.owner.adopt(s)
	}
}

// persist writes the whole cart to the slot. A failed write is logged and
// counted; the in-memory cart stays authoritative and the next mutation
// writes the full document again.
func (s *Session) persist(ctx context.Context, op string) {
	s.lastUsed = time.Now()
	s.metrics.mutation(ctx, op)

	if err := s.store.Save(ctx, s.key, Encode(s.cart)); err != nil {
		s.metrics.persistErrors.Add(ctx, 1)
		s.lg.Error("Persist cart",
			zap.String("key", s.key),
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func (s *Session) emit(ctx context.Context, ev Event) {
	if s.notify != nil {
		s.notify.Notify(ctx, ev)
	}
	if r := recorderFrom(ctx); r != nil {
		r.Notify(ctx, ev)
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// retireIfIdle marks the session retired when it has been unused for longer
// than idle at now.
func (s *Session) retireIfIdle(now time.Time, idle time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastUsed) <= idle {
		return false
	}
	s.retired = true
	return true
}

func (s *Session) retire() {
	s.mu.Lock()
	s.retired = true
	s.mu.Unlock()
}
