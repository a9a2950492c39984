package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/cart"
)

const (
	loadCartSlotSQL = `SELECT document FROM cart_slots WHERE key = $1`

	saveCartSlotSQL = `INSERT INTO cart_slots (key, document, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
)

var _ cart.Store = (*CartSlotStore)(nil)

// CartSlotStore keeps cart documents in the cart_slots table, one row per
// key. Concurrent writers resolve by last write wins.
type CartSlotStore struct {
	pool *pgxpool.Pool
}

// NewCartSlotStore returns a CartSlotStore that uses the given pool.
func NewCartSlotStore(pool *pgxpool.Pool) *CartSlotStore {
	return &CartSlotStore{pool: pool}
}

// Load returns the document stored under key.
func (s *CartSlotStore) Load(ctx context.Context, key string) ([]byte, error) {
	var doc []byte
	if err := s.pool.QueryRow(ctx, loadCartSlotSQL, key).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrSlotEmpty
		}
		return nil, fmt.Errorf("loading cart slot %q: %w", key, err)
	}
	return doc, nil
}

// Save replaces the document stored under key.
func (s *CartSlotStore) Save(ctx context.Context, key string, doc []byte) error {
	if _, err := s.pool.Exec(ctx, saveCartSlotSQL, key, doc); err != nil {
		return fmt.Errorf("saving cart slot %q: %w", key, err)
	}
	return nil
}
