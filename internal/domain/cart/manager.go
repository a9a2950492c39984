package cart

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	// KeyPrefix is prepended to a cart id to form its slot key.
	KeyPrefix = "cart:"
	// DefaultKey is the slot used for a cart without an id.
	DefaultKey = "amatyma-cart"
)

// SlotKey returns the slot key for the cart with the given id.
func SlotKey(id string) string {
	if id == "" {
		return DefaultKey
	}
	return KeyPrefix + id
}

// ManagerConfig holds non-dependency configuration for the Manager.
type ManagerConfig struct {
	Logger        *zap.Logger
	Notifier      Notifier
	MeterProvider metric.MeterProvider
}

// Manager owns the cart sessions of the process. Sessions are hydrated from
// the slot store on first use and kept in memory until swept.
//
// Two processes sharing a store each hold their own session for a key; the
// slot then reflects whichever wrote last.
type Manager struct {
	store   Store
	notify  Notifier
	lg      *zap.Logger
	metrics *metrics

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager persisting carts into store.
func NewManager(store Store, cfg ManagerConfig) (*Manager, error) {
	m, err := newMetrics(cfg.MeterProvider)
	if err != nil {
		return nil, errors.Wrap(err, "cart metrics")
	}
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Manager{
		store:    store,
		notify:   cfg.Notifier,
		lg:       lg,
		metrics:  m,
		sessions: make(map[string]*Session),
	}, nil
}

// Session returns the live session for the cart id, hydrating it from the
// store when it is not loaded yet. A missing or unreadable document yields an
// empty cart; only a failing store is reported as an error.
func (m *Manager) Session(ctx context.Context, id string) (*Session, error) {
	key := SlotKey(id)

	m.mu.Lock()
	s, ok := m.sessions[key]
	if ok {
		s.touch()
	}
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	c, err := m.hydrate(ctx, key)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		// Another request hydrated the same key first.
		return s, nil
	}
	s = &Session{
		key:      key,
		owner:    m,
		store:    m.store,
		notify:   m.notify,
		lg:       m.lg,
		metrics:  m.metrics,
		cart:     c,
		lastUsed: time.Now(),
	}
	m.sessions[key] = s
	return s, nil
}

func (m *Manager) hydrate(ctx context.Context, key string) (Cart, error) {
	doc, err := m.store.Load(ctx, key)
	switch {
	case errors.Is(err, ErrSlotEmpty):
		return Cart{}, nil
	case err != nil:
		return Cart{}, errors.Wrapf(err, "load cart %q", key)
	}

	c, err := Decode(doc)
	if err != nil {
		m.metrics.corrupt.Add(ctx, 1)
		m.lg.Warn("Discarding unreadable cart document",
			zap.String("key", key),
			zap.Int("bytes", len(doc)),
			zap.Error(err),
		)
		return Cart{}, nil
	}
	return c, nil
}

// adopt returns the live session for the key of a retired session. When
// nothing replaced it yet, the retired session is put back in place: its cart
// is the last state this process wrote, so no reload is needed.
func (m *Manager) adopt(s *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if live, ok := m.sessions[s.key]; ok {
		return live
	}
	s.mu.Lock()
	s.retired = false
	s.lastUsed = time.Now()
	s.mu.Unlock()
	m.sessions[s.key] = s
	return s
}

// Forget drops the in-memory session for the cart id. The persisted
// document is kept, so the next Session call hydrates it again.
func (m *Manager) Forget(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := SlotKey(id)
	if s, ok := m.sessions[key]; ok {
		s.retire()
		delete(m.sessions, key)
	}
}

// Sweep forgets every session unused for longer than idle and returns the
// number of sessions dropped. Handles still held by callers keep working.
func (m *Manager) Sweep(now time.Time, idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for key, s := range m.sessions {
		if s.retireIfIdle(now, idle) {
			delete(m.sessions, key)
			dropped++
		}
	}
	return dropped
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (m *Manager) StartSweeper(ctx context.Context, interval, idle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := m.Sweep(now, idle); n > 0 {
					m.lg.Debug("Swept idle cart sessions", zap.Int("count", n))
				}
			}
		}
	}()
}
