package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// --- Mock implementations ---

type failingStore struct {
	loadErr error
	saveErr error
	saves   int
}

func (s *failingStore) Load(_ context.Context, _ string) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return nil, ErrSlotEmpty
}

func (s *failingStore) Save(_ context.Context, _ string, _ []byte) error {
	s.saves++
	return s.saveErr
}

// --- Helpers ---

func newTestManager(t *testing.T, store Store) *Manager {
	t.Helper()
	m, err := NewManager(store, ManagerConfig{})
	require.NoError(t, err)
	return m
}

func openSession(t *testing.T, m *Manager, id string) *Session {
	t.Helper()
	s, err := m.Session(context.Background(), id)
	require.NoError(t, err)
	return s
}

// --- Tests ---

func TestSession_AddLineTwiceMerges(t *testing.T) {
	ctx := context.Background()
	s := openSession(t, newTestManager(t, NewMemoryStore()), "c1")
	p1 := newTestProduct("p1", "Zulu Shirt", "100")

	require.NoError(t, s.AddLine(ctx, p1, 2, "M", ""))
	require.NoError(t, s.AddLine(ctx, p1, 3, "M", ""))

	c := s.Snapshot()
	require.Equal(t, 1, c.Len())
	assert.Equal(t, 5, c.TotalItems())
	assert.True(t, d("500").Equal(c.TotalPrice()))
}

func TestSession_AddLineRejectsInvalidQuantity(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{}
	s := openSession(t, newTestManager(t, store), "c1")

	for _, q := range []int{0, -1} {
		err := s.AddLine(ctx, newTestProduct("p1", "Zulu Shirt", "100"), q, "M", "")

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "quantity", vErr.Field)
	}
	assert.True(t, s.Snapshot().IsEmpty())
	assert.Zero(t, store.saves, "rejected calls must not persist")
}

func TestSession_SetQuantity(t *testing.T) {
	ctx := context.Background()
	s := openSession(t, newTestManager(t, NewMemoryStore()), "c1")
	p1 := newTestProduct("p1", "Zulu Shirt", "100")
	require.NoError(t, s.AddLine(ctx, p1, 1, "M", "Red"))

	s.SetQuantity(ctx, "p1", "M", 4, "Red")
	assert.Equal(t, 4, s.Snapshot().TotalItems())

	// Wrong color: different key, nothing happens.
	s.SetQuantity(ctx, "p1", "M", 9, "")
	assert.Equal(t, 4, s.Snapshot().TotalItems())
	assert.Equal(t, 1, s.Snapshot().Len())
}

func TestSession_SetQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()
	s := openSession(t, newTestManager(t, NewMemoryStore()), "c1")
	require.NoError(t, s.AddLine(ctx, newTestProduct("p1", "Zulu Shirt", "100"), 1, "M", ""))

	s.SetQuantity(ctx, "p1", "M", 0, "")

	assert.True(t, s.Snapshot().IsEmpty())
}

func TestSession_RemoveLineTwice(t *testing.T) {
	ctx := context.Background()
	s := openSession(t, newTestManager(t, NewMemoryStore()), "c1")
	require.NoError(t, s.AddLine(ctx, newTestProduct("p1", "Zulu Shirt", "100"), 1, "M", ""))
	require.NoError(t, s.AddLine(ctx, newTestProduct("p2", "Beaded Cap", "30"), 2, "", ""))

	s.RemoveLine(ctx, "p1", "M", "")
	once := s.Snapshot()
	s.RemoveLine(ctx, "p1", "M", "")

	assertCartsEqual(t, once, s.Snapshot())
}

func TestSession_Clear(t *testing.T) {
	ctx := context.Background()
	s := openSession(t, newTestManager(t, NewMemoryStore()), "c1")
	require.NoError(t, s.AddLine(ctx, newTestProduct("p1", "Zulu Shirt", "100"), 3, "M", ""))

	s.Clear(ctx)

	c := s.Snapshot()
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.TotalItems())
	assert.True(t, c.TotalPrice().IsZero())
}

func TestSession_Events(t *testing.T) {
	s := openSession(t, newTestManager(t, NewMemoryStore()), "c1")
	rec := &Recorder{}
	ctx := WithRecorder(context.Background(), rec)

	require.NoError(t, s.AddLine(ctx, newTestProduct("p1", "Zulu Shirt", "100"), 2, "M", "Red"))
	require.NoError(t, s.AddLine(ctx, newTestProduct("p2", "Beaded Cap", "30"), 1, "", ""))
	s.SetQuantity(ctx, "p1", "M", 5, "Red")
	s.RemoveLine(ctx, "p2", "", "")
	s.RemoveLine(ctx, "p2", "", "")
	s.Clear(ctx)

	assert.Equal(t, []Event{
		{Level: LevelSuccess, Message: "Added 2 × Zulu Shirt to cart (size M, color Red)"},
		{Level: LevelSuccess, Message: "Added 1 × Beaded Cap to cart"},
		{Level: LevelInfo, Message: "Removed Beaded Cap from cart"},
		{Level: LevelInfo, Message: "Cart cleared"},
	}, rec.Events())
}

func TestSession_PersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := openSession(t, newTestManager(t, store), "c1")

	require.NoError(t, s.AddLine(ctx, newTestProduct("p1", "Zulu Shirt", "100"), 2, "M", ""))
	require.NoError(t, s.AddLine(ctx, newTestProduct("p2", "Beaded Cap", "30"), 1, "", "Red"))

	doc, err := store.Load(ctx, SlotKey("c1"))
	require.NoError(t, err)
	saved, err := Decode(doc)
	require.NoError(t, err)
	assertCartsEqual(t, s.Snapshot(), saved)

	s.SetQuantity(ctx, "p1", "M", 7, "")
	doc, err = store.Load(ctx, SlotKey("c1"))
	require.NoError(t, err)
	saved, err = Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, 8, saved.TotalItems())
}

func TestSession_SaveFailureKeepsMutation(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := &failingStore{saveErr: errors.New("disk full")}
	m, err := NewManager(store, ManagerConfig{Logger: zap.New(core)})
	require.NoError(t, err)
	s := openSession(t, m, "c1")

	err = s.AddLine(context.Background(), newTestProduct("p1", "Zulu Shirt", "100"), 1, "M", "")

	require.NoError(t, err)
	assert.Equal(t, 1, s.Snapshot().TotalItems())
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, logs.FilterMessage("Persist cart").Len())
}

func TestManager_HydratesSavedCart(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := openSession(t, newTestManager(t, store), "c1")
	require.NoError(t, first.AddLine(ctx, newTestProduct("p1", "Zulu Shirt", "100"), 2, "M", ""))
	require.NoError(t, first.AddLine(ctx, newTestProduct("p2", "Beaded Cap", "30"), 1, "", ""))

	// A fresh manager models a process restart.
	reloaded := openSession(t, newTestManager(t, store), "c1")
	assertCartsEqual(t, first.Snapshot(), reloaded.Snapshot())
}

func TestManager_CorruptSlotYieldsEmptyCart(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s := openSession(t, newTestManager(t, store), "c1")
	require.NoError(t, s.AddLine(ctx, newTestProduct("p1", "Zulu Shirt", "100"), 1, "M", ""))
	require.NoError(t, s.AddLine(ctx, newTestProduct("p2", "Beaded Cap", "30"), 1, "", ""))
	require.NoError(t, store.Save(ctx, SlotKey("c1"), []byte(`{"items":[{"productId":`)))

	core, logs := observer.New(zap.WarnLevel)
	m, err := NewManager(store, ManagerConfig{Logger: zap.New(core)})
	require.NoError(t, err)

	reloaded, err := m.Session(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, reloaded.Snapshot().IsEmpty())
	assert.Equal(t, 1, logs.FilterMessage("Discarding unreadable cart document").Len())
}

func TestManager_LoadFailureIsReported(t *testing.T) {
	m := newTestManager(t, &failingStore{loadErr: errors.New("connection refused")})

	_, err := m.Session(context.Background(), "c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load cart")
	assert.NotErrorIs(t, err, ErrCorruptDocument)
}

func TestManager_SameSessionPerID(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())

	a := openSession(t, m, "c1")
	b := openSession(t, m, "c1")
	other := openSession(t, m, "c2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
	assert.Equal(t, "cart:c1", a.Key())
	assert.Equal(t, DefaultKey, openSession(t, m, "").Key())
}

func TestManager_SweepAndRehydrate(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, NewMemoryStore())
	s := openSession(t, m, "c1")
	require.NoError(t, s.AddLine(ctx, newTestProduct("p1", "Zulu Shirt", "100"), 2, "M", ""))

	assert.Zero(t, m.Sweep(time.Now(), time.Hour))
	assert.Equal(t, 1, m.Sweep(time.Now().Add(2*time.Hour), time.Hour))

	again := openSession(t, m, "c1")
	assert.NotSame(t, s, again)
	assert.Equal(t, 2, again.Snapshot().TotalItems())
}

func TestManager_SweptHandleFollowsLiveSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := newTestManager(t, store)

	held := openSession(t, m, "c1")
	require.Equal(t, 1, m.Sweep(time.Now().Add(time.Hour), time.Minute))
	fresh := openSession(t, m, "c1")

	require.NoError(t, held.AddLine(ctx, newTestProduct("p1", "Zulu Shirt", "100"), 1, "M", ""))
	require.NoError(t, fresh.AddLine(ctx, newTestProduct("p2", "Beaded Cap", "30"), 1, "", ""))

	assert.Equal(t, 2, held.Snapshot().Len())
	reloaded := openSession(t, newTestManager(t, store), "c1")
	assert.Equal(t, 2, reloaded.Snapshot().Len())
}

func TestManager_SweptHandleIsAdoptedBack(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, NewMemoryStore())

	held := openSession(t, m, "c1")
	require.NoError(t, held.AddLine(ctx, newTestProduct("p1", "Zulu Shirt", "100"), 1, "M", ""))
	m.Forget("c1")

	require.NoError(t, held.AddLine(ctx, newTestProduct("p1", "Zulu Shirt", "100"), 1, "M", ""))

	assert.Same(t, held, openSession(t, m, "c1"))
	assert.Equal(t, 2, held.Snapshot().TotalItems())
}

func TestManager_SessionHitRefreshesIdleClock(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	s := openSession(t, m, "c1")

	s.mu.Lock()
	s.lastUsed = time.Now().Add(-time.Hour)
	s.mu.Unlock()
	openSession(t, m, "c1")

	assert.Zero(t, m.Sweep(time.Now(), time.Minute))
}

func TestSession_Checkout(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := openSession(t, newTestManager(t, store), "c1")
	require.NoError(t, s.AddLine(ctx, newTestProduct("p1", "Zulu Shirt", "100"), 2, "M", ""))

	failed := errors.New("order store down")
	err := s.Checkout(ctx, func(Cart) error { return failed })
	require.ErrorIs(t, err, failed)
	assert.Equal(t, 2, s.Snapshot().TotalItems())

	var placed Cart
	require.NoError(t, s.Checkout(ctx, func(c Cart) error {
		placed = c
		return nil
	}))
	assert.Equal(t, 2, placed.TotalItems())
	assert.True(t, s.Snapshot().IsEmpty())
	reloaded := openSession(t, newTestManager(t, store), "c1")
	assert.True(t, reloaded.Snapshot().IsEmpty())
}

func TestSession_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, NewMemoryStore())
	p := newTestProduct("p1", "Zulu Shirt", "10")

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Session(ctx, "c1")
			if err != nil {
				t.Error(err)
				return
			}
			for range 10 {
				if err := s.AddLine(ctx, p, 1, "M", ""); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()

	c := openSession(t, m, "c1").Snapshot()
	assert.Equal(t, 200, c.TotalItems())
	assert.True(t, d("2000").Equal(c.TotalPrice()))
}
