package directory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultFetchTimeout = 10 * time.Second

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// FetchTimeout bounds a single list fetch from the repository.
	FetchTimeout time.Duration
	Logger       *zap.Logger
	// Now is used for record timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Service serves the business directory from a cached copy of the remote
// list. The cache is replaced only by Refresh and patched by local writes.
type Service struct {
	repo    Repository
	timeout time.Duration
	lg      *zap.Logger
	now     func() time.Time

	fetches singleflight.Group

	mu     sync.RWMutex
	list   []Business
	loaded bool
}

// NewService creates a directory Service backed by repo.
func NewService(repo Repository, cfg ServiceConfig) *Service {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		repo:    repo,
		timeout: cfg.FetchTimeout,
		lg:      cfg.Logger,
		now:     cfg.Now,
	}
}

// Search filters the cached list by c, loading it on first use. When the
// load fails but an older list is cached, the stale result is returned
// together with an error wrapping ErrRemoteFailure.
func (s *Service) Search(ctx context.Context, c Criteria) ([]Business, error) {
	list, ok := s.cached()
	if ok {
		return Apply(list, c), nil
	}
	if err := s.Refresh(ctx); err != nil {
		if list, ok := s.cached(); ok {
			return Apply(list, c), err
		}
		return nil, err
	}
	list, _ = s.cached()
	return Apply(list, c), nil
}

// Refresh refetches the full list. Concurrent calls share one fetch. On
// failure the previously cached list is kept.
func (s *Service) Refresh(ctx context.Context) error {
	ch := s.fetches.DoChan("list", func() (any, error) {
		// Detached from the first caller so its cancellation does not fail
		// the callers sharing this fetch.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		list, err := s.repo.List(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.list = list
		s.loaded = true
		s.mu.Unlock()
		return nil, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			s.lg.Warn("Refresh business directory", zap.Error(res.Err))
			return remoteFailure("list businesses", res.Err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get returns the business with the given id.
func (s *Service) Get(ctx context.Context, id string) (*Business, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, remoteFailure("get business", err)
	}
	return b, nil
}

// Create validates b and stores it as a new listing owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, b Business) (*Business, error) {
	if ownerID == "" {
		return nil, ErrForbidden
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	b.ID = uuid.NewString()
	b.OwnerID = ownerID
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := s.repo.Create(ctx, &b); err != nil {
		return nil, remoteFailure("create business", err)
	}
	s.patch(b)
	return &b, nil
}

// Update replaces the editable fields of an existing listing. Only the owner
// may update it.
func (s *Service) Update(ctx context.Context, ownerID string, b Business) (*Business, error) {
	existing, err := s.Get(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if ownerID == "" || existing.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	b.OwnerID = existing.OwnerID
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, &b); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, remoteFailure("update business", err)
	}
	s.patch(b)
	return &b, nil
}

func (s *Service) cached() ([]Business, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list, s.loaded
}

// patch applies a local write to the cached list without a refetch.
func (s *Service) patch(b Business) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return
	}
	list := slices.Clone(s.list)
	if i := slices.IndexFunc(list, func(x Business) bool { return x.ID == b.ID }); i >= 0 {
		list[i] = b.Clone()
	} else {
		list = append(list, b.Clone())
	}
	s.list = list
}

func remoteFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrRemoteFailure, err)
}
