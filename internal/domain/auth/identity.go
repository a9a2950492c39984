// Package auth resolves the current user from request credentials. Callers
// only ask whether a user is present and who it is.
package auth

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
)

var (
	// ErrNoCredentials means the request carried nothing an authenticator
	// understands.
	ErrNoCredentials = errors.New("no credentials")
	// ErrUnauthenticated means credentials were present but rejected.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrMissingScope means the identity is known but was not granted the
	// scope an operation needs.
	ErrMissingScope = errors.New("missing scope")
)

// ScopeCatalogWrite allows creating, updating and deleting products.
const ScopeCatalogWrite = "catalog:write"


// Method names the mechanism that authenticated an identity.
type Method string

const (
	MethodJWT    Method = "jwt"
	MethodAPIKey Method = "api_key"
)

// Identity is an authenticated user.
type Identity struct {
	UserID string
	Name   string
	Scopes []string
	Method Method
}

// HasScope reports whether the identity was granted scope. An identity
// without scopes is unrestricted.
func (i *Identity) HasScope(scope string) bool {
	return len(i.Scopes) == 0 || slices.Contains(i.Scopes, scope)
}

// Credentials are the raw secrets extracted from a request.
type Credentials struct {
	Bearer string
	APIKey string
}

// Authenticator turns credentials into an identity. It returns
// ErrNoCredentials when creds carry nothing it handles.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (*Identity, error)
}

// Chain tries each authenticator in order until one recognises the
// credentials.
type Chain []Authenticator

// Authenticate implements Authenticator.
func (c Chain) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	for _, a := range c {
		id, err := a.Authenticate(ctx, creds)
		if errors.Is(err, ErrNoCredentials) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return id, nil
	}
	return nil, ErrNoCredentials
}

type identityKey struct{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity attached to ctx, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
