package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims
	Name   string   `json:"name,omitempty"`
	Scopes []string `json:"scopes,omitempty"`
}

// JWTAuthenticator validates HS256 bearer tokens signed with a shared secret.
type JWTAuthenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTAuthenticator creates a JWTAuthenticator. An empty secret is
// rejected.
func NewJWTAuthenticator(secret []byte) (*JWTAuthenticator, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}
	return &JWTAuthenticator{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// Authenticate implements Authenticator.
func (a *JWTAuthenticator) Authenticate(_ context.Context, creds Credentials) (*Identity, error) {
	if creds.Bearer == "" {
		return nil, ErrNoCredentials
	}

	claims := &Claims{}
	token, err := a.parser.ParseWithClaims(creds.Bearer, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}
	if claims.Subject == "" {
		return nil, ErrUnauthenticated
	}

	return &Identity{
		UserID: claims.Subject,
		Name:   claims.Name,
		Scopes: claims.Scopes,
		Method: MethodJWT,
	}, nil
}

// Issue signs a token for subject valid for ttl, granting scopes. It is used
// by tooling and tests; production tokens come from the identity provider.
func (a *JWTAuthenticator) Issue(subject, name string, ttl time.Duration, scopes ...string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:   name,
		Scopes: scopes,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return s, nil
}

var (
	_ Authenticator = (*JWTAuthenticator)(nil)
	_ Authenticator = (*APIKeyAuthenticator)(nil)
	_ Authenticator = Chain(nil)
)
