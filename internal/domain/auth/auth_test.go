package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockAPIKeyRepo struct {
	keys map[string]*APIKeyInfo
}

func (m *mockAPIKeyRepo) FindByHash(_ context.Context, hash string) (*APIKeyInfo, error) {
	info, ok := m.keys[hash]
	if !ok {
		return nil, ErrUnauthenticated
	}
	return info, nil
}

var testPepper = []byte("pepper")

func newAPIKeyRepo(key, owner string) *mockAPIKeyRepo {
	hash := HashAPIKey(testPepper, key)
	return &mockAPIKeyRepo{keys: map[string]*APIKeyInfo{
		hash: {ID: "k1", KeyHash: hash, Name: "seed", OwnerID: owner, Scopes: []string{"catalog:write"}},
	}}
}

// --- Tests ---

func TestAPIKeyAuthenticator(t *testing.T) {
	a := NewAPIKeyAuthenticator(newAPIKeyRepo("secret-key", "admin"), testPepper)

	id, err := a.Authenticate(context.Background(), Credentials{APIKey: "secret-key"})
	require.NoError(t, err)
	assert.Equal(t, "admin", id.UserID)
	assert.Equal(t, MethodAPIKey, id.Method)
	assert.True(t, id.HasScope("catalog:write"))
	assert.False(t, id.HasScope("directory:admin"))

	_, err = a.Authenticate(context.Background(), Credentials{APIKey: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = a.Authenticate(context.Background(), Credentials{})
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestAPIKeyAuthenticator_MismatchedRow(t *testing.T) {
	hash := HashAPIKey(testPepper, "secret-key")
	repo := &mockAPIKeyRepo{keys: map[string]*APIKeyInfo{
		hash: {ID: "k1", KeyHash: HashAPIKey(testPepper, "other"), OwnerID: "admin"},
	}}
	a := NewAPIKeyAuthenticator(repo, testPepper)

	_, err := a.Authenticate(context.Background(), Credentials{APIKey: "secret-key"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestHashAPIKey_DependsOnPepper(t *testing.T) {
	assert.Equal(t, HashAPIKey(testPepper, "k"), HashAPIKey(testPepper, "k"))
	assert.NotEqual(t, HashAPIKey(testPepper, "k"), HashAPIKey([]byte("other"), "k"))
	assert.Len(t, HashAPIKey(testPepper, "k"), 64)
}

func TestJWTAuthenticator(t *testing.T) {
	a, err := NewJWTAuthenticator([]byte("jwt-secret"))
	require.NoError(t, err)

	token, err := a.Issue("user-42", "Thandi", time.Hour, ScopeCatalogWrite)
	require.NoError(t, err)

	id, err := a.Authenticate(context.Background(), Credentials{Bearer: token})
	require.NoError(t, err)
	assert.Equal(t, "user-42", id.UserID)
	assert.Equal(t, "Thandi", id.Name)
	assert.Equal(t, MethodJWT, id.Method)
	assert.Equal(t, []string{ScopeCatalogWrite}, id.Scopes)
}

func TestJWTAuthenticator_Rejects(t *testing.T) {
	a, err := NewJWTAuthenticator([]byte("jwt-secret"))
	require.NoError(t, err)
	other, err := NewJWTAuthenticator([]byte("other-secret"))
	require.NoError(t, err)

	expired, err := a.Issue("user-42", "", -time.Minute)
	require.NoError(t, err)
	foreign, err := other.Issue("user-42", "", time.Hour)
	require.NoError(t, err)
	noSubject, err := a.Issue("", "", time.Hour)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-42"}).
		SignedString([]byte("jwt-secret"))
	require.NoError(t, err)
	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("jwt-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: expired},
		{name: "wrong secret", token: foreign},
		{name: "missing subject", token: noSubject},
		{name: "missing expiry", token: noExpiry},
		{name: "wrong algorithm", token: wrongAlg},
		{name: "garbage", token: "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Authenticate(context.Background(), Credentials{Bearer: tt.token})
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}

	_, err = NewJWTAuthenticator(nil)
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	jwtAuth, err := NewJWTAuthenticator([]byte("jwt-secret"))
	require.NoError(t, err)
	chain := Chain{jwtAuth, NewAPIKeyAuthenticator(newAPIKeyRepo("secret-key", "admin"), testPepper)}
	token, err := jwtAuth.Issue("user-42", "", time.Hour)
	require.NoError(t, err)

	id, err := chain.Authenticate(context.Background(), Credentials{APIKey: "secret-key"})
	require.NoError(t, err)
	assert.Equal(t, "admin", id.UserID)

	id, err = chain.Authenticate(context.Background(), Credentials{Bearer: token, APIKey: "secret-key"})
	require.NoError(t, err)
	assert.Equal(t, "user-42", id.UserID, "first matching authenticator wins")

	_, err = chain.Authenticate(context.Background(), Credentials{Bearer: "bad"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = chain.Authenticate(context.Background(), Credentials{})
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), &Identity{UserID: "u1"})
	id, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", id.UserID)

	_, ok = FromContext(WithIdentity(context.Background(), nil))
	assert.False(t, ok)
}
