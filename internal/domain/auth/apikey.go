package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	// OwnerID is the user the key acts as.
	OwnerID string
	Scopes  []string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// HashAPIKey returns the hex HMAC-SHA256 of key under pepper, the form API
// keys are stored in.
func HashAPIKey(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// APIKeyAuthenticator authenticates requests carrying an X-API-Key header.
type APIKeyAuthenticator struct {
	apikeys Repository
	pepper  []byte
}

// NewAPIKeyAuthenticator creates an APIKeyAuthenticator with the given API key
// repository and HMAC pepper.
func NewAPIKeyAuthenticator(apikeys Repository, pepper []byte) *APIKeyAuthenticator {
	return &APIKeyAuthenticator{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Authenticate looks up the HMAC of the provided key and compares it with the
// stored hash in constant time.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	if creds.APIKey == "" {
		return nil, ErrNoCredentials
	}

	mac := hmac.New(sha256.New, a.pepper)
	mac.Write([]byte(creds.APIKey))
	hash := mac.Sum(nil)

	info, err := a.apikeys.FindByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		return nil, ErrUnauthenticated
	}

	// The repository may return a row that does not match exactly.
	storedBytes, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if subtle.ConstantTimeCompare(hash, storedBytes) != 1 {
		return nil, ErrUnauthenticated
	}
	if info.OwnerID == "" {
		return nil, ErrUnauthenticated
	}

	return &Identity{
		UserID: info.OwnerID,
		Name:   info.Name,
		Scopes: info.Scopes,
		Method: MethodAPIKey,
	}, nil
}
