// Package googleauth verifies Google Sign-In ID tokens.
package googleauth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// CertsURL publishes the keys Google signs ID tokens with
const CertsURL = "https://www.googleapis.com/oauth2/v3/certs"

var validIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

var ErrInvalidToken = errors.New("googleauth: invalid id token")

// Identity is what a verified ID token says about the signed in user
type Identity struct {
	GoogleID      string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type Verifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

// KeySource returns the RSA public keys currently valid for signing, by key id
type KeySource interface {
	Keys(ctx context.Context) (map[string]*rsa.PublicKey, error)
}

type claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// TokenVerifier checks the signature, audience, issuer and expiry of ID tokens
type TokenVerifier struct {
	clientID string
	keys     KeySource
	now      func() time.Time
}

var _ Verifier = (*TokenVerifier)(nil)

func NewTokenVerifier(clientID string, keys KeySource) *TokenVerifier {
	return &TokenVerifier{clientID: clientID, keys: keys, now: time.Now}
}

// WithClock replaces the time source used for expiry checks
func (v *TokenVerifier) WithClock(now func() time.Time) *TokenVerifier {
	v.now = now
	return v
}

func (v *TokenVerifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	if v.clientID == "" {
		return nil, errors.New("googleauth: client id is not configured")
	}

	keys, err := v.keys.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("googleauth: load signing keys: %w", err)
	}

	var c claims
	_, err = jwt.ParseWithClaims(credential, &c, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown signing key %q", kid)
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !validIssuers[c.Issuer] {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, c.Issuer)
	}
	if c.Subject == "" || c.Email == "" {
		return nil, fmt.Errorf("%w: missing subject or email", ErrInvalidToken)
	}

	return &Identity{
		GoogleID:      c.Subject,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		Name:          c.Name,
		Picture:       c.Picture,
	}, nil
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// ParseJWKS decodes the RSA keys of a JSON Web Key Set
func ParseJWKS(body []byte) (map[string]*rsa.PublicKey, error) {
	var set jwks
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" {
			continue
		}
		n, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return nil, fmt.Errorf("decode modulus of %q: %w", k.Kid, err)
		}
		e, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return nil, fmt.Errorf("decode exponent of %q: %w", k.Kid, err)
		}
		keys[k.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		}
	}

	if len(keys) == 0 {
		return nil, errors.New("jwks contains no RSA keys")
	}
	return keys, nil
}

// RemoteKeys downloads the key set from a JWKS endpoint on every call
type RemoteKeys struct {
	URL     string
	Timeout time.Duration
}

func (r RemoteKeys) Keys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agent := fiber.Get(r.URL)
	if r.Timeout > 0 {
		agent.Timeout(r.Timeout)
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("fetch %s: %w", r.URL, errors.Join(errs...))
	}
	if status != fiber.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", r.URL, status)
	}
	return ParseJWKS(body)
}

// StaticKeys serves a fixed key set
type StaticKeys map[string]*rsa.PublicKey

func (s StaticKeys) Keys(context.Context) (map[string]*rsa.PublicKey, error) {
	return s, nil
}
