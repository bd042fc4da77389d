package jwtinfra

import (
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/go-social-auth/internal/config"
	"github.com/go-social-auth/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the JWT payload fields: the subject identity and its expiry.
type Claims struct {
	jwt.RegisteredClaims
}

// Provider signs and verifies JWTs with the algorithm and key fixed at startup.
// It holds no mutable state and is safe for concurrent use.
type Provider struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
	expiry    time.Duration
	now       func() time.Time
}

// Option customises a Provider.
type Option func(*Provider)

// WithClock replaces time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// NewProvider builds a Provider from cfg.JWTAlgorithm and cfg.JWTKey.
// HMAC algorithms use the key bytes as the shared secret; RSA, RSA-PSS, ECDSA and
// EdDSA expect a PEM-encoded private key and verify with its public half.
func NewProvider(cfg *config.Config, opts ...Option) (*Provider, error) {
	method := jwt.GetSigningMethod(cfg.JWTAlgorithm)
	if method == nil {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.JWTAlgorithm)
	}
	if cfg.JWTKey == "" {
		return nil, errors.New("signing key is empty")
	}
	if cfg.JWTExpiry <= 0 {
		return nil, errors.New("credential expiry must be positive")
	}

	signKey, verifyKey, err := parseKeys(method, []byte(cfg.JWTKey))
	if err != nil {
		return nil, err
	}

	p := &Provider{
		method:    method,
		signKey:   signKey,
		verifyKey: verifyKey,
		expiry:    cfg.JWTExpiry,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func parseKeys(method jwt.SigningMethod, key []byte) (sign, verify interface{}, err error) {
	switch method.(type) {
	case *jwt.SigningMethodHMAC:
		return key, key, nil
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		priv, err := jwt.ParseRSAPrivateKeyFromPEM(key)
		if err != nil {
			return nil, nil, fmt.Errorf("parse rsa private key: %w", err)
		}
		return priv, &priv.PublicKey, nil
	case *jwt.SigningMethodECDSA:
		priv, err := jwt.ParseECPrivateKeyFromPEM(key)
		if err != nil {
			return nil, nil, fmt.Errorf("parse ecdsa private key: %w", err)
		}
		return priv, &priv.PublicKey, nil
	case *jwt.SigningMethodEd25519:
		priv, err := jwt.ParseEdPrivateKeyFromPEM(key)
		if err != nil {
			return nil, nil, fmt.Errorf("parse ed25519 private key: %w", err)
		}
		signer, ok := priv.(crypto.Signer)
		if !ok {
			return nil, nil, errors.New("ed25519 key cannot sign")
		}
		return priv, signer.Public(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported signing algorithm %q", method.Alg())
	}
}

// Algorithm returns the configured algorithm name.
func (p *Provider) Algorithm() string { return p.method.Alg() }

// Sign issues a token for subject expiring at now + configured expiry. The exp
// claim has whole-second granularity: the fractional part of now is dropped, so
// a token can expire up to one second before now + expiry.
func (p *Provider) Sign(subject string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(p.now().Add(p.expiry)),
		},
	}
	token := jwt.NewWithClaims(p.method, claims)
	return token.SignedString(p.signKey)
}

// Verify checks signature, algorithm and expiry. Every failure wraps
// domain.ErrInvalidCredential.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return p.verifyKey, nil
	},
		jwt.WithValidMethods([]string{p.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", domain.ErrInvalidCredential)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredential, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", domain.ErrInvalidCredential)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidCredential)
	}
	return claims, nil
}
