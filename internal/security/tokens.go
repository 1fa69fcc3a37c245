package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, carries an
	// unexpected algorithm, or fails signature verification.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the payload of both token kinds. Access tokens carry sub and role,
// refresh tokens carry jti; both carry iat and exp. Unset fields are omitted
// from the encoded payload.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// TokenProvider issues and decodes HS256 access and refresh tokens signed with
// a shared secret. It holds no mutable state and is safe for concurrent use.
type TokenProvider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
}

// NewTokenProvider returns a TokenProvider signing with secret. Expiry is not
// enforced by Decode; callers check it with IsLive.
func NewTokenProvider(secret []byte, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// AccessTTL returns the access token lifetime.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// IssueAccess issues an access token for accountID with the given role,
// issued at now. Returns the token string and its expiration time.
func (p *TokenProvider) IssueAccess(accountID, role string, now time.Time) (token string, expiresAt time.Time, err error) {
	expiresAt = now.Add(p.accessTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	}
	token, err = p.sign(claims)
	return token, expiresAt, err
}

// IssueRefresh issues a refresh token with a fresh random jti. The jti is
// returned so the caller can persist the record without decoding the token.
func (p *TokenProvider) IssueRefresh(now time.Time) (token, jti string, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	expiresAt = now.Add(p.refreshTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err = p.sign(claims)
	return token, jti, expiresAt, err
}

func (p *TokenProvider) sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(p.secret)
}

// Decode verifies the signature and structure of tokenString and returns its
// claims. Expired tokens decode successfully. Every failure is reported as
// ErrInvalidToken.
func (p *TokenProvider) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := p.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsLive reports whether claims carry an expiry that is still in the future
// at now. Claims without exp are never live.
func (p *TokenProvider) IsLive(claims *Claims, now time.Time) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return false
	}
	return now.Before(claims.ExpiresAt.Time)
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
