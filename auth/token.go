package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sagarc03/storefront"
)

// Claims are the fields carried by an admin token.
type Claims struct {
	AdminID   uuid.UUID
	Email     string
	Role      storefront.Role
	ExpiresAt time.Time
}

// TokenManager issues and parses HS256 admin tokens. It implements
// storefront.TokenIssuer.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager. ttl defaults to 7 days.
func NewTokenManager(secret, issuer string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < 16 {
		return nil, errors.New("new token manager: secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

func (m *TokenManager) Issue(a storefront.Admin) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"sub":   a.ID.String(),
		"email": a.Email,
		"role":  string(a.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(m.ttl).Unix(),
		"iss":   m.issuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates signature, expiry and issuer. Every failure wraps
// storefront.ErrUnauthorized.
func (m *TokenManager) Parse(token string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w: %w", storefront.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Claims{}, fmt.Errorf("parse token: %w: invalid claims", storefront.ErrUnauthorized)
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w: invalid subject", storefront.ErrUnauthorized)
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, fmt.Errorf("parse token: %w: invalid expiry", storefront.ErrUnauthorized)
	}

	return Claims{AdminID: id, Email: email, Role: storefront.Role(role), ExpiresAt: exp.Time}, nil
}
