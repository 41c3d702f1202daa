package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// JWTManager issues and validates tenant access tokens.
type JWTManager struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

// NewJWTManager creates a new JWT manager.
// secret must be at least 32 characters for HS256 security.
func NewJWTManager(secret string, issuer string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

// accessClaims extends standard JWT claims with the caller's role.
type accessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// GenerateAccessToken creates a signed HS256 JWT with the tenant ID as
// subject and role as a custom claim. ttl overrides the default lifetime
// when positive.
func (m *JWTManager) GenerateAccessToken(tenantID string, role domain.Role, ttl time.Duration) (string, error) {
	if !domain.IsSlug(tenantID) {
		return "", fmt.Errorf("invalid tenant id %q", tenantID)
	}
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role %q", role)
	}
	if ttl <= 0 {
		ttl = m.accessTTL
	}

	now := m.now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tenantID,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: role.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ValidateAccessToken parses and validates a JWT access token.
// Returns the tenant ID and role if valid.
func (m *JWTManager) ValidateAccessToken(tokenString string) (string, domain.Role, error) {
	if tokenString == "" {
		return "", "", errors.New("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		return "", "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid token claims")
	}

	if claims.Issuer != m.issuer {
		return "", "", fmt.Errorf("invalid issuer: expected %s, got %s", m.issuer, claims.Issuer)
	}

	if !domain.IsSlug(claims.Subject) {
		return "", "", fmt.Errorf("invalid subject %q", claims.Subject)
	}

	role := domain.Role(claims.Role)
	if role == "" {
		role = domain.RoleTenant
	}
	if !role.IsValid() {
		return "", "", fmt.Errorf("invalid role %q", claims.Role)
	}

	return claims.Subject, role, nil
}

// ValidateToken adapts ValidateAccessToken to the HTTP auth middleware.
func (m *JWTManager) ValidateToken(_ context.Context, token string) (string, domain.Role, error) {
	return m.ValidateAccessToken(token)
}
