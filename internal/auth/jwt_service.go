package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	apperrors "catalog/internal/errors"
)

const (
	// DefaultAccessTokenExpiry is the duration for which access tokens are valid.
	DefaultAccessTokenExpiry = 60 * time.Minute
	// DefaultRefreshTokenExpiry is the duration for which refresh tokens are valid.
	DefaultRefreshTokenExpiry = 1440 * time.Minute
)

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims represents JWT claims.
type Claims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token plus the metadata the token store needs.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTService creates a new JWT service with the given secret and lifetimes.
// Non-positive lifetimes fall back to the defaults.
func NewJWTService(secret string, accessTTL, refreshTTL time.Duration) *JWTService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenExpiry
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenExpiry
	}
	return &JWTService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// AccessTTL returns the access token lifetime.
func (s *JWTService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (s *JWTService) RefreshTTL() time.Duration { return s.refreshTTL }

// GenerateAccessToken generates a new access token for the user.
func (s *JWTService) GenerateAccessToken(userID uint, username string) (*IssuedToken, error) {
	return s.generate(userID, username, TokenTypeAccess, s.accessTTL)
}

// GenerateRefreshToken generates a new refresh token for the user.
// The token ID is returned separately for storage.
func (s *JWTService) GenerateRefreshToken(userID uint, username string) (*IssuedToken, error) {
	return s.generate(userID, username, TokenTypeRefresh, s.refreshTTL)
}

func (s *JWTService) generate(userID uint, username, tokenType string, ttl time.Duration) (*IssuedToken, error) {
	now := s.now()
	tokenID := generateTokenID()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID:    userID,
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return &IssuedToken{Token: signed, ID: tokenID, ExpiresAt: expiresAt}, nil
}

// ValidateToken validates a JWT token of the expected type and returns the claims.
// Every failure wraps errors.ErrTokenInvalid.
func (s *JWTService) ValidateToken(tokenString, tokenType string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", apperrors.ErrTokenInvalid)
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", apperrors.ErrTokenInvalid)
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("%w: expected %s token", apperrors.ErrTokenInvalid, tokenType)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: token ID not found", apperrors.ErrTokenInvalid)
	}
	return claims, nil
}

// generateTokenID generates a unique token ID (jti).
func generateTokenID() string {
	return uuid.New().String()
}
