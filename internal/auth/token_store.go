package auth

import (
	"context"
	"fmt"
	"time"

	"catalog/internal/cache"
	apperrors "catalog/internal/errors"
	"catalog/internal/logging"
	"catalog/internal/model"
	"catalog/internal/repository"
)

const accessTokenKeyPrefix = "blacklist:access_token:"

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, token *IssuedToken, userID uint) error
	RotateRefreshToken(ctx context.Context, oldTokenID string, userID uint, next *IssuedToken) error
	RevokeRefreshToken(ctx context.Context, tokenID string) error
	BlacklistAccessToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore keeps refresh tokens in the database and mirrors revoked access
// tokens in Redis so most lookups never reach the database.
type TokenStore struct {
	repo  repository.TokenRepository
	cache *cache.Client
	now   func() time.Time
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store. cache may be nil.
func NewTokenStore(repo repository.TokenRepository, cache *cache.Client) *TokenStore {
	return &TokenStore{
		repo:  repo,
		cache: cache,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// StoreRefreshToken records a newly issued refresh token.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, token *IssuedToken, userID uint) error {
	row := &model.RefreshToken{JTI: token.ID, UserID: userID, ExpiresAt: token.ExpiresAt.UTC()}
	if err := s.repo.CreateRefreshToken(ctx, row); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// RotateRefreshToken revokes oldTokenID and stores next atomically.
// A token that was already rotated or revoked yields errors.ErrTokenRevoked.
func (s *TokenStore) RotateRefreshToken(ctx context.Context, oldTokenID string, userID uint, next *IssuedToken) error {
	row := &model.RefreshToken{JTI: next.ID, UserID: userID, ExpiresAt: next.ExpiresAt.UTC()}
	return s.repo.RotateRefreshToken(ctx, oldTokenID, userID, row, s.now())
}

// RevokeRefreshToken blacklists a refresh token. A token that is unknown or
// already revoked yields errors.ErrTokenRevoked.
func (s *TokenStore) RevokeRefreshToken(ctx context.Context, tokenID string) error {
	live, err := s.repo.RevokeRefreshToken(ctx, tokenID, s.now())
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if !live {
		logging.FromContext(ctx).Debug("refresh token already revoked", "jti", tokenID)
		return apperrors.ErrTokenRevoked
	}
	return nil
}

// BlacklistAccessToken adds an access token to the blacklist until it expires.
func (s *TokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.repo.RevokeAccessToken(ctx, tokenID, expiresAt.UTC()); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return s.cache.Set(ctx, accessTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsAccessTokenBlacklisted checks Redis first and falls back to the database.
func (s *TokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	if data, _ := s.cache.Get(ctx, accessTokenKeyPrefix+tokenID); data != nil {
		return true, nil
	}
	return s.repo.IsAccessTokenRevoked(ctx, tokenID, s.now())
}

// PurgeExpired removes token rows past their expiry.
func (s *TokenStore) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpired(ctx, s.now())
}
