package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "catalog/internal/errors"
	"catalog/internal/model"
)

// TokenRepository persists refresh tokens and revoked access tokens.
type TokenRepository interface {
	CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error
	// RotateRefreshToken revokes the live token oldJTI of userID and stores next
	// in the same transaction. It fails with ErrTokenRevoked when oldJTI is
	// unknown, expired or already revoked.
	RotateRefreshToken(ctx context.Context, oldJTI string, userID uint, next *model.RefreshToken, now time.Time) error
	RevokeRefreshToken(ctx context.Context, jti string, now time.Time) (bool, error)
	RevokeAccessToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string, now time.Time) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token repository.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *tokenRepository) RotateRefreshToken(ctx context.Context, oldJTI string, userID uint, next *model.RefreshToken, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.RefreshToken{}).
			Where("jti = ? AND user_id = ? AND revoked_at IS NULL AND expires_at > ?", oldJTI, userID, now).
			Update("revoked_at", now)
		if res.Error != nil {
			return fmt.Errorf("revoke refresh token: %w", res.Error)
		}
		if res.RowsAffected != 1 {
			return apperrors.ErrTokenRevoked
		}
		if err := tx.Create(next).Error; err != nil {
			return fmt.Errorf("store refresh token: %w", err)
		}
		return nil
	})
}

// RevokeRefreshToken marks jti as revoked and reports whether it was live.
func (r *tokenRepository) RevokeRefreshToken(ctx context.Context, jti string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("jti = ? AND revoked_at IS NULL", jti).
		Update("revoked_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *tokenRepository) RevokeAccessToken(ctx context.Context, jti string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.RevokedAccessToken{JTI: jti, ExpiresAt: expiresAt}).Error
}

func (r *tokenRepository) IsAccessTokenRevoked(ctx context.Context, jti string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RevokedAccessToken{}).
		Where("jti = ? AND expires_at > ?", jti, now).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeExpired deletes token rows that can no longer be presented.
func (r *tokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var purged int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("expires_at <= ?", now).Delete(&model.RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		purged += res.RowsAffected
		res = tx.Where("expires_at <= ?", now).Delete(&model.RevokedAccessToken{})
		if res.Error != nil {
			return res.Error
		}
		purged += res.RowsAffected
		return nil
	})
	return purged, err
}
