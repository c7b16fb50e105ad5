package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mankeu/models"
)

// ErrInvalidRefreshToken is returned for unknown, revoked or expired refresh
// tokens.
var ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

// RefreshTokens stores refresh tokens by their sha256 hash; the raw value is
// only ever handed to the client.
type RefreshTokens struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewRefreshTokens(db *gorm.DB, ttl time.Duration) *RefreshTokens {
	return &RefreshTokens{db: db, ttl: ttl, now: time.Now}
}

func hashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// Create generates a refresh token for userID and returns its raw value.
func (r *RefreshTokens) Create(ctx context.Context, userID uint) (string, error) {
	return r.create(r.db.WithContext(ctx), userID)
}

func (r *RefreshTokens) create(tx *gorm.DB, userID uint) (string, error) {
	raw, err := RandomToken(32)
	if err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	rt := models.RefreshToken{UserID: userID, TokenHash: hashToken(raw), ExpiresAt: r.now().Add(r.ttl)}
	if err := tx.Create(&rt).Error; err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return raw, nil
}

// Rotate revokes raw and issues a replacement for the same user.
func (r *RefreshTokens) Rotate(ctx context.Context, raw string) (userID uint, next string, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RefreshToken{}).
			Where("token_hash = ? AND revoked = ? AND expires_at > ?", hashToken(raw), false, r.now()).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidRefreshToken
		}
		var rt models.RefreshToken
		if err := tx.Where("token_hash = ?", hashToken(raw)).First(&rt).Error; err != nil {
			return err
		}
		userID = rt.UserID
		next, err = r.create(tx, rt.UserID)
		return err
	})
	if err != nil {
		return 0, "", err
	}
	return userID, next, nil
}

// Revoke marks raw as revoked. Unknown tokens yield ErrInvalidRefreshToken.
func (r *RefreshTokens) Revoke(ctx context.Context, raw string) error {
	res := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", hashToken(raw)).
		Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidRefreshToken
	}
	return nil
}

// Prune deletes expired and revoked tokens and reports how many were removed.
func (r *RefreshTokens) Prune(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("revoked = ? OR expires_at <= ?", true, r.now()).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
