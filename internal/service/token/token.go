package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenService struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// IssuePair signs an access/refresh pair and persists the refresh
// token so it can be revoked later.
func (t *TokenService) IssuePair(userID uint, role string) (string, string, error) {
	access, err := t.SignAccessToken(userID, role)
	if err != nil {
		return "", "", err
	}

	refresh, err := t.SignRefreshToken(userID, role)
	if err != nil {
		return "", "", err
	}

	if err := t.SaveRefreshToken(refresh, userID); err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

// Rotate exchanges a valid refresh token for a fresh pair. The
// presented token is revoked so it cannot be replayed.
func (t *TokenService) Rotate(rawToken string) (string, string, error) {
	claims, err := t.ValidateRefresh(rawToken)
	if err != nil {
		return "", "", err
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return "", "", ErrInvalidToken
	}
	role, ok := claims["role"].(string)
	if !ok {
		return "", "", ErrInvalidToken
	}
	userID := uint(sub)

	if err := t.DB.Model(&models.RefreshToken{}).
		Where("token = ?", rawToken).
		Update("revoked", true).Error; err != nil {
		return "", "", fmt.Errorf("revoking refresh token: %w", err)
	}

	return t.IssuePair(userID, role)
}

func (t *TokenService) SignAccessToken(userID uint, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(t.AccessTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.JWTSecret)
}

func (t *TokenService) SignRefreshToken(userID uint, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(t.RefreshTTL).Unix(),
		"typ":  "refresh",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.RefreshSecret)
}

func (t *TokenService) SaveRefreshToken(token string, userID uint) error {
	record := models.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(t.RefreshTTL).Unix(),
		Revoked:   false,
	}
	if err := t.DB.Create(&record).Error; err != nil {
		return fmt.Errorf("saving refresh token: %w", err)
	}
	return nil
}

// ValidateRefresh checks signature, the refresh claim and the stored
// record (must exist, not be revoked and not be expired).
func (t *TokenService) ValidateRefresh(rawToken string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(rawToken, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.RefreshSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return nil, ErrInvalidToken
	}

	var stored models.RefreshToken
	if err := t.DB.Where("token = ?", rawToken).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if stored.Revoked {
		return nil, ErrInvalidToken
	}
	if time.Now().Unix() > stored.ExpiresAt {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ParseAccess verifies an access token and returns its claims.
func (t *TokenService) ParseAccess(rawToken string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(rawToken, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.JWTSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if typ, ok := claims["typ"]; ok && typ == "refresh" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
