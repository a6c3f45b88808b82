package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"resellerdash/config"
	"resellerdash/models"
)

type Claims struct {
	AdminID  int64            `json:"admin_id"`
	Name     string           `json:"name"`
	Username string           `json:"username"`
	Role     models.AdminRole `json:"role"`
	jwt.RegisteredClaims
}

// User rebuilds the operator identity carried by the token.
func (c *Claims) User() models.AdminUser {
	return models.AdminUser{
		ID:       c.AdminID,
		AdminID:  c.AdminID,
		Name:     c.Name,
		Username: c.Username,
		Role:     c.Role,
	}
}

// GenerateJWTToken issues a session token for an operator and returns it
// with its expiry.
func GenerateJWTToken(user models.AdminUser) (string, time.Time, error) {
	now := time.Now()
	expiry := config.AppConfig.JWTExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	expiresAt := now.Add(expiry)
	claims := &Claims{
		AdminID:  user.AdminID,
		Name:     user.Name,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func ParseJWTToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
