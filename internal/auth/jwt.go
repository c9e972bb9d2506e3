// SPDX-License-Identifier: MIT
package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/thatcatcamp/sideload/internal/config"
	"github.com/thatcatcamp/sideload/internal/models"
)

// Claims represents JWT claims for API bearer tokens
type Claims struct {
	UserID       uint     `json:"user_id"`
	Email        string   `json:"email"`
	Capabilities []string `json:"caps,omitempty"`
	jwt.RegisteredClaims
}

// getJWTSecret returns the JWT secret from env var or config
func getJWTSecret() string {
	// Environment variable takes precedence
	if secret := os.Getenv("SIDELOAD_JWT_SECRET"); secret != "" {
		return secret
	}
	return config.GetString("auth.jwt_secret")
}

// GenerateToken creates a bearer token for a user. ttl <= 0 uses
// auth.jwt_expiry_hours.
func GenerateToken(user *models.User, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		expiryHours := config.GetInt("auth.jwt_expiry_hours")
		if expiryHours == 0 {
			expiryHours = 8 // Default fallback
		}
		ttl = time.Duration(expiryHours) * time.Hour
	}

	now := time.Now()
	claims := Claims{
		UserID:       user.ID,
		Email:        user.Email,
		Capabilities: user.CapabilityList(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "sideload",
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(getJWTSecret()))
}

// ValidateToken parses and validates a JWT token
func ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(getJWTSecret()), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
