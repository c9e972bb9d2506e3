// SPDX-License-Identifier: MIT
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// PlaceholderSecret is the shipped auth.jwt_secret default
const PlaceholderSecret = "CHANGE_ME_IN_PRODUCTION_USE_ENV_VAR"

// GenerateSecret creates a random signing secret for auth.jwt_secret
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// UsingPlaceholderSecret reports whether tokens are signed with the default
// secret
func UsingPlaceholderSecret() bool {
	return getJWTSecret() == PlaceholderSecret || getJWTSecret() == ""
}
