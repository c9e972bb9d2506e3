package users

import (
	"fmt"
	"slices"
	"strings"

	"github.com/thatcatcamp/sideload/internal/auth"
	"github.com/thatcatcamp/sideload/internal/models"
	"gorm.io/gorm"
)

// KnownCapabilities lists the capability names that may be granted
var KnownCapabilities = []string{models.CapUploadFiles, models.CapManageUsers}

// CreateUser creates a new user with hashed password and the given
// capabilities. If a soft-deleted user exists with this email, it will be
// restored.
func CreateUser(db *gorm.DB, email, password string, capabilities []string) (*models.User, error) {
	// Normalize email to lowercase
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	caps, err := normalizeCapabilities(capabilities)
	if err != nil {
		return nil, err
	}

	// Check if active user already exists
	var existing models.User
	result := db.Where("email = ?", email).First(&existing)
	if result.Error == nil {
		return nil, fmt.Errorf("user with email %s already exists", email)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Check for soft-deleted user with this email
	var deletedUser models.User
	deletedResult := db.Unscoped().Where("email = ? AND deleted_at IS NOT NULL", email).First(&deletedUser)

	var user *models.User
	if deletedResult.Error == nil {
		// Restore with the new password; old capabilities are not carried over
		user = &deletedUser
		if err := db.Unscoped().Model(user).Updates(map[string]interface{}{
			"deleted_at":    nil,
			"password_hash": hashedPassword,
			"capabilities":  caps,
		}).Error; err != nil {
			return nil, fmt.Errorf("failed to restore user: %w", err)
		}
	} else {
		user = &models.User{
			Email:        email,
			PasswordHash: hashedPassword,
			Capabilities: caps,
		}

		if err := db.Create(user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	return user, nil
}

// GrantCapability adds a capability to the user identified by email
func GrantCapability(db *gorm.DB, email, capability string) (*models.User, error) {
	user, err := GetUserByEmail(db, email)
	if err != nil {
		return nil, err
	}
	caps, err := normalizeCapabilities(append(user.CapabilityList(), capability))
	if err != nil {
		return nil, err
	}
	return user, saveCapabilities(db, user, caps)
}

// RevokeCapability removes a capability from the user identified by email
func RevokeCapability(db *gorm.DB, email, capability string) (*models.User, error) {
	user, err := GetUserByEmail(db, email)
	if err != nil {
		return nil, err
	}
	remaining := slices.DeleteFunc(user.CapabilityList(), func(c string) bool { return c == capability })
	caps, err := normalizeCapabilities(remaining)
	if err != nil {
		return nil, err
	}
	return user, saveCapabilities(db, user, caps)
}

func saveCapabilities(db *gorm.DB, user *models.User, caps string) error {
	if err := db.Model(user).Update("capabilities", caps).Error; err != nil {
		return fmt.Errorf("failed to update capabilities: %w", err)
	}
	user.Capabilities = caps
	return nil
}

// normalizeCapabilities validates, dedupes and sorts capability names into
// the stored comma-separated form
func normalizeCapabilities(capabilities []string) (string, error) {
	var caps []string
	for _, c := range capabilities {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !slices.Contains(KnownCapabilities, c) {
			return "", fmt.Errorf("unknown capability %q (known: %s)", c, strings.Join(KnownCapabilities, ", "))
		}
		if !slices.Contains(caps, c) {
			caps = append(caps, c)
		}
	}
	slices.Sort(caps)
	return strings.Join(caps, ","), nil
}

// GetUserByEmail retrieves a user by email address
func GetUserByEmail(db *gorm.DB, email string) (*models.User, error) {
	// Normalize email to lowercase
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	result := db.Where("email = ?", email).First(&user)
	if result.Error != nil {
		return nil, fmt.Errorf("user not found: %w", result.Error)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func GetUserByID(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	result := db.First(&user, id)
	if result.Error != nil {
		return nil, fmt.Errorf("user not found: %w", result.Error)
	}
	return &user, nil
}

// ListUsers returns all users
func ListUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	result := db.Order("id").Find(&users)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list users: %w", result.Error)
	}
	return users, nil
}

// DeleteUser soft-deletes a user
func DeleteUser(db *gorm.DB, id uint) error {
	result := db.Delete(&models.User{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}
