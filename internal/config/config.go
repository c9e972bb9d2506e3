// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultRouteSlug is used when server.route_slug is not configured.
// Operators are expected to override it.
const DefaultRouteSlug = "cmv_api"

var v *viper.Viper

// InitConfig initializes the configuration system
func InitConfig(configPath string) error {
	v = viper.New()

	// Set defaults
	setDefaults()

	// SIDELOAD_STORAGE_MEDIA_DIR overrides storage.media_dir, etc.
	v.SetEnvPrefix("sideload")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set config file path
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Try to read existing config
	if err := v.ReadInConfig(); err != nil {
		// If config doesn't exist, create it with defaults
		if os.IsNotExist(err) {
			if err := v.WriteConfigAs(configPath); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
		} else {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	v.SetDefault("server.http_port", "8080")
	v.SetDefault("server.route_prefix", "/api/v2")
	v.SetDefault("server.route_slug", "")
	v.SetDefault("server.blocked_ips", []string{})
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.rate_limit", 30)
	v.SetDefault("server.rate_interval", "1m")

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.media_dir", "/var/lib/sideload/media")
	v.SetDefault("storage.base_url", "http://localhost:8080/media")
	v.SetDefault("storage.temp_dir", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.public_url", "")

	// Upload policy defaults
	v.SetDefault("upload.max_file_size", 64<<20)
	v.SetDefault("fetch.timeout", "300s")
	v.SetDefault("fetch.user_agent", "sideload/1.0")
	v.SetDefault("fetch.allow_private_networks", false)

	// Derivative sizes as name=WxH[:crop]
	v.SetDefault("media.thumbnail_sizes", []string{
		"thumbnail=150x150:crop",
		"medium=300x300",
		"large=1024x1024",
	})

	// Database defaults
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "/var/lib/sideload/sideload.db")

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "CHANGE_ME_IN_PRODUCTION_USE_ENV_VAR")
	v.SetDefault("auth.jwt_expiry_hours", 8)

	// Logging defaults
	v.SetDefault("logging.debug", false)

	// Temp sweeper defaults
	v.SetDefault("sweeper.schedule", "@every 15m")
	v.SetDefault("sweeper.max_age", "1h")
}

// GetString returns a config value as string
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetInt returns a config value as int
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetInt64 returns a config value as int64
func GetInt64(key string) int64 {
	if v == nil {
		return 0
	}
	return v.GetInt64(key)
}

// GetBool returns a config value as bool
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetDuration returns a config value as time.Duration
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// GetStringSlice returns a config value as []string
func GetStringSlice(key string) []string {
	if v == nil {
		return nil
	}
	return v.GetStringSlice(key)
}

// Set sets a config value and saves to file
func Set(key string, value interface{}) error {
	if v == nil {
		return fmt.Errorf("config not initialized")
	}

	v.Set(key, value)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetAll returns all config values as a map
func GetAll() map[string]interface{} {
	if v == nil {
		return nil
	}
	return v.AllSettings()
}
