package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thatcatcamp/sideload/internal/db"
	"github.com/thatcatcamp/sideload/internal/models"
)

// Error bodies mirror the REST conventions API clients already handle
var (
	notLoggedIn = gin.H{"code": "rest_not_logged_in", "message": "You are not currently logged in."}
	forbidden   = gin.H{"code": "rest_forbidden", "message": "Sorry, you are not allowed to do that."}
)

// RequireCapability authenticates the caller with HTTP Basic credentials or
// a Bearer token and requires the named capability. The user is stored in
// the context under "user".
func RequireCapability(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := authenticate(c)
		if user == nil {
			c.Header("WWW-Authenticate", `Basic realm="sideload"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, notLoggedIn)
			return
		}

		if !user.Can(capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, forbidden)
			return
		}

		// Set user in context for handlers
		c.Set("user", user)
		c.Next()
	}
}

// CurrentUser returns the user set by RequireCapability
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get("user"); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func authenticate(c *gin.Context) *models.User {
	header := c.GetHeader("Authorization")

	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		claims, err := ValidateToken(strings.TrimSpace(token))
		if err != nil {
			return nil
		}
		// Capabilities are re-read from the database so revocations apply
		// to tokens already issued
		var user models.User
		if err := db.GetDB().First(&user, claims.UserID).Error; err != nil {
			return nil
		}
		return &user
	}

	email, password, ok := c.Request.BasicAuth()
	if !ok || email == "" {
		return nil
	}

	var user models.User
	if err := db.GetDB().Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		burnPasswordCheck(password)
		return nil
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil
	}
	return &user
}
