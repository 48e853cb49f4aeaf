package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"instantanalytics/api/models"
	"instantanalytics/api/utils"
)

const (
	SessionCookie = "jwt_token"
	APIKeyHeader  = "X-API-KEY"
	userKey       = "user"
)

// UserLoader resolves the account behind a session token.
type UserLoader interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

// Session attaches the logged-in CMS user, if any, to the context. It never
// rejects a request; anonymous visitors simply have no user.
func Session(secret []byte, users UserLoader, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := sessionToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := utils.ValidateJWT(tokenString, secret)
		if err != nil {
			log.Debug("ignoring invalid session token", zap.Error(err))
			c.Next()
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			log.Warn("session user lookup failed", zap.Int("user_id", claims.UserID), zap.Error(err))
			c.Next()
			return
		}

		c.Set(userKey, user)
		c.Set("user_id", user.ID)
		c.Set("user_email", user.Email)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// CurrentUser returns the user attached by Session.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// AuthRequired rejects requests without a logged-in user, unless they carry
// the configured API key.
func AuthRequired(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validAPIKey(c, apiKey) {
			c.Next()
			return
		}
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No valid session"})
			return
		}
		c.Next()
	}
}

// AdminRequired is AuthRequired restricted to admin accounts.
func AdminRequired(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validAPIKey(c, apiKey) {
			c.Next()
			return
		}
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No valid session"})
			return
		}
		if !user.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: admin only"})
			return
		}
		c.Next()
	}
}

// An unset key never matches.
func validAPIKey(c *gin.Context, apiKey string) bool {
	if apiKey == "" {
		return false
	}
	got := c.GetHeader(APIKeyHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) == 1
}
