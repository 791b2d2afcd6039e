package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"taskboard/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserIDKey is the gin context key holding the authenticated uuid.UUID.
const UserIDKey = "user_id"

// AdminTokenHeader carries the shared secret for the maintenance routes.
const AdminTokenHeader = "X-Admin-Token"

func JWTAuthMiddleware(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		userID, ok := Authenticate(c, tokens, parts[1])
		if !ok {
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// Authenticate resolves a raw token to a user id, answering 401 itself when
// the token is unusable.
func Authenticate(c *gin.Context, tokens *auth.Tokens, raw string) (uuid.UUID, bool) {
	subject, err := tokens.Parse(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token"})
		return uuid.Nil, false
	}
	return userID, true
}

func AdminTokenMiddleware(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(AdminTokenHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin token"})
			return
		}
		c.Next()
	}
}
