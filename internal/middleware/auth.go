package middleware

import (
	"net/http"

	"github.com/alphaarena/account-service/internal/auth"
	"github.com/gin-gonic/gin"
)

// SessionAuth resolves the session_token query parameter through the
// verifier and stores the resulting user id in the request context. Every
// account route sits behind it; a bad or missing token is always a 401.
func SessionAuth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("session_token")

		userID, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"detail": "Invalid or expired session",
			})
			c.Abort()
			return
		}

		c.Set("userId", userID)
		c.Next()
	}
}

// GetUserID returns the verified user id set by SessionAuth.
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get("userId")
	if !exists {
		return 0, false
	}
	return userID.(int64), true
}
