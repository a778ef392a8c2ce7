package auth

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie carrying the session id.
const SessionCookieName = "session_id"

const (
	contextKeyUserID    = "user_id"
	contextKeySessionID = "session_id"
)

// UserIDFromContext returns the current user ID set by RequireSession. 0 if not set.
func UserIDFromContext(c *gin.Context) int64 {
	v, ok := c.Get(contextKeyUserID)
	if !ok {
		return 0
	}
	id, ok := v.(int64)
	if !ok {
		return 0
	}
	return id
}

// SessionIDFromContext returns the session id accepted by RequireSession.
func SessionIDFromContext(c *gin.Context) string {
	return c.GetString(contextKeySessionID)
}

// RequireSession returns a middleware that checks for a valid session cookie
// and sets the current user ID in context. If missing or invalid, responds with 401.
func RequireSession(sessions Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookieName)
		if err != nil || sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authorization required"})
			return
		}
		userID, ok, err := sessions.GetUserID(c.Request.Context(), sessionID)
		if err != nil {
			log.Printf("session lookup: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authorization required"})
			return
		}
		c.Set(contextKeyUserID, userID)
		c.Set(contextKeySessionID, sessionID)
		c.Next()
	}
}
