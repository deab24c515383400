package reporter

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// callerKey is the gin context key holding the resolved user id.
const callerKey = "callerUserId"

// Identity resolves a bearer token to a user id. The handlers trust
// whatever principal the implementation returns.
type Identity interface {
	Resolve(token string) (userID string, ok bool)
}

// StaticIdentity maps fixed tokens to user ids. Suitable for tests
// and single-tenant deployments.
type StaticIdentity map[string]string

func (si StaticIdentity) Resolve(token string) (string, bool) {
	userID, ok := si[token]
	return userID, ok
}

// RequireIdentity rejects requests without a resolvable bearer token.
func RequireIdentity(identity Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		userID, ok := identity.Resolve(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid bearer token"})
			return
		}

		c.Set(callerKey, userID)
		c.Next()
	}
}

// CallerUserID returns the principal set by RequireIdentity.
func CallerUserID(c *gin.Context) string {
	return c.GetString(callerKey)
}
