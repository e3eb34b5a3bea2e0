package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxUserIDKey = "auth.userID"

// RequireAuth guards a route group with a bearer access token. The verified
// subject is stored in the gin context for handlers to pick up.
func RequireAuth(parse func(raw string) (int64, error)) gin.HandlerFunc {
	return func(g *gin.Context) {
		h := g.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(h, prefix) {
			g.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		uid, err := parse(strings.TrimPrefix(h, prefix))
		if err != nil {
			g.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
			return
		}

		g.Set(ctxUserIDKey, uid)
		g.Next()
	}
}

func UserIDFrom(g *gin.Context) (int64, bool) {
	v, ok := g.Get(ctxUserIDKey)
	if !ok {
		return 0, false
	}
	uid, ok := v.(int64)
	return uid, ok
}
