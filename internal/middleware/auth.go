package middleware

import (
	"net/http"
	"strings"

	"threadbox/internal/access"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalKey = "principal"

type TokenParser interface {
	Parse(token string) (access.Principal, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the caller's principal on the context.
func AuthMiddleware(parser TokenParser, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Sugar()
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			abortUnauthenticated(c)
			return
		}

		principal, err := parser.Parse(token)
		if err != nil {
			log.Debugw("Rejected bearer token", "error", err, "path", c.Request.URL.Path)
			abortUnauthenticated(c)
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

func SetPrincipal(c *gin.Context, p access.Principal) {
	c.Set(principalKey, p)
}

// CurrentPrincipal returns the principal set by AuthMiddleware.
func CurrentPrincipal(c *gin.Context) (access.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return access.Principal{}, false
	}
	p, ok := v.(access.Principal)
	return p, ok
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": "Unauthenticated.",
	})
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
