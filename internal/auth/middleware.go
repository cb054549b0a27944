package auth

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/victornm/techbridge/internal/domain"
	"github.com/victornm/techbridge/internal/errors"
)

const identityKey = "auth.identity"

// Middleware rejects requests without a valid bearer token and stores the verified identity in
// the gin context.
func Middleware(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, "missing bearer token")
			return
		}

		id, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			slog.InfoContext(c.Request.Context(), "auth: token rejected", "error", err)
			abort(c, "invalid or expired token")
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Middleware.
func IdentityFrom(c *gin.Context) (*domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*domain.Identity)
	return id, ok
}

func bearerToken(h string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func abort(c *gin.Context, msg string) {
	e := errors.New(errors.CodeUnauthenticated, errors.WithMessagef("%s", msg))
	c.AbortWithStatusJSON(e.HTTPStatusCode(), e)
}
