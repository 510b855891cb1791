package gategin

import (
	"strings"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/open-rails/gatekit/entitlement"
)

// ContextUserKey is where upstream auth middleware conventionally leaves
// the verified user id on the gin context.
const ContextUserKey = "gatekit.user"

// IdentityFunc extracts the current identity from a request. Empty string
// means anonymous.
type IdentityFunc func(c *gin.Context) string

// IdentityFromContext reads the identity from a gin context key.
func IdentityFromContext(key string) IdentityFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get(key); ok {
			if s, ok := v.(string); ok {
				return entitlement.NormalizeUserID(s)
			}
		}
		return ""
	}
}

// IdentityFromJWT verifies the Authorization bearer token with keyfunc and
// returns its subject claim. Missing or invalid tokens read as anonymous;
// rejecting them is the auth middleware's job, not the gate's.
func IdentityFromJWT(keyfunc jwt.Keyfunc) IdentityFunc {
	return func(c *gin.Context) string {
		auth := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) {
			return ""
		}
		tok, err := jwt.Parse(strings.TrimSpace(auth[len(prefix):]), keyfunc)
		if err != nil || !tok.Valid {
			return ""
		}
		sub, err := tok.Claims.GetSubject()
		if err != nil {
			return ""
		}
		return entitlement.NormalizeUserID(sub)
	}
}

// ChainIdentity tries each source in order and returns the first identity.
func ChainIdentity(fns ...IdentityFunc) IdentityFunc {
	return func(c *gin.Context) string {
		for _, fn := range fns {
			if id := fn(c); id != "" {
				return id
			}
		}
		return ""
	}
}
