package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/studenthub/internal/helpers"
	"github.com/joshua-takyi/studenthub/internal/services"
)

const claimsKey = "user"

// SessionVerifier turns a session token into its claims.
type SessionVerifier interface {
	ParseSession(token string) (*helpers.SessionClaims, error)
}

// SessionToken returns the bearer token of the request, falling back to the
// session cookie.
func SessionToken(c *gin.Context, cookieName string) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token, err := c.Cookie(cookieName); err == nil {
		return token
	}
	return ""
}

// AuthMiddleware rejects requests without a valid session and stores the
// session claims under "user".
func AuthMiddleware(verifier SessionVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, helpers.ErrorResponse("Unauthorized"))
			return
		}

		claims, err := verifier.ParseSession(token)
		if err != nil {
			status := http.StatusBadRequest
			var se *services.Error
			if errors.As(err, &se) {
				status = se.Status()
			}
			c.AbortWithStatusJSON(status, helpers.ErrorResponse(messageOf(err)))
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// OptionalAuth stores the session claims when a valid credential is present
// and lets every request through.
func OptionalAuth(verifier SessionVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := SessionToken(c, cookieName); token != "" {
			if claims, err := verifier.ParseSession(token); err == nil {
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

// Claims returns the session claims stored by AuthMiddleware or OptionalAuth.
func Claims(c *gin.Context) (*helpers.SessionClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*helpers.SessionClaims)
	return claims, ok
}

func messageOf(err error) string {
	var se *services.Error
	if errors.As(err, &se) {
		return se.Message
	}
	return "Invalid token"
}
