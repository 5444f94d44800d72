package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Revocations reports tokens that were explicitly logged out.
type Revocations interface {
	IsRevoked(ctx context.Context, raw string) (bool, error)
}

// AnyVerifier accepts a token when any of its verifiers does. Nil entries are
// skipped so optional verifiers can be passed unconditionally.
type AnyVerifier []Verifier

func (vs AnyVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	var errs []error
	for _, v := range vs {
		if v == nil {
			continue
		}
		tok, err := v.Verify(ctx, raw)
		if err == nil {
			return tok, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no token verifier configured")
	}
	return nil, errors.Join(errs...)
}

// ExpiresIn returns the remaining lifetime reported by the first verifier
// that knows raw, or 0.
func (vs AnyVerifier) ExpiresIn(raw string) time.Duration {
	for _, v := range vs {
		if e, ok := v.(interface{ ExpiresIn(string) time.Duration }); ok {
			if left := e.ExpiresIn(raw); left > 0 {
				return left
			}
		}
	}
	return 0
}

// BearerToken extracts the raw token of an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != "" && !strings.ContainsAny(token, " \t")
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using
// the provided verifier. Tokens found in rev are rejected.
func AuthMiddleware(ver Verifier, rev ...Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		token, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}
		claims, status, msg := authenticate(c, ver, rev, token)
		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		c.Set("claims", claims)
		c.Next()
	}
}

// OptionalAuth sets "claims" when a valid bearer token is present and lets
// anonymous requests through untouched. A present but invalid token is
// still rejected.
func OptionalAuth(ver Verifier, rev ...Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		token, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}
		claims, status, msg := authenticate(c, ver, rev, token)
		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		c.Set("claims", claims)
		c.Next()
	}
}

func authenticate(c *gin.Context, ver Verifier, rev []Revocations, token string) (map[string]interface{}, int, string) {
	ctx := c.Request.Context()
	for _, r := range rev {
		if r == nil {
			continue
		}
		revoked, err := r.IsRevoked(ctx, token)
		if err != nil {
			return nil, http.StatusInternalServerError, "token revocation check failed"
		}
		if revoked {
			return nil, http.StatusUnauthorized, "token revoked"
		}
	}

	idToken, err := ver.Verify(ctx, token)
	if err != nil {
		return nil, http.StatusUnauthorized, "invalid token"
	}

	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, http.StatusUnauthorized, "failed to parse claims"
	}
	return claims, 0, ""
}

// Subject returns the "sub" claim set by AuthMiddleware or OptionalAuth.
func Subject(c *gin.Context) string {
	claims := Claims(c)
	sub, _ := claims["sub"].(string)
	return sub
}

// Claims returns the verified claims, or nil for anonymous requests.
func Claims(c *gin.Context) map[string]interface{} {
	v, ok := c.Get("claims")
	if !ok {
		return nil
	}
	cm, _ := v.(map[string]interface{})
	return cm
}
