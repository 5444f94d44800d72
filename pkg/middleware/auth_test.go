package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier implements Verifier
type fakeVerifier struct {
	token string
	sub   string
}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	want, sub := f.token, f.sub
	if want == "" {
		want, sub = "goodtoken", "user1"
	}
	if raw == want {
		return &fakeToken{data: map[string]interface{}{"sub": sub}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, raw string) (bool, error) {
	return r[raw], nil
}

func serve(t *testing.T, h gin.HandlerFunc, header string) *httptest.ResponseRecorder {
	t.Helper()
	g := gin.New()
	g.GET("/", h, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sub": Subject(c)})
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	rw := serve(t, AuthMiddleware(&fakeVerifier{}), "")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	rw := serve(t, AuthMiddleware(&fakeVerifier{}), "BadHeader")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	rw := serve(t, AuthMiddleware(&fakeVerifier{}), "Bearer goodtoken")
	require.Equal(t, http.StatusOK, rw.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, "user1", got["sub"])
}

func TestAuthMiddleware_RejectsRevokedToken(t *testing.T) {
	rw := serve(t, AuthMiddleware(&fakeVerifier{}, revokedSet{"goodtoken": true}), "Bearer goodtoken")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.Contains(t, rw.Body.String(), "revoked")
}

func TestOptionalAuth(t *testing.T) {
	// anonymous passes with no subject
	rw := serve(t, OptionalAuth(&fakeVerifier{}), "")
	require.Equal(t, http.StatusOK, rw.Code)
	require.JSONEq(t, `{"sub":""}`, rw.Body.String())

	rw = serve(t, OptionalAuth(&fakeVerifier{}), "Bearer goodtoken")
	require.Equal(t, http.StatusOK, rw.Code)
	require.JSONEq(t, `{"sub":"user1"}`, rw.Body.String())

	rw = serve(t, OptionalAuth(&fakeVerifier{}), "Bearer nope")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAnyVerifier(t *testing.T) {
	v := AnyVerifier{nil, &fakeVerifier{token: "a", sub: "from-a"}, &fakeVerifier{token: "b", sub: "from-b"}}

	rw := serve(t, AuthMiddleware(v), "Bearer b")
	require.Equal(t, http.StatusOK, rw.Code)
	require.JSONEq(t, `{"sub":"from-b"}`, rw.Body.String())

	rw = serve(t, AuthMiddleware(v), "Bearer c")
	require.Equal(t, http.StatusUnauthorized, rw.Code)

	_, err := AnyVerifier{nil}.Verify(context.Background(), "a")
	require.Error(t, err)
}

type expiringVerifier struct {
	fakeVerifier
	left time.Duration
}

func (e *expiringVerifier) ExpiresIn(string) time.Duration { return e.left }

func TestAnyVerifier_ExpiresIn(t *testing.T) {
	v := AnyVerifier{&fakeVerifier{}, &expiringVerifier{left: 0}, &expiringVerifier{left: time.Minute}}
	require.Equal(t, time.Minute, v.ExpiresIn("x"))
	require.Zero(t, AnyVerifier{&fakeVerifier{}}.ExpiresIn("x"))
}
