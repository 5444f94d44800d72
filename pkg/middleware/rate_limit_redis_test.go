package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisLimited(t *testing.T, rps float64, burst int) (*gin.Engine, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if sub := c.GetHeader("X-Test-Sub"); sub != "" {
			c.Set("claims", map[string]interface{}{"sub": sub})
		}
		c.Next()
	})
	r.Use(RedisRateLimitMiddleware(client, rps, burst, time.Second))
	r.GET("/birth-plans", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, m
}

func serveWith(r *gin.Engine, path, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(header, value)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// alignWindow waits for the next one-second window so a test's requests
// fall into the same bucket.
func alignWindow() {
	time.Sleep(time.Until(time.Now().Truncate(time.Second).Add(time.Second)))
}

func TestRedisRateLimitMiddleware_WindowAndReset(t *testing.T) {
	r, m := redisLimited(t, 1, 0)
	alignWindow()

	require.Equal(t, http.StatusOK, hit(r, "/birth-plans"))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "/birth-plans"))

	// every key lives at most one window plus a second
	for _, k := range m.Keys() {
		assert.LessOrEqual(t, m.TTL(k), 2*time.Second)
	}

	alignWindow()
	require.Equal(t, http.StatusOK, hit(r, "/birth-plans"))
}

func TestRedisRateLimitMiddleware_PerSubject(t *testing.T) {
	r, _ := redisLimited(t, 1, 1)
	alignWindow()

	get := func(sub string) *http.Response {
		w := serveWith(r, "/birth-plans", "X-Test-Sub", sub)
		return w.Result()
	}
	require.Equal(t, http.StatusOK, get("u1").StatusCode)
	require.Equal(t, http.StatusOK, get("u1").StatusCode)
	res := get("u1")
	require.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	retry, err := strconv.Atoi(res.Header.Get("Retry-After"))
	require.NoError(t, err)
	assert.Equal(t, 1, retry)

	// another user has its own budget
	assert.Equal(t, http.StatusOK, get("u2").StatusCode)
}

func TestRedisRateLimitMiddleware_FallsBackWhenRedisDown(t *testing.T) {
	r, m := redisLimited(t, 1, 1)
	m.Close()

	assert.Equal(t, http.StatusOK, hit(r, "/birth-plans"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "/birth-plans"))
}
