package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func limitedRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(VoterTokenKey, c.GetHeader("X-Test-Voter"))
		c.Next()
	})
	r.Use(NewRateLimiter(rps, burst).Middleware())
	r.POST("/vote", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimiterExhaustsBurst(t *testing.T) {
	r := limitedRouter(0.001, 3)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/vote", nil)
		req.Header.Set("X-Test-Voter", "voter-a")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{200, 200, 200, 429}, codes)
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	r := limitedRouter(0.001, 1)

	for _, voter := range []string{"voter-a", "voter-b"} {
		req := httptest.NewRequest(http.MethodPost, "/vote", nil)
		req.Header.Set("X-Test-Voter", voter)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "voter %s has an independent bucket", voter)
	}

	req := httptest.NewRequest(http.MethodPost, "/vote", nil)
	req.Header.Set("X-Test-Voter", "voter-a")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
