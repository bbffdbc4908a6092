package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "lostfound/internal/transport/http/response"
)

// ConcurrencyLimit caps in-flight requests; callers wait for a slot until
// their context ends.
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			abort(c, http.StatusServiceUnavailable, "Server busy, please retry")
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}

func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, resp.Fail(code, msg))
}
