package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the database answers.
type Pinger interface {
	Ping() error
}

// Health serves GET /health outside the /api prefix.
func Health(db Pinger) gin.HandlerFunc {
	started := time.Now()
	return func(c *gin.Context) {
		body := gin.H{
			"success":   true,
			"message":   "Server is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(started).Round(time.Second).String(),
		}
		status := http.StatusOK
		if db != nil {
			if err := db.Ping(); err != nil {
				body["success"] = false
				body["message"] = "Database unavailable"
				status = http.StatusServiceUnavailable
			}
		}
		c.JSON(status, body)
	}
}
