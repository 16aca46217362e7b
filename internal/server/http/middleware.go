package internalhttp

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ip, err := getIP(c.Request)
		if err != nil {
			log.Errorf("failed to get client IP: %v", err)
		}
		log.WithField("ip", ip).WithField("method", c.Request.Method).WithField("path", c.Request.URL).
			WithField("HTTP version", c.Request.Proto).WithField("user-agent", c.Request.Header.Get("user-agent")).
			WithField("status", c.Writer.Status()).
			WithField(requestIDKey, c.GetString(requestIDKey)).
			WithField("latency", time.Since(start)).
			Info("http request processed")
	}
}

// recoveryMiddleware renders a panic as the generic 500 envelope. Details go
// to the log only, never to the client.
func recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithField(requestIDKey, c.GetString(requestIDKey)).Errorf("panic recovered: %v", r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
					Success: false,
					Message: msgUnexpectedError,
					Errors:  []string{},
				})
			}
		}()
		c.Next()
	}
}
