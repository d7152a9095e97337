// Package middleware holds the gin middleware of the API server.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

const requestIDKey = "requestID"

// RequestIDs tags each request with an ID, reusing a well-formed incoming
// X-Request-ID header.
func RequestIDs() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestID returns the ID assigned by RequestIDs, or "".
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
