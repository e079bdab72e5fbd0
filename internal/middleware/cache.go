package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore forbids caching of responses that carry per-student state such as
// attempt progress or published scores.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, private")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
