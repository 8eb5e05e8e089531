package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-mongo-skeleton/internal/apierr"
)

// ErrorWriter renders an error as the response and aborts the chain. The
// router injects handlers.Error so middleware and handlers share one
// rendering path.
type ErrorWriter func(c *gin.Context, err error)

// orDefault returns w, or a bare taxonomy renderer when w is nil.
func orDefault(w ErrorWriter) ErrorWriter {
	if w != nil {
		return w
	}
	return func(c *gin.Context, err error) {
		rec := apierr.As(err)
		c.AbortWithStatusJSON(rec.StatusCode(), rec.Response())
	}
}
