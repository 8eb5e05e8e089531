// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the single error writer used by every endpoint and by
// the middleware chain. Every failure is rendered from an apierr.Error:
//
//	HTTP/1.1 404 Not Found
//	{"error": "The requested item was not found"}
//
// Server errors (>=500) are logged with their cause through the
// request-scoped logger. The cause never reaches the client.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-mongo-skeleton/internal/apierr"
	"github.com/tbourn/go-mongo-skeleton/internal/http/middleware"
)

// Error classifies err, counts it by kind, logs server-side failures and
// aborts the request with the error record.
func Error(c *gin.Context, err error) {
	rec := apierr.As(err)
	if rec == nil {
		rec = &apierr.Error{Kind: apierr.InternalError}
	}
	status := rec.StatusCode()
	kind := rec.Kind.String()

	middleware.CountError(kind)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("kind", kind).
			Err(rec.Cause).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, rec.Response())
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
