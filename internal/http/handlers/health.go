// Health and readiness endpoints.
//
//   - GET /health  liveness, reports the service clock
//   - GET /ready   pings the database
//
// Both read the shared clock and database handle attached by
// middleware.Resources.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-mongo-skeleton/internal/apierr"
	"github.com/tbourn/go-mongo-skeleton/internal/http/middleware"
)

// readyTimeout bounds a readiness ping.
const readyTimeout = 2 * time.Second

var errNoDatabase = errors.New("no database handle attached")

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// ReadyResponse is the body of a successful GET /ready.
type ReadyResponse struct {
	Status string `json:"status"`
}

// Health reports liveness and the current service time in RFC 3339.
func Health(c *gin.Context) {
	now := middleware.ClockFrom(c).Now()
	ok(c, http.StatusOK, HealthResponse{Status: "ok", Time: now.Format(time.RFC3339)})
}

// Ready pings the database. A failed ping is a DbError.
func Ready(c *gin.Context) {
	db := middleware.DBFrom(c)
	if db == nil {
		Error(c, apierr.FromDB(errNoDatabase))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		middleware.CountPing(false)
		Error(c, apierr.FromDB(err))
		return
	}
	middleware.CountPing(true)
	ok(c, http.StatusOK, ReadyResponse{Status: "ready"})
}

// NotFound renders unknown routes as a NotFoundError.
func NotFound(c *gin.Context) {
	Error(c, &apierr.Error{Kind: apierr.NotFoundError})
}
