package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-mongo-skeleton/internal/clock"
)

const (
	clockKey = "clock"
	dbKey    = "db"
)

// Pinger is the database capability handlers need.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Resources attaches the shared clock cell and database handle to every
// request context.
func Resources(clk *clock.Clock, db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(clockKey, clk)
		c.Set(dbKey, db)
		c.Next()
	}
}

// ClockFrom returns the request's clock cell. Without Resources() a fresh,
// non-overridden clock is returned.
func ClockFrom(c *gin.Context) *clock.Clock {
	if v, ok := c.Get(clockKey); ok {
		if clk, ok := v.(*clock.Clock); ok && clk != nil {
			return clk
		}
	}
	return clock.New()
}

// DBFrom returns the request's database handle, or nil when none was
// attached.
func DBFrom(c *gin.Context) Pinger {
	if v, ok := c.Get(dbKey); ok {
		if db, ok := v.(Pinger); ok {
			return db
		}
	}
	return nil
}
