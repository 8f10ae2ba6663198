package health

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
)

const goroutineThreshold = 1000

type Checker struct {
	health healthcheck.Handler
}

// NewChecker builds the liveness and readiness probes. db may be nil when
// accounts are kept in memory.
func NewChecker(db *sql.DB) *Checker {
	h := healthcheck.NewHandler()
	h.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(goroutineThreshold))
	if db != nil {
		h.AddReadinessCheck("database", healthcheck.DatabasePingCheck(db, 2*time.Second))
	}
	return &Checker{health: h}
}

func (c *Checker) LiveHandler() http.Handler {
	return http.HandlerFunc(c.health.LiveEndpoint)
}

func (c *Checker) ReadyHandler() http.Handler {
	return http.HandlerFunc(c.health.ReadyEndpoint)
}
