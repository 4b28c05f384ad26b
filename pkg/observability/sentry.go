package observability

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

var enabled bool

// InitSentry configures the global Sentry hub. An empty DSN disables reporting
// and returns a no-op flush.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	enabled = true
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr reports err when Sentry is configured.
func CaptureErr(err error) {
	if err != nil && enabled {
		sentry.CaptureException(err)
	}
}

// Recovery reports panics to Sentry and re-panics so gin.Recovery can answer 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				CaptureErr(fmt.Errorf("panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, r))
				panic(r)
			}
		}()
		c.Next()
	}
}
