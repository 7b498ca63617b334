package middleware

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"kioskpos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	internalErrorMessage = "Erreur interne du serveur"
	timeoutMessage       = "Le service de stockage ne répond pas, veuillez réessayer"
)

// ErrorHandler answers errors attached with c.Error. A store call cut short by
// StoreTimeout becomes a 503; anything else is a generic 500. The cause is
// only logged.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		requestLog(c, log.Error()).Err(err).Msg("unhandled error")

		if c.Writer.Written() {
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, apierror.New(timeoutMessage))
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New(internalErrorMessage))
	}
}

// Recovery turns a panic into a 500 and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				requestLog(c, log.Error()).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New(internalErrorMessage))
			}
		}()
		c.Next()
	}
}

// Logger writes one line per request. 5xx answers are logged at warn level.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Warn()
		}
		if id := GetIdentity(c); id != nil {
			ev = ev.Str("role", string(id.Role))
		}
		requestLog(c, ev).
			Str("route", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func requestLog(c *gin.Context, ev *zerolog.Event) *zerolog.Event {
	return ev.
		Str("request_id", c.GetString(RequestIDKey)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path)
}
