package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ValidateAccessLogLevel checks the level can be used for HTTP access logs.
func ValidateAccessLogLevel(level string) error {
	if _, err := accessLogger(zap.NewNop(), level); err != nil {
		return err
	}
	return nil
}

func accessLogger(logger *zap.Logger, level string) (func(msg string, fields ...zap.Field), error) {
	switch level {
	case zap.DebugLevel.String():
		return logger.Debug, nil
	case zap.InfoLevel.String():
		return logger.Info, nil
	case zap.WarnLevel.String():
		return logger.Warn, nil
	default:
		return nil, fmt.Errorf("unsupported access log level: %q", level)
	}
}

func loggerMiddleware(logger *zap.Logger, accessLevel string) func(next http.Handler) http.Handler {

	accessLoggerFn, err := accessLogger(logger, accessLevel)
	if err != nil {
		panic(err)
	}

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			startTime := time.Now()

			defer func() {

				// Recover any panicking handler and log the stack trace, so it
				// is available for debugging.
				if rec := recover(); rec != nil {
					logger.Error("panic during handling of HTTP request",
						zap.Reflect("recover_info", rec),
						zap.Stack("stack"))
					http.Error(ww, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}

				accessLoggerFn("handled HTTP request",
					zap.String("remote_address", r.RemoteAddr),
					zap.String("path", r.URL.Path),
					zap.String("route", routePattern(r)),
					zap.String("method", r.Method),
					zap.String("user_agent", r.Header.Get("User-Agent")),
					zap.Int("status", ww.Status()),
					zap.Duration("latency", time.Since(startTime)),
					zap.Int("content_in_bytes", contentInBytes(r.Header)),
					zap.Int("content_out_bytes", ww.BytesWritten()))
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

func routePattern(r *http.Request) string {
	if rctx := chiRouteContext(r); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func contentInBytes(header http.Header) int {
	if i, err := strconv.Atoi(header.Get("Content-Length")); err != nil {
		return 0
	} else {
		return i
	}
}
