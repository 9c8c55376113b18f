package observability

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger attaches a RequestContext to every request, echoes its id in
// the X-Request-Id header, and logs and records the request once it completes.
func RequestLogger(logger *slog.Logger, metrics *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			reqCtx := NewRequestContextWithID(logger, req.Header.Get(echo.HeaderXRequestID), c.Path())
			c.SetRequest(req.WithContext(WithRequestContext(req.Context(), reqCtx)))
			c.Response().Header().Set(echo.HeaderXRequestID, reqCtx.RequestID)

			err := next(c)
			if err != nil {
				// Let echo write the error response so the status is final.
				c.Error(err)
			}

			status := c.Response().Status
			duration := reqCtx.Duration()
			if metrics != nil {
				metrics.RecordRequest(reqCtx.Route, duration, status >= 500)
			}

			attrs := []slog.Attr{
				slog.String(LogFieldMethod, req.Method),
				slog.Int(LogFieldStatus, status),
				slog.Int64(LogFieldDuration, duration.Milliseconds()),
			}
			switch {
			case status >= 500:
				reqCtx.Warn("http request failed", attrs...)
			case duration > 5*time.Second:
				reqCtx.Info("slow http request", attrs...)
			default:
				reqCtx.Debug("http request", attrs...)
			}
			return nil
		}
	}
}
