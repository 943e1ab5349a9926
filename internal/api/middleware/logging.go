package middleware

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger writes one structured line per request.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			err := v.Error
			if err == nil {
				err, _ = c.Get(handledErrorKey).(error)
			}

			var ev *zerolog.Event
			switch {
			case v.Status >= 500:
				ev = log.Error().Err(err)
			case v.Status >= 400:
				ev = log.Warn().Err(err)
			default:
				ev = log.Info()
			}

			ev = ev.
				Str("method", v.Method).
				Str("path", v.URIPath).
				Str("route", v.RoutePath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP)
			if id, ok := UserID(c); ok {
				ev = ev.Int64("user_id", id)
			}
			ev.Msg("request")
			return nil
		},
	})
}
