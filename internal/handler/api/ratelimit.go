package api

import (
	"strconv"

	"ContraTrack/internal/service/ratelimit"
	xhttp "ContraTrack/pkg/http"

	"github.com/labstack/echo/v4"
)

// RateLimit throttles requests per client IP.
func RateLimit(l *ratelimit.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				c.Response().Header().Set("Retry-After", strconv.Itoa(1))
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
			}
			return next(c)
		}
	}
}
