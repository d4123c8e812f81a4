package middleware

import (
	"github.com/Ramsey-B/clover/pkg/context"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			// get request id from header
			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, req.URL.Path)
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			ctx = context.SetReferer(ctx, req.Referer())

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
