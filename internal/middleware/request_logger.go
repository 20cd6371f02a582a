package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxRequestIDKey = "request_id"
)

// リクエストごとにrequest_id付きのloggerをcontextに入れ、完了時に1行出す
// panicもここで拾って500を返す
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			start := time.Now()
			req := c.Request()

			reqID := req.Header.Get(HeaderRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Response().Header().Set(HeaderRequestID, reqID)
			c.Set(CtxRequestIDKey, reqID)

			l := base.With().Str("request_id", reqID).Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			defer func() {
				if r := recover(); r != nil {
					var errMsg string
					if e, ok := r.(error); ok {
						errMsg = e.Error()
					} else {
						errMsg = fmt.Sprintf("%v", r)
					}
					l.Error().
						Str("method", req.Method).
						Str("path", c.Path()).
						Str("error", errMsg).
						Msg("panic recovered")

					if !c.Response().Committed {
						_ = c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
					}
					err = nil
				}
			}()

			if err = next(c); err != nil {
				// echoのエラーハンドラでステータスを確定させる
				c.Error(err)
				err = nil
			}

			ev := l.Info()
			status := c.Response().Status
			if status >= http.StatusInternalServerError {
				ev = l.Error()
			}
			if uid, ok := c.Get(CtxUserIDKey).(uuid.UUID); ok {
				ev = ev.Str("user_id", uid.String())
			}
			ev.Str("method", req.Method).
				Str("uri", req.RequestURI).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Msg("request completed")
			return nil
		}
	}
}
