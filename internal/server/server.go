package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"autoparts/internal/config"
	"autoparts/internal/middleware"
	repo "autoparts/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// echoを組み立てる（middleware + ルート）
func New(cfg config.Config, log zerolog.Logger, users repo.UserRepository, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Idempotency-Key", middleware.HeaderRequestID},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit("10M"))

	auth := middleware.AuthJWT(cfg.JWTSecret)
	user := []echo.MiddlewareFunc{auth}
	admin := []echo.MiddlewareFunc{auth, middleware.AdminRoleGuard(users)}

	RegisterRoutes(e, h, user, admin)
	return e
}

// ctxが終わるまで待ち受け、終わったらgraceful shutdown
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
