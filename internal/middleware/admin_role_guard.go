package middleware

import (
	"errors"
	"net/http"

	"autoparts/internal/domain/model"
	repo "autoparts/internal/repository"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// トークンのroleとプロフィール行のroleが両方adminのときだけ通す
func AdminRoleGuard(users repo.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get(CtxUserIDKey).(uuid.UUID)
			if !ok || userID == uuid.Nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			role, _ := c.Get(CtxUserRoleKey).(model.Role)
			if role != model.RoleAdmin {
				return c.JSON(http.StatusForbidden, errorJSON("admin only"))
			}

			ctx := c.Request().Context()
			u, err := users.FindByID(ctx, userID)
			if errors.Is(err, repo.ErrNotFound) {
				return c.JSON(http.StatusForbidden, errorJSON("admin only"))
			}
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("admin guard: load profile")
				return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}
			if u.Role != model.RoleAdmin {
				return c.JSON(http.StatusForbidden, errorJSON("admin only"))
			}

			return next(c)
		}
	}
}
