package middleware

import (
	"errors"
	"net/http"
	"strings"

	"autoparts/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	CtxUserIDKey   = "user_id"   // uuid.UUID
	CtxUserRoleKey = "user_role" // model.Role
)

// 認証プロバイダが発行したJWT（HS256）を検証する。
// sub=ユーザーID(uuid)、app_metadata.role=ロール
func AuthJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//JWTをパースして検証する（exp/nbfも見る）
			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			sub, _ := claims["sub"].(string)
			userID, err := uuid.Parse(sub)
			if err != nil || userID == uuid.Nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//contextへ保存
			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, roleFromClaims(claims))

			zerolog.Ctx(c.Request().Context()).UpdateContext(func(lc zerolog.Context) zerolog.Context {
				return lc.Str("user_id", userID.String())
			})

			return next(c)
		}
	}
}

// app_metadata.roleが無ければcustomer
func roleFromClaims(claims jwt.MapClaims) model.Role {
	meta, ok := claims["app_metadata"].(map[string]interface{})
	if !ok {
		return model.RoleCustomer
	}
	if r, ok := meta["role"].(string); ok && model.Role(r) == model.RoleAdmin {
		return model.RoleAdmin
	}
	return model.RoleCustomer
}
