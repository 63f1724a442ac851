package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smartclassroom/backend/core/roster"
	"github.com/smartclassroom/backend/core/user"
)

// roleMiddleware only lets through users holding one of roles.
func roleMiddleware(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

// adminProfileMiddleware requires callers with the admin role to also hold an admin profile
// (created by the admin CLI).
func adminProfileMiddleware(rosterSvc *roster.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Role != user.RoleAdmin {
				return next(ctx)
			}
			p, err := rosterSvc.Profile(ctx.Request().Context(), claims.UserID)
			if err != nil {
				if err == roster.ErrProfileNotFound {
					return errHttpForbidden
				}
				return errors.Wrap(err, "finding admin profile")
			}
			if _, ok := p.(roster.AdminProfile); !ok {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// selfMiddleware only lets through the user whose ID is the path param.
func selfMiddleware(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			id, err := intParam(ctx, param)
			if err != nil {
				return err
			}
			if id != claims.UserID {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

func intParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}
