package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smartclassroom/backend/core/roster"
	"github.com/smartclassroom/backend/core/user"
)

type adminApi struct {
	roster *roster.Service
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, rosterSvc *roster.Service) {
	api := adminApi{roster: rosterSvc}

	ag := g.Group("/admin", jwt, adminProfileMiddleware(rosterSvc))
	ag.GET("/unassigned-users", api.queryUnassigned, roleMiddleware(user.RoleAdmin))
	ag.POST("/assign-role", api.assignRole, roleMiddleware(user.RoleAdmin))
	ag.GET("/classes", api.queryClasses, roleMiddleware(user.RoleAdmin, user.RoleTeacher))
	ag.POST("/classes", api.createClass, roleMiddleware(user.RoleAdmin))
}

// Handlers

func (api *adminApi) queryUnassigned(ctx echo.Context) error {
	users, err := api.roster.QueryUnassignedUsers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying unassigned users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *adminApi) assignRole(ctx echo.Context) error {
	var data roster.AssignRole
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignRole")
	}

	p, err := api.roster.AssignRole(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "assigning role")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: roster.RoleAssignedMessage(p)})
}

func (api *adminApi) queryClasses(ctx echo.Context) error {
	classes, err := api.roster.QueryClasses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []roster.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *adminApi) createClass(ctx echo.Context) error {
	var data roster.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}

	class, err := api.roster.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, class)
}
