package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smartclassroom/backend/core/chat"
)

type chatApi struct {
	svc *chat.Service
}

func registerChatAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *chat.Service) {
	api := chatApi{svc: svc}

	cg := g.Group("/chat", jwt)
	cg.POST("/send", api.send)
	cg.GET("/:session_id", api.history)
}

// Handlers

func (api *chatApi) send(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data chat.SendMessage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendMessage")
	}
	data.UserID = claims.UserID
	data.Role = claims.Role

	reply, err := api.svc.Send(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusOK, reply)
}

func (api *chatApi) history(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	conv, err := api.svc.History(ctx.Request().Context(), claims.UserID, ctx.Param("session_id"))
	if err != nil {
		return errors.Wrap(err, "finding conversation")
	}
	return ctx.JSON(http.StatusOK, conv)
}
