package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smartclassroom/backend/core/roster"
	"github.com/smartclassroom/backend/core/user"
)

type userApi struct {
	svc    *user.Service
	roster *roster.Service
	tokens *Tokenizer
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, tokens *Tokenizer, svc *user.Service, rosterSvc *roster.Service) {
	api := userApi{svc: svc, roster: rosterSvc, tokens: tokens}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/signup", api.signup)
	ug.POST("/login", api.login)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.GET("/me/profile", api.profile)
	ag.GET("/student/meta/:user_id", api.studentMeta)
	ag.GET("/teacher/meta/:user_id", api.teacherMeta)
}

// Handlers

func (api *userApi) signup(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, SignupResponse{Message: "User created successfully", UserID: usr.ID})
}

func (api *userApi) login(ctx echo.Context) error {
	var data user.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.tokens.GenerateToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      usr.ID,
		Role:        usr.Role,
		Username:    usr.Username,
	})
}

func (api *userApi) profile(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), claims.UserID)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	resp := ProfileResponse{User: usr}
	p, err := api.roster.Profile(ctx.Request().Context(), usr.ID)
	switch err {
	case nil:
		resp.Profile = p
	case roster.ErrProfileNotFound: // not assigned yet
	default:
		return errors.Wrap(err, "finding profile")
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *userApi) studentMeta(ctx echo.Context) error {
	userID, err := intParam(ctx, "user_id")
	if err != nil {
		return err
	}
	meta, err := api.roster.StudentMeta(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	return ctx.JSON(http.StatusOK, meta)
}

func (api *userApi) teacherMeta(ctx echo.Context) error {
	userID, err := intParam(ctx, "user_id")
	if err != nil {
		return err
	}
	meta, err := api.roster.TeacherMeta(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "finding teacher")
	}
	return ctx.JSON(http.StatusOK, meta)
}

type (
	SignupResponse struct {
		Message string `json:"message"`
		UserID  int    `json:"user_id"`
	}

	LoginResponse struct {
		AccessToken string    `json:"access_token"`
		TokenType   string    `json:"token_type"`
		UserID      int       `json:"user_id"`
		Role        user.Role `json:"role"`
		Username    string    `json:"username"`
	}

	// ProfileResponse carries the role profile of the user, or none if no role has been assigned yet.
	ProfileResponse struct {
		User    user.User      `json:"user"`
		Profile roster.Profile `json:"profile"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}
)
