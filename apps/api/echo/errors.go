package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/user"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")

	kindCodes = map[error]int{
		core.ErrNotFound:     http.StatusNotFound,
		core.ErrConflict:     http.StatusConflict,
		core.ErrBadRequest:   http.StatusBadRequest,
		core.ErrUnauthorized: http.StatusUnauthorized,
		core.ErrForbidden:    http.StatusForbidden,
		core.ErrService:      http.StatusBadGateway,
		core.ErrEvaluation:   http.StatusBadGateway,
		core.ErrRollback:     http.StatusInternalServerError,
	}
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// Server errors are logged with the user of the request.
func newAppHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}
		var domainErr *core.Error

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if errors.As(err, &domainErr) {
				code = kindCodes[domainErr.Kind]
				// the message of a domain error embeds its cause
				message = domainErr.Error()
				if code >= http.StatusInternalServerError {
					logError(ctx, logger, domainErr.Error(), err)
				}
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logError(ctx, logger, msg, err)
		}
		if code == 0 {
			code = http.StatusInternalServerError
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func logError(ctx echo.Context, logger core.Logger, msg string, err error) {
	var usr user.User
	if claims, cErr := getContextClaims(ctx); cErr == nil {
		usr = claimsUser(claims)
	}
	logger.Error(msg, errors.Wrap(err, msg), usr)
}
