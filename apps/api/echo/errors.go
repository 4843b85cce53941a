package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/LeoRoessmann/KT-course/core"
	"github.com/LeoRoessmann/KT-course/core/appbuilder"
	"github.com/LeoRoessmann/KT-course/core/launcher"
	"github.com/LeoRoessmann/KT-course/core/submission"
	"github.com/LeoRoessmann/KT-course/core/vcs"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "instructor not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errInstructorDisabled   = echo.NewHTTPError(http.StatusForbidden, "instructor mode is off")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errLabNotFound          = echo.NewHTTPError(http.StatusNotFound, "lab not found")
	errWriteFailed          = echo.NewHTTPError(http.StatusInternalServerError, "could not write lab state")
	errKillFailed           = echo.NewHTTPError(http.StatusInternalServerError, "could not terminate process")
	errNoRepository         = echo.NewHTTPError(http.StatusNotFound, vcs.ErrNotRepository.Error())
)

// domainErrors maps the sentinel errors of the core packages to a status code.
var domainErrors = []struct {
	err  error
	code int
}{
	{appbuilder.ErrSessionNotFound, http.StatusNotFound},
	{launcher.ErrNotFound, http.StatusNotFound},
	{vcs.ErrNotRepository, http.StatusNotFound},
	{launcher.ErrNotLaunchable, http.StatusBadRequest},
	{appbuilder.ErrUnknownWidget, http.StatusBadRequest},
	{appbuilder.ErrUnknownAssignment, http.StatusBadRequest},
	{submission.ErrNoSubmitEmail, http.StatusBadRequest},
	{submission.ErrNoQuestionnaire, http.StatusBadRequest},
	{submission.ErrNoConsoleLog, http.StatusBadRequest},
	{submission.ErrNoAnswers, http.StatusBadRequest},
	{submission.ErrUnsupportedAnswers, http.StatusBadRequest},
	{submission.ErrInvalidName, http.StatusBadRequest},
}

func domainStatus(err error) (int, error, bool) {
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			return d.code, d.err, true
		}
	}
	return 0, nil, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		if status, sentinel, ok := domainStatus(err); ok {
			code = status
			message = sentinel.Error()
		} else {
			switch origErr := cause.(type) {
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
			case validator.ValidationErrors:
				fldErrs := make(map[string]string, len(origErr))
				for _, vErr := range origErr {
					fldErrs[vErr.Field()] = vErr.Translate(translator)
				}
				code = http.StatusBadRequest
				message = fldErrs
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
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				fields := core.Fields{"method": ctx.Request().Method, "path": ctx.Path()}
				if folder := ctx.Param("folder"); folder != "" {
					fields["folder"] = folder
				}
				logger.Error(msg, errors.Wrap(err, msg), fields)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
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
