package routes

import (
	"coachportal/cmd/internal/utils/apierror"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// ErrorHandler renders errors no handler turned into a response. Echo's
// own errors (unknown route, wrong method, rate limit) keep their status;
// anything else is logged and answered with the catch-all error.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		_ = c.JSON(he.Code, apierror.NewSimple(he.Code, fmt.Sprint(he.Message)))
		return
	}

	log.Errorf("unhandled error on %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	_ = c.JSON(apierror.InternalServerError.Code(), apierror.InternalServerError)
}
