package routes

import (
	"coachportal/cmd/internal/service"
	"coachportal/cmd/internal/utils"
	"coachportal/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type Authenticator interface {
	Authenticate(token string) (*service.Identity, apierror.ErrorResponse)
}

func identityFromCtx(c echo.Context, auth Authenticator) (*service.Identity, apierror.ErrorResponse) {
	return auth.Authenticate(utils.BearerToken(c))
}
