package routes

import (
	"coachportal/cmd/internal/service"
	"coachportal/cmd/internal/utils"
	"coachportal/cmd/internal/utils/apierror"
	"net/http"

	"github.com/labstack/echo/v4"
)

type AuthService interface {
	Register(req *service.RegisterRequest) (*service.RegisterResponse, apierror.ErrorResponse)
	Login(req *service.LoginRequest) (*service.LoginResponse, apierror.ErrorResponse)
	CurrentUser(token string) (*service.CurrentUserResponse, apierror.ErrorResponse)
	VerifyEmail(req *service.VerifyEmailRequest) (*service.VerifyEmailResponse, apierror.ErrorResponse)
	ResendConfirmation(req *service.ResendConfirmationRequest) (*service.MessageResponse, apierror.ErrorResponse)
	Logout(token string) *service.MessageResponse
}

type DefaultAuthRoute struct {
	AuthService AuthService
}

func NewAuthDefault(authService AuthService) *DefaultAuthRoute {
	return &DefaultAuthRoute{AuthService: authService}
}

func (a *DefaultAuthRoute) Register(c echo.Context) error {
	var req service.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := a.AuthService.Register(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (a *DefaultAuthRoute) Login(c echo.Context) error {
	var req service.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := a.AuthService.Login(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *DefaultAuthRoute) Me(c echo.Context) error {
	resp, apierr := a.AuthService.CurrentUser(utils.BearerToken(c))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *DefaultAuthRoute) VerifyEmail(c echo.Context) error {
	var req service.VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := a.AuthService.VerifyEmail(&req)
	if apierr != nil {
		// The confirmation page reads the success flag.
		return c.JSON(apierr.Code(), echo.Map{"success": false, "error": apierr.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *DefaultAuthRoute) ResendConfirmation(c echo.Context) error {
	var req service.ResendConfirmationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := a.AuthService.ResendConfirmation(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *DefaultAuthRoute) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, a.AuthService.Logout(utils.BearerToken(c)))
}
