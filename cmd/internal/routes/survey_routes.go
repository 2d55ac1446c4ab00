package routes

import (
	"coachportal/cmd/internal/service"
	"coachportal/cmd/internal/utils/apierror"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type SurveyService interface {
	Submit(req *service.SubmitSurveyRequest, identity *service.Identity) (*service.MessageResponse, apierror.ErrorResponse)
	ListByUser(userID string) ([]*service.SurveyResponse, apierror.ErrorResponse)
}

type DefaultSurveyRoute struct {
	SurveyService SurveyService
	Auth          Authenticator
}

func NewSurveyDefault(surveyService SurveyService, auth Authenticator) *DefaultSurveyRoute {
	return &DefaultSurveyRoute{SurveyService: surveyService, Auth: auth}
}

func (s *DefaultSurveyRoute) Submit(c echo.Context) error {
	identity, apierr := identityFromCtx(c, s.Auth)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req service.SubmitSurveyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := s.SurveyService.Submit(&req, identity)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *DefaultSurveyRoute) GetSurveys(c echo.Context) error {
	userID := strings.TrimSpace(c.Param("user_id"))
	if userID == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("user_id"))
	}

	surveys, apierr := s.SurveyService.ListByUser(userID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, surveys)
}
