package main

import (
	"coachportal/cmd/internal/config"
	"coachportal/cmd/internal/domain/store"
	"coachportal/cmd/internal/domain/store/repository"
	cognitoclient "coachportal/cmd/internal/integration/aws/cognito"
	"coachportal/cmd/internal/integration/calendly"
	"coachportal/cmd/internal/routes"
	"coachportal/cmd/internal/service"
	"coachportal/cmd/internal/utils/validators"
	"context"
	"errors"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	log.SetLevel(parseLogLevel(cfg.LogLevel))

	validate := validator.New()
	registerValidators(validate)

	db, err := store.Init(cfg.Database)
	if err != nil {
		log.Fatal("failed to initialize database: ", err)
	}

	// Cognito client
	cogClient, err := cognitoclient.InitCognitoClient(cfg.Cognito, cfg.HTTPTimeout)
	if err != nil {
		log.Fatal("failed to initialize cognito client: ", err)
	}

	calendlyClient := calendly.NewClient(cfg.Calendly, cfg.HTTPTimeout)
	if !calendlyClient.IsConfigured() {
		log.Warn("CALENDLY_API_KEY is not set, calendly sync and availability are disabled")
	}

	// Getting repositories
	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)

	// Getting services
	profileService := service.NewProfileService(userRepo)
	authService := service.NewAuthService(profileService, validate, cogClient)
	bookingService := service.NewBookingService(bookingRepo, calendlyClient, profileService, validate, service.NewBookingSettings(cfg.Calendly))
	webhookService := service.NewWebhookService(profileService, bookingService)
	surveyService := service.NewSurveyService(surveyRepo, profileService, validate)

	// Getting routes
	authRoutes := routes.NewAuthDefault(authService)
	bookingRoutes := routes.NewBookingDefault(bookingService, authService)
	surveyRoutes := routes.NewSurveyDefault(surveyService, authService)
	webhookRoutes := routes.NewWebhookDefault(webhookService)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = routes.ErrorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/api/health", routes.Health)

	// Auth
	auth := e.Group("/api/auth", authRateLimiter(cfg.AuthRateLimit))
	auth.POST("/register", authRoutes.Register)
	auth.POST("/login", authRoutes.Login)
	auth.GET("/me", authRoutes.Me)
	auth.POST("/verify-email", authRoutes.VerifyEmail)
	auth.POST("/resend-confirmation", authRoutes.ResendConfirmation)
	auth.POST("/logout", authRoutes.Logout)

	// Surveys
	e.POST("/api/surveys/submit", surveyRoutes.Submit)
	e.GET("/api/surveys/:user_id", surveyRoutes.GetSurveys)

	// Bookings
	e.GET("/api/bookings", bookingRoutes.GetBookings)
	e.GET("/api/bookings/config", bookingRoutes.GetConfig)
	e.GET("/api/bookings/availability", bookingRoutes.GetAvailability)
	e.POST("/api/bookings/book", bookingRoutes.Book)

	// Webhooks
	e.POST("/api/webhooks/calendly", webhookRoutes.Calendly)

	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.ReadTimeout = 30 * time.Second
	// Listing bookings may walk every Calendly event sequentially.
	e.Server.WriteTimeout = 2 * time.Minute

	if err := handleGracefulShutdown(e, ":"+cfg.Port); err != nil {
		log.Fatal(err)
	}
}

func handleGracefulShutdown(e *echo.Echo, addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

func authRateLimiter(perSecond float64) echo.MiddlewareFunc {
	limits := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     int(math.Max(1, math.Ceil(perSecond*2))),
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiter(limits)
}

func parseLogLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

func registerValidators(validate *validator.Validate) {
	validate.RegisterTagNameFunc(validators.JSONFieldName)
	_ = validate.RegisterValidation("nospaces", validators.NoWhiteSpaces)
	_ = validate.RegisterValidation("iso8601", validators.IsIso8601)
}
