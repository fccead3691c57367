package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"academy/api/handler"
	apiMiddleware "academy/api/middleware"
	"academy/api/routes"
	"academy/config"
	"academy/internal/dto"
	"academy/internal/ratelimit"
	"academy/internal/repository"
	"academy/internal/service"
	"academy/internal/utils"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectionDb(cfg)
	if err != nil {
		logger.WithError(err).Fatal("database")
	}
	logger.Info("success connect to db")

	resetLimiter, err := newResetLimiter(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("rate limiter")
	}
	logger.WithFields(logrus.Fields{
		"limit":  resetLimiter.Limit(),
		"window": resetLimiter.Window().String(),
	}).Info("password reset limiter ready")

	sender, err := newEmailSender(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("email sender")
	}

	jwtManager := utils.JWTManager{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		SessionTTL: cfg.SessionTTL,
	}

	authService := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewVerificationCodeRepository(db),
		repository.NewPasswordResetCodeRepository(db),
		repository.NewSecurityLogRepository(db),
		service.NewMailer(sender, cfg.SiteName),
		service.BcryptPasswordHasher{Cost: cfg.BcryptCost},
		resetLimiter,
		service.RealClock{},
		logger,
		service.AuthConfig{
			VerificationCodeTTL: cfg.VerificationCodeTTL,
			ResetCodeTTL:        cfg.ResetCodeTTL,
			MinPasswordLength:   cfg.MinPasswordLength,
		},
	)

	authHandler := handler.NewAuthHandler(authService, service.JWTSessionIssuer{Manager: &jwtManager}, dto.NewValidator(), logger)
	authHandler.CookieDomain = cfg.CookieDomain
	authHandler.SecureCookies = cfg.CookieSecure
	authHandler.PostLoginRedirect = cfg.PostLoginRedirect
	if cfg.GoogleEnabled() {
		authHandler.Google = service.NewGoogleOAuthProvider(service.GoogleOAuthConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
	}

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.HTTPErrorHandler = handler.HTTPErrorHandler(logger)
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	flood := apiMiddleware.NewFloodGuard(rate.Limit(cfg.FloodRate), cfg.FloodBurst, 10*time.Minute)
	router := routes.NewRouter(app, authHandler, apiMiddleware.AuthMiddleware{JWT: &jwtManager}, flood)
	router.Health = databaseHealth(db)
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("shutdown")
		}
	}()

	logger.WithField("addr", cfg.HTTPAddr).Info("server started")
	if err := app.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server stopped")
	}
}

func newResetLimiter(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*ratelimit.Limiter, error) {
	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RedisURL != "" {
		client, err := config.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		store = ratelimit.NewRedisStore(client, "academy:reset:")
		logger.Info("password reset limiter uses redis")
	}
	return ratelimit.New(store, cfg.ResetRateLimit, cfg.ResetRateWindow)
}

func newEmailSender(cfg config.Config, logger logrus.FieldLogger) (service.EmailSender, error) {
	switch cfg.EmailProvider {
	case config.EmailProviderResend:
		return service.NewResendEmailSender(cfg.ResendAPIKey, cfg.EmailFrom)
	case config.EmailProviderPostmark:
		return service.NewPostmarkEmailSender(cfg.PostmarkServerToken, cfg.PostmarkAccountToken, cfg.EmailFrom, cfg.EmailReplyTo)
	}
	logger.Warn("email provider is log, messages are not delivered")
	return service.LogEmailSender{Logger: logger}, nil
}

func databaseHealth(db *gorm.DB) routes.HealthChecker {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
