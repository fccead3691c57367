package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"academy/api/middleware"
	"academy/internal/dto"
	"academy/internal/entity"
	"academy/internal/service"
	"academy/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	oauthStateCookieName = "academy_oauth_state"
	oauthStateTTL        = 10 * time.Minute

	resetRequestedMessage = "If an account exists for that email, a reset code has been sent."
)

type AuthService interface {
	Register(ctx context.Context, input service.RegisterInput) (*entity.User, error)
	ConfirmVerification(ctx context.Context, email string, code string) (*entity.User, error)
	ResendVerification(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, clientID string, email string) error
	ResendPasswordReset(ctx context.Context, clientID string, email string) error
	ConfirmPasswordReset(ctx context.Context, input service.ConfirmResetInput) error
	Authenticate(ctx context.Context, email string, password string, ipAddress string) (*service.Identity, error)
	ProvisionFederatedUser(ctx context.Context, profile service.FederatedProfile) (*entity.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)
}

type SessionIssuer interface {
	IssueSession(identity service.Identity) (string, time.Duration, error)
}

type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (service.FederatedProfile, error)
}

type AuthHandler struct {
	Service           AuthService
	Sessions          SessionIssuer
	Google            OAuthProvider
	Validate          *validator.Validate
	Logger            logrus.FieldLogger
	CookieDomain      string
	SecureCookies     bool
	SameSite          http.SameSite
	PostLoginRedirect string
}

func NewAuthHandler(svc AuthService, sessions SessionIssuer, validate *validator.Validate, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		Service:           svc,
		Sessions:          sessions,
		Validate:          validate,
		Logger:            logger,
		SecureCookies:     true,
		SameSite:          http.SameSiteLaxMode,
		PostLoginRedirect: "/",
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeServiceError(c, err)
	}
	user, err := h.Service.Register(c.Request().Context(), service.RegisterInput{
		Email:         req.Email,
		Password:      req.Password,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		Address:       req.Address,
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.RegisterResponse{
		Message:              "User created successfully. Please check your email for a verification code.",
		User:                 dto.UserResponseFromEntity(user),
		RequiresVerification: true,
	})
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req dto.VerifyEmailRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeServiceError(c, err)
	}
	user, err := h.Service.ConfirmVerification(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.VerifyEmailResponse{
		Message: "Email verified successfully",
		User:    dto.UserResponseFromEntity(user),
	})
}

func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req dto.EmailRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeServiceError(c, err)
	}
	if err := h.Service.ResendVerification(c.Request().Context(), req.Email); err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Verification code sent"})
}

func (h *AuthHandler) PasswordForgot(c echo.Context) error {
	var req dto.EmailRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeServiceError(c, err)
	}
	clientID := middleware.ClientIdentifier(c.Request())
	if err := h.Service.RequestPasswordReset(c.Request().Context(), clientID, req.Email); err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: resetRequestedMessage})
}

func (h *AuthHandler) PasswordResendCode(c echo.Context) error {
	var req dto.EmailRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeServiceError(c, err)
	}
	clientID := middleware.ClientIdentifier(c.Request())
	if err := h.Service.ResendPasswordReset(c.Request().Context(), clientID, req.Email); err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: resetRequestedMessage})
}

func (h *AuthHandler) PasswordReset(c echo.Context) error {
	var req dto.PasswordResetRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeServiceError(c, err)
	}
	err := h.Service.ConfirmPasswordReset(c.Request().Context(), service.ConfirmResetInput{
		Email:       req.Email,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Password updated successfully"})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := h.bind(c, &req); err != nil {
		return h.writeServiceError(c, err)
	}
	ip := middleware.ClientIdentifier(c.Request())
	identity, err := h.Service.Authenticate(c.Request().Context(), req.Email, req.Password, ip)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	token, ttl, err := h.issueSession(c, *identity)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(ttl.Seconds()),
		User: dto.IdentityUser{
			ID:    identity.ID.String(),
			Email: identity.Email,
			Name:  identity.Name,
		},
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	h.clearCookie(c, middleware.SessionCookieName)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, "unauthorized", "unauthorized", nil)
	}
	user, err := h.Service.GetUser(c.Request().Context(), userID)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}

func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	if h.Google == nil {
		return writeError(c, http.StatusNotFound, "not_found", "google sign-in is not enabled", nil)
	}
	state, err := utils.GenerateRandomToken(32)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	h.setCookie(c, oauthStateCookieName, state, oauthStateTTL)
	return c.Redirect(http.StatusFound, h.Google.AuthCodeURL(state))
}

func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	if h.Google == nil {
		return writeError(c, http.StatusNotFound, "not_found", "google sign-in is not enabled", nil)
	}
	expected := h.readCookie(c, oauthStateCookieName)
	h.clearCookie(c, oauthStateCookieName)
	if expected == "" || c.QueryParam("state") != expected {
		return writeError(c, http.StatusBadRequest, "validation_error", "invalid oauth state", nil)
	}
	if c.QueryParam("error") != "" || c.QueryParam("code") == "" {
		return writeError(c, http.StatusUnauthorized, "unauthorized", "google sign-in was not completed", nil)
	}

	ctx := c.Request().Context()
	profile, err := h.Google.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		return h.writeServiceError(c, err)
	}
	user, err := h.Service.ProvisionFederatedUser(ctx, profile)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	identity := service.Identity{ID: user.ID, Email: user.Email, Name: user.DisplayName()}
	if _, _, err := h.issueSession(c, identity); err != nil {
		return h.writeServiceError(c, err)
	}
	return c.Redirect(http.StatusFound, h.PostLoginRedirect)
}

// requestError is a malformed or invalid request body.
type requestError struct {
	message string
	details []dto.FieldError
}

func (e *requestError) Error() string {
	return e.message
}

func (h *AuthHandler) bind(c echo.Context, target any) error {
	if err := decodeJSON(c, target); err != nil {
		return &requestError{message: "invalid request body"}
	}
	if h.Validate == nil {
		return nil
	}
	if err := h.Validate.Struct(target); err != nil {
		return &requestError{message: "invalid input", details: dto.FieldErrors(err)}
	}
	return nil
}

func (h *AuthHandler) issueSession(c echo.Context, identity service.Identity) (string, time.Duration, error) {
	if h.Sessions == nil {
		return "", 0, service.ErrInvalidToken
	}
	token, ttl, err := h.Sessions.IssueSession(identity)
	if err != nil {
		return "", 0, err
	}
	h.setCookie(c, middleware.SessionCookieName, token, ttl)
	return token, ttl, nil
}

func (h *AuthHandler) setCookie(c echo.Context, name string, value string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: h.SameSite,
	})
}

func (h *AuthHandler) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: h.SameSite,
	})
}

func (h *AuthHandler) readCookie(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeError(c echo.Context, status int, kind string, message string, details []dto.FieldError) error {
	return c.JSON(status, dto.ErrorResponse{Error: kind, Message: message, Details: details})
}

func (h *AuthHandler) writeServiceError(c echo.Context, err error) error {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return writeError(c, http.StatusBadRequest, "validation_error", reqErr.message, reqErr.details)
	}
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return writeError(c, http.StatusBadRequest, "validation_error", "invalid input", []dto.FieldError{{
			Field:   validationErr.Field,
			Message: validationErr.Message,
		}})
	}

	status, kind := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status, kind = http.StatusBadRequest, "validation_error"
	case errors.Is(err, service.ErrUserNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrEmailAlreadyRegistered), errors.Is(err, service.ErrEmailAlreadyVerified):
		status, kind = http.StatusBadRequest, "conflict"
	case errors.Is(err, service.ErrInvalidOrExpiredCode):
		status, kind = http.StatusBadRequest, "invalid_or_expired_code"
	case errors.Is(err, service.ErrRateLimited):
		status, kind = http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, service.ErrNotificationFailed):
		return writeError(c, http.StatusInternalServerError, "notification_failure", service.ErrNotificationFailed.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		status, kind = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, service.ErrEmailNotVerified), errors.Is(err, service.ErrFederatedEmailNotVerified):
		status, kind = http.StatusForbidden, "email_not_verified"
	case errors.Is(err, service.ErrNoPasswordSet):
		status, kind = http.StatusBadRequest, "no_password_set"
	case errors.Is(err, service.ErrInvalidOAuthCode), errors.Is(err, service.ErrInvalidToken):
		status, kind = http.StatusUnauthorized, "unauthorized"
	}
	if status == http.StatusInternalServerError {
		h.logError(c, err)
		return writeError(c, status, kind, "internal server error", nil)
	}
	return writeError(c, status, kind, err.Error(), nil)
}

func (h *AuthHandler) logError(c echo.Context, err error) {
	if h.Logger == nil {
		return
	}
	h.Logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Request().Method,
		"path":   c.Path(),
	}).Error("request failed")
}
