package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-system/internal/api/metrics"
	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/internal/core/ports"
)

const tokenType = "bearer"

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new local user account with the user role.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, domain.ErrDuplicateKey) {
			outcome = "duplicate"
		}
		metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusCreated, user)
}

// Login authenticates a local user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("password", loginOutcome(err)).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("password", "success").Inc()
	return c.JSON(http.StatusOK, tokenResponse{Token: result.Token, TokenType: tokenType, User: result.User})
}

// GoogleLogin signs in with a Google ID token or authorization code,
// creating or linking the local account as needed.
//
// @Summary      Login with Google
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      googleLoginRequest  true  "Google credential; kind is id_token or code"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/google [post]
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	var req googleLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.GoogleLogin(c.Request().Context(), ports.GoogleCredential{
		Kind:  ports.GoogleCredentialKind(req.Kind),
		Token: req.Token,
	})
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("google", loginOutcome(err)).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("google", "success").Inc()
	return c.JSON(http.StatusOK, tokenResponse{Token: result.Token, TokenType: tokenType, User: result.User})
}

// GoogleAuthURL returns the Google consent screen URL.
//
// @Summary      Google consent URL
// @Tags         auth
// @Produce      json
// @Success      200  {object}  googleURLResponse
// @Failure      500  {object}  errorResponse
// @Router       /auth/google/url [get]
func (h *AuthHandler) GoogleAuthURL(c echo.Context) error {
	u, err := h.authService.GoogleAuthURL(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, googleURLResponse{AuthURL: u.URL, State: u.State})
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrGoogleAuthFailed):
		return "rejected"
	default:
		return "error"
	}
}
