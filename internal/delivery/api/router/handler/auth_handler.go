// Package handler contains the echo handlers of the API delivery.
package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/api/middleware"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/api/response"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/api/validator"
	deliverycontext "github.com/iconic-inc/iconic-erp-sub003/internal/delivery/context"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	domainerrors "github.com/iconic-inc/iconic-erp-sub003/internal/domain/errors"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/policy"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
	"github.com/iconic-inc/iconic-erp-sub003/internal/usecase"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	AuthUC  usecase.AuthUsecase
	Carrier service.SessionCarrier
	Config  *config.Config
	Logger  *slog.Logger
}

// AuthHandler holds dependencies for login and logout handlers
type AuthHandler struct {
	authUC    usecase.AuthUsecase
	carrier   service.SessionCarrier
	loginPath string
	logger    *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		authUC:    params.AuthUC,
		carrier:   params.Carrier,
		loginPath: params.Config.Session.LoginPath,
		logger:    params.Logger,
	}
}

// LoginRequest represents the login form or JSON body
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email,max=254"`
	Password string `json:"password" form:"password" validate:"required,max=128"`
	Redirect string `json:"redirect" form:"redirect" validate:"omitempty,max=2048"`
}

// LoginResponse is returned to JSON callers after a successful login
type LoginResponse struct {
	Principal entity.PrincipalSnapshot `json:"principal"`
	SessionID uuid.UUID                `json:"sessionId"`
	ExpiresAt time.Time                `json:"expiresAt"`
	Redirect  string                   `json:"redirect"`
}

// MeResponse describes the authenticated principal and what it may do
type MeResponse struct {
	Principal    *entity.PrincipalSnapshot `json:"principal"`
	SessionID    uuid.UUID                 `json:"sessionId"`
	Capabilities []policy.Capability       `json:"capabilities"`
}

// Login handles password login. Form posts are redirected, JSON callers get the principal.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid login input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequestWithDetails(c, "VALIDATION_ERROR", "Invalid login input", validator.FieldErrors(err))
	}

	out, err := h.authUC.Login(c.Request().Context(), &usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request().UserAgent(),
		RemoteIP:  c.RealIP(),
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	c.SetCookie(h.carrier.Cookie(out.Carrier))
	target := middleware.SafeReturnTarget(req.Redirect)

	if isFormPost(c) {
		return c.Redirect(http.StatusSeeOther, target)
	}

	return response.Success(c, http.StatusOK, LoginResponse{
		Principal: out.Principal,
		SessionID: out.SessionID,
		ExpiresAt: out.ExpiresAt,
		Redirect:  target,
	})
}

// Logout revokes the current session, clears the carrier and returns to the login page.
func (h *AuthHandler) Logout(c echo.Context) error {
	var value string
	if cookie, err := c.Cookie(h.carrier.Name()); err == nil {
		value = cookie.Value
	}

	if err := h.authUC.Logout(c.Request().Context(), value); err != nil {
		return response.HandleAppError(c, err)
	}
	c.SetCookie(h.carrier.ClearCookie())

	return c.Redirect(http.StatusSeeOther, middleware.LoginRedirect(h.loginPath, c.FormValue(middleware.ReturnParam)))
}

// LogoutEverywhere revokes every session of the caller, including the current one.
func (h *AuthHandler) LogoutEverywhere(c echo.Context) error {
	principal, ok := deliverycontext.GetPrincipal(c)
	if !ok {
		return response.AppError(c, domainerrors.ErrUnauthenticated)
	}

	revoked, err := h.authUC.LogoutEverywhere(c.Request().Context(), principal.ID)
	if err != nil {
		return response.HandleAppError(c, err)
	}
	c.SetCookie(h.carrier.ClearCookie())

	return response.Success(c, http.StatusOK, map[string]int{"revoked": revoked})
}

// Me returns the authenticated principal with its granted capabilities.
func (h *AuthHandler) Me(c echo.Context) error {
	principal, ok := deliverycontext.GetPrincipal(c)
	if !ok {
		return response.AppError(c, domainerrors.ErrUnauthenticated)
	}
	sessionID, _ := deliverycontext.GetSessionID(c)

	return response.Success(c, http.StatusOK, MeResponse{
		Principal:    principal,
		SessionID:    sessionID,
		Capabilities: policy.CapabilitiesFor(principal.Role),
	})
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}

func isFormPost(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm)
}
