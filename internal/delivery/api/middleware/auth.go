// Package middleware contains the echo middleware of the API delivery.
package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/api/response"
	deliverycontext "github.com/iconic-inc/iconic-erp-sub003/internal/delivery/context"
	domainerrors "github.com/iconic-inc/iconic-erp-sub003/internal/domain/errors"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/policy"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
	"github.com/iconic-inc/iconic-erp-sub003/internal/usecase"
)

const (
	apiPrefix = "/api/"
	// ReturnParam is the query parameter carrying the page to return to after login.
	ReturnParam = "redirect"
)

// AuthMiddlewareParams holds dependencies for AuthMiddleware, injected by Fx.
type AuthMiddlewareParams struct {
	fx.In

	Gate    usecase.AuthenticationGate
	Carrier service.SessionCarrier
	Config  *config.Config
	Logger  *slog.Logger
}

// AuthMiddleware runs the authentication gate and guards routes by capability.
type AuthMiddleware struct {
	gate      usecase.AuthenticationGate
	carrier   service.SessionCarrier
	loginPath string
	logger    *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	return &AuthMiddleware{
		gate:      params.Gate,
		carrier:   params.Carrier,
		loginPath: params.Config.Session.LoginPath,
		logger:    params.Logger,
	}
}

// Authenticate resolves the session carrier once per request. It never rejects a request itself;
// routes that need a principal add RequireAuth or RequireCapability.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var value string
		if cookie, err := c.Cookie(m.carrier.Name()); err == nil {
			value = cookie.Value
		}

		outcome, err := m.gate.Authenticate(c.Request().Context(), value)
		if err != nil {
			return err
		}

		switch {
		case outcome.State == usecase.GateRefreshed:
			c.SetCookie(m.carrier.Cookie(outcome.Carrier))
		case outcome.ClearCarrier:
			c.SetCookie(m.carrier.ClearCookie())
			deliverycontext.MarkSessionEnded(c)
		}

		if outcome.Authenticated() {
			deliverycontext.SetPrincipal(c, outcome.Principal, outcome.SessionID)
		}

		return next(c)
	}
}

// RequireAuth rejects requests without a principal. It must be used AFTER Authenticate.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := deliverycontext.GetPrincipal(c); !ok {
			return m.unauthenticated(c)
		}

		return next(c)
	}
}

// RequireCapability is a middleware factory that checks the principal's role against the policy.
// It must be used AFTER Authenticate.
func (m *AuthMiddleware) RequireCapability(capability policy.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := deliverycontext.GetPrincipal(c)
			if !ok {
				return m.unauthenticated(c)
			}

			if !policy.IsAllowed(principal.Role, capability) {
				deliverycontext.LoggerFrom(c.Request().Context(), m.logger).Info("Capability denied",
					slog.Any("principal_id", principal.ID),
					slog.String("role", principal.Role.String()),
					slog.String("capability", string(capability)),
				)

				return response.AppError(c, domainerrors.ErrForbidden)
			}

			return next(c)
		}
	}
}

// unauthenticated sends pages to the login form and API callers a 401 naming the login page.
func (m *AuthMiddleware) unauthenticated(c echo.Context) error {
	if IsAPIRequest(c.Request()) {
		session := response.SessionNone
		if deliverycontext.SessionEnded(c) {
			session = response.SessionEnded
		}

		return response.Unauthenticated(c, session, m.loginPath)
	}

	return c.Redirect(http.StatusFound, LoginRedirect(m.loginPath, c.Request().URL.RequestURI()))
}

// IsAPIRequest reports whether the request targets the JSON API rather than a page.
func IsAPIRequest(req *http.Request) bool {
	return strings.HasPrefix(req.URL.Path, apiPrefix)
}

// LoginRedirect builds the login location that returns to target after authentication.
func LoginRedirect(loginPath, target string) string {
	target = SafeReturnTarget(target)
	if target == "/" || target == loginPath {
		return loginPath
	}

	return loginPath + "?" + url.Values{ReturnParam: {target}}.Encode()
}

// SafeReturnTarget accepts only same-origin relative paths and falls back to "/".
func SafeReturnTarget(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}

	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return "/"
	}

	return target
}
