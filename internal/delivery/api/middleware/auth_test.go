package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	deliverycontext "github.com/iconic-inc/iconic-erp-sub003/internal/delivery/context"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	domainerrors "github.com/iconic-inc/iconic-erp-sub003/internal/domain/errors"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/policy"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/auth"
	"github.com/iconic-inc/iconic-erp-sub003/internal/usecase"
)

type gateFunc func(ctx context.Context, carrier string) (*usecase.GateOutcome, error)

func (f gateFunc) Authenticate(ctx context.Context, carrier string) (*usecase.GateOutcome, error) {
	return f(ctx, carrier)
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		SecretKey: config.SecretKeyConfig{
			Carrier: "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=",
		},
		Session: config.SessionConfig{
			CookieName: "erp_session",
			Path:       "/",
			MaxSize:    4096,
			LoginPath:  "/login",
		},
		Auth: &config.AuthConfig{},
	}
	cfg.Auth.LoginRateLimit.RequestsPerSecond = 1
	cfg.Auth.LoginRateLimit.Burst = 2

	return cfg
}

func newTestAuthMiddleware(t *testing.T, gate usecase.AuthenticationGate) *AuthMiddleware {
	t.Helper()

	cfg := newTestConfig()
	carrier, err := auth.NewCookieCarrier(cfg)
	require.NoError(t, err)

	return NewAuthMiddleware(AuthMiddlewareParams{
		Gate:    gate,
		Carrier: carrier,
		Config:  cfg,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	principal := &entity.PrincipalSnapshot{ID: uuid.New(), Role: entity.RoleEmployee}
	sessionID := uuid.New()

	t.Run("valid session attaches principal", func(t *testing.T) {
		var seen string
		m := newTestAuthMiddleware(t, gateFunc(func(_ context.Context, carrier string) (*usecase.GateOutcome, error) {
			seen = carrier

			return &usecase.GateOutcome{State: usecase.GateValid, Principal: principal, SessionID: sessionID}, nil
		}))

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: "erp_session", Value: "sealed"})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := m.Authenticate(func(c echo.Context) error {
			got, ok := deliverycontext.GetPrincipal(c)
			require.True(t, ok)
			assert.Equal(t, principal.ID, got.ID)
			assert.Equal(t, principal, deliverycontext.PrincipalFromContext(c.Request().Context()))
			assert.Equal(t, sessionID, deliverycontext.SessionIDFromContext(c.Request().Context()))

			return okHandler(c)
		})(c)
		require.NoError(t, err)
		assert.Equal(t, "sealed", seen)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("refreshed session replaces the cookie", func(t *testing.T) {
		m := newTestAuthMiddleware(t, gateFunc(func(context.Context, string) (*usecase.GateOutcome, error) {
			return &usecase.GateOutcome{State: usecase.GateRefreshed, Principal: principal, SessionID: sessionID, Carrier: "next"}, nil
		}))

		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), rec)

		require.NoError(t, m.Authenticate(okHandler)(c))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "erp_session", cookies[0].Name)
		assert.Equal(t, "next", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("rejected session clears the cookie", func(t *testing.T) {
		m := newTestAuthMiddleware(t, gateFunc(func(context.Context, string) (*usecase.GateOutcome, error) {
			return &usecase.GateOutcome{State: usecase.GateAnonymous, Reason: usecase.ReasonTampered, ClearCarrier: true}, nil
		}))

		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), rec)

		require.NoError(t, m.Authenticate(func(c echo.Context) error {
			_, ok := deliverycontext.GetPrincipal(c)
			assert.False(t, ok)

			return okHandler(c)
		})(c))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Less(t, cookies[0].MaxAge, 0)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		m := newTestAuthMiddleware(t, gateFunc(func(context.Context, string) (*usecase.GateOutcome, error) {
			return nil, errors.Wrap(domainerrors.ErrCredentialStoreUnavailable, "lookup")
		}))

		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), httptest.NewRecorder())

		err := m.Authenticate(okHandler)(c)
		assert.ErrorIs(t, err, domainerrors.ErrCredentialStoreUnavailable)
	})
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	m := newTestAuthMiddleware(t, nil)
	e := echo.New()

	t.Run("page request redirects to login", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/reports/monthly?year=2026", nil), rec)

		require.NoError(t, m.RequireAuth(okHandler)(c))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login?redirect=%2Freports%2Fmonthly%3Fyear%3D2026", rec.Header().Get(echo.HeaderLocation))
	})

	t.Run("api request gets 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/sessions", nil), rec)

		require.NoError(t, m.RequireAuth(okHandler)(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "UNAUTHENTICATED")
		assert.Contains(t, rec.Body.String(), `"session":"none"`)
		assert.Contains(t, rec.Body.String(), `"login_url":"/login"`)
	})

	t.Run("authenticated request passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/sessions", nil), rec)
		deliverycontext.SetPrincipal(c, &entity.PrincipalSnapshot{ID: uuid.New(), Role: entity.RoleCustomer}, uuid.New())

		require.NoError(t, m.RequireAuth(okHandler)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAuthMiddleware_EndedSessionBody(t *testing.T) {
	reasons := []usecase.GateReason{
		usecase.ReasonExpired,
		usecase.ReasonRevoked,
		usecase.ReasonTampered,
		usecase.ReasonPrincipalGone,
	}

	bodies := make(map[string]usecase.GateReason)
	for _, reason := range reasons {
		m := newTestAuthMiddleware(t, gateFunc(func(context.Context, string) (*usecase.GateOutcome, error) {
			return &usecase.GateOutcome{State: usecase.GateAnonymous, Reason: reason, ClearCarrier: true}, nil
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		req.AddCookie(&http.Cookie{Name: "erp_session", Value: "stale"})
		c := echo.New().NewContext(req, rec)

		require.NoError(t, m.Authenticate(m.RequireAuth(okHandler))(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, reason)
		assert.Contains(t, rec.Body.String(), `"session":"ended"`, reason)
		assert.Contains(t, rec.Body.String(), `"login_url":"/login"`, reason)
		bodies[rec.Body.String()] = reason
	}

	assert.Len(t, bodies, 1, "rejection reasons must not be distinguishable from the body")
}

func TestAuthMiddleware_RequireCapability(t *testing.T) {
	m := newTestAuthMiddleware(t, nil)
	e := echo.New()

	tests := []struct {
		name       string
		role       entity.Role
		capability policy.Capability
		wantCode   int
	}{
		{"admin manages employees", entity.RoleAdmin, policy.EmployeeManagement, http.StatusOK},
		{"accountant handles transactions", entity.RoleAccountant, policy.TransactionManagement, http.StatusOK},
		{"customer denied session administration", entity.RoleCustomer, policy.SessionAdministration, http.StatusForbidden},
		{"employee denied rewards management", entity.RoleEmployee, policy.RewardManagement, http.StatusForbidden},
		{"unknown capability denied", entity.RoleAdmin, policy.Capability("payroll"), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/x", nil), rec)
			deliverycontext.SetPrincipal(c, &entity.PrincipalSnapshot{ID: uuid.New(), Role: tt.role}, uuid.New())

			require.NoError(t, m.RequireCapability(tt.capability)(okHandler)(c))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Empty(t, rec.Header().Get(echo.HeaderLocation), "authorization failures never redirect")
		})
	}

	t.Run("anonymous page request redirects instead", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/employees", nil), rec)

		require.NoError(t, m.RequireCapability(policy.EmployeeManagement)(okHandler)(c))
		assert.Equal(t, http.StatusFound, rec.Code)
	})
}

func TestSafeReturnTarget(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/dashboard", "/dashboard"},
		{"/cases/42?tab=notes", "/cases/42?tab=notes"},
		{"", "/"},
		{"dashboard", "/"},
		{"https://evil.example/steal", "/"},
		{"//evil.example", "/"},
		{"/\\evil.example", "/"},
		{"javascript:alert(1)", "/"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeReturnTarget(tt.target), tt.target)
	}
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/login", LoginRedirect("/login", "/"))
	assert.Equal(t, "/login", LoginRedirect("/login", "https://evil.example"))
	assert.Equal(t, "/login?redirect=%2Ftasks", LoginRedirect("/login", "/tasks"))
}
