package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	apimiddleware "github.com/iconic-inc/iconic-erp-sub003/internal/delivery/api/middleware"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/api/router"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/api/router/handler"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/auth"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/metrics"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/credentialtest"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/memory"
	mockRepo "github.com/iconic-inc/iconic-erp-sub003/internal/mocks/repository"
	"github.com/iconic-inc/iconic-erp-sub003/internal/usecase/impl"
)

const testPassword = "correct horse battery staple"

type testServer struct {
	echo       *echo.Echo
	clock      *credentialtest.Clock
	principals map[string]*entity.Principal
}

func newServerConfig() *config.Config {
	cfg := &config.Config{
		HTTP: config.HTTPConfig{MaxRequestBodySize: "100KB"},
		SecretKey: config.SecretKeyConfig{
			Access:  "test_access_secret_key_very_long_for_testing",
			Refresh: "test_refresh_secret_key_very_long_for_testing",
			Carrier: "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=",
		},
		Auth: &config.AuthConfig{
			Issuer:           "iconic-erp-test",
			AccessTokenTTL:   15 * time.Minute,
			RefreshTokenTTL:  7 * 24 * time.Hour,
			ClockSkew:        5 * time.Second,
			BcryptCost:       4,
			RotationPolicy:   config.RotationPolicyRotate,
			StrictRevocation: true,
		},
		Session: config.SessionConfig{
			CookieName: "erp_session",
			Path:       "/",
			MaxSize:    4096,
			LoginPath:  "/login",
		},
		CredentialStore: config.CredentialStoreConfig{Driver: config.CredentialStoreMemory},
		Metrics:         &config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	cfg.Auth.LoginRateLimit.RequestsPerSecond = 100
	cfg.Auth.LoginRateLimit.Burst = 100

	return cfg
}

func newTestServer(t *testing.T, mutate ...func(cfg *config.Config)) *testServer {
	t.Helper()

	cfg := newServerConfig()
	for _, fn := range mutate {
		fn(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := credentialtest.NewClock()
	authMetrics := metrics.New()

	tokens, err := auth.NewJWTService(cfg, auth.WithClock(clock.Now))
	require.NoError(t, err)
	carrier, err := auth.NewCookieCarrier(cfg)
	require.NoError(t, err)
	hasher := auth.NewBcryptHasherWithCost(4)
	credentials := memory.NewCredentialRepository(memory.WithClock(clock.Now))

	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)

	srv := &testServer{clock: clock, principals: make(map[string]*entity.Principal)}
	principals := mockRepo.NewMockPrincipalRepository(t)
	for _, role := range entity.KnownRoles() {
		p := &entity.Principal{
			ID:           uuid.New(),
			Email:        string(role) + "@example.com",
			Name:         strings.ToUpper(string(role[:1])) + string(role[1:]),
			Role:         role,
			PasswordHash: hash,
			Active:       true,
		}
		srv.principals[string(role)] = p
		principals.EXPECT().FindByEmail(mock.Anything, p.Email).Return(p, nil).Maybe()
		principals.EXPECT().FindByID(mock.Anything, p.ID).Return(p, nil).Maybe()
	}
	principals.EXPECT().FindByEmail(mock.Anything, mock.Anything).Return(nil, repository.ErrPrincipalNotFound).Maybe()

	authUC, err := impl.NewAuthService(impl.AuthServiceParams{
		Principals:  principals,
		Credentials: credentials,
		Hasher:      hasher,
		Tokens:      tokens,
		Carrier:     carrier,
		Config:      cfg,
		Metrics:     authMetrics,
		Logger:      logger,
	})
	require.NoError(t, err)
	gate := impl.NewAuthenticationGate(impl.AuthenticationGateParams{
		Tokens:      tokens,
		Carrier:     carrier,
		Credentials: credentials,
		Principals:  principals,
		Config:      cfg,
		Metrics:     authMetrics,
		Logger:      logger,
	})
	sessionUC := impl.NewSessionService(impl.SessionServiceParams{
		Credentials: credentials,
		Config:      cfg,
		Logger:      logger,
	})

	srv.echo = NewEcho(cfg, logger, authMetrics)
	router.NewRouter(router.RouterParams{
		AuthHandler: handler.NewAuthHandler(handler.AuthHandlerParams{
			AuthUC: authUC, Carrier: carrier, Config: cfg, Logger: logger,
		}),
		SessionHandler: handler.NewSessionHandler(handler.SessionHandlerParams{
			SessionUC: sessionUC, Carrier: carrier, Logger: logger,
		}),
		AuthMiddleware: apimiddleware.NewAuthMiddleware(apimiddleware.AuthMiddlewareParams{
			Gate: gate, Carrier: carrier, Config: cfg, Logger: logger,
		}),
		RateLimitMiddleware: apimiddleware.NewRateLimitMiddleware(cfg, authMetrics, logger),
		Metrics:             authMetrics,
		Config:              cfg,
	}).RegisterRoutes(srv.echo)

	return srv
}

func (s *testServer) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	return rec
}

func (s *testServer) loginJSON(t *testing.T, role entity.Role) *http.Cookie {
	t.Helper()

	body := `{"email":"` + string(role) + `@example.com","password":"` + testPassword + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := s.do(req, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)

	return cookie
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "erp_session" {
			return cookie
		}
	}

	return nil
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	return envelope.Error.Code
}

func TestServer_LoginAndMe(t *testing.T) {
	srv := newTestServer(t)
	cookie := srv.loginJSON(t, entity.RoleEmployee)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, sessionCookie(rec), "a valid session is not re-issued")

	var me handler.MeResponse
	decodeData(t, rec, &me)
	assert.Equal(t, srv.principals["employee"].ID, me.Principal.ID)
	assert.Equal(t, entity.RoleEmployee, me.Principal.Role)
	assert.NotEqual(t, uuid.Nil, me.SessionID)
	assert.NotEmpty(t, me.Capabilities)
}

func TestServer_FormLoginRedirects(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		redirect string
		want     string
	}{
		{"same origin target", "/cases/42", "/cases/42"},
		{"absolute target", "https://evil.example/", "/"},
		{"protocol relative target", "//evil.example", "/"},
		{"no target", "", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{
				"email":    {"customer@example.com"},
				"password": {testPassword},
				"redirect": {tt.redirect},
			}
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

			rec := srv.do(req, nil)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get(echo.HeaderLocation))
			assert.NotNil(t, sessionCookie(rec))
		})
	}
}

func TestServer_LoginRejected(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"wrong password", `{"email":"admin@example.com","password":"nope"}`, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"unknown email", `{"email":"ghost@example.com","password":"nope"}`, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"malformed email", `{"email":"not-an-email","password":"nope"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed body", `{"email":`, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

			rec := srv.do(req, nil)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, errorCode(t, rec))
			assert.Nil(t, sessionCookie(rec))
		})
	}
}

func TestServer_AnonymousAccess(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/sessions", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", errorCode(t, rec))
	assert.Nil(t, sessionCookie(rec), "no carrier means nothing to clear")

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), &http.Cookie{Name: "erp_session", Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestServer_TransparentRefresh(t *testing.T) {
	srv := newTestServer(t)
	first := srv.loginJSON(t, entity.RoleEmployee)

	srv.clock.Advance(20 * time.Minute)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), first)
	require.Equal(t, http.StatusOK, rec.Code)
	second := sessionCookie(rec)
	require.NotNil(t, second, "the expired access token is replaced in the same response")
	assert.NotEqual(t, first.Value, second.Value)

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), second)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), first)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "the retired carrier cannot refresh again")
}

func TestServer_LogoutRevokesCarrier(t *testing.T) {
	srv := newTestServer(t)
	cookie := srv.loginJSON(t, entity.RoleEmployee)

	form := url.Values{"redirect": {"/tasks"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := srv.do(req, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?redirect=%2Ftasks", rec.Header().Get(echo.HeaderLocation))
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code, "logging out twice is harmless")
}

func TestServer_Sessions(t *testing.T) {
	srv := newTestServer(t)
	laptop := srv.loginJSON(t, entity.RoleAccountant)
	phone := srv.loginJSON(t, entity.RoleAccountant)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/sessions", nil), laptop)
	require.Equal(t, http.StatusOK, rec.Code)
	var sessions []entity.SessionInfo
	decodeData(t, rec, &sessions)
	require.Len(t, sessions, 2)

	var phoneSession uuid.UUID
	for _, s := range sessions {
		if !s.Current {
			phoneSession = s.SessionID
		}
	}
	require.NotEqual(t, uuid.Nil, phoneSession)

	rec = srv.do(httptest.NewRequest(http.MethodDelete, "/api/sessions/not-a-uuid", nil), laptop)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, rec))

	rec = srv.do(httptest.NewRequest(http.MethodDelete, "/api/sessions/"+phoneSession.String(), nil), laptop)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, sessionCookie(rec), "revoking another device keeps the current cookie")

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), phone)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(httptest.NewRequest(http.MethodDelete, "/api/sessions/"+phoneSession.String(), nil), laptop)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/sessions/stats", nil), laptop)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats entity.SessionStatistics
	decodeData(t, rec, &stats)
	assert.Equal(t, 1, stats.ActiveSessions)
}

func TestServer_AdminRevocation(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.loginJSON(t, entity.RoleAdmin)
	employee := srv.loginJSON(t, entity.RoleEmployee)
	path := "/api/admin/principals/" + srv.principals["employee"].ID.String() + "/sessions/revoke"

	rec := srv.do(httptest.NewRequest(http.MethodPost, path, nil), employee)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = srv.do(httptest.NewRequest(http.MethodPost, path, nil), admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]int
	decodeData(t, rec, &out)
	assert.Equal(t, 1, out["revoked"])

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), employee)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_LoginIsRateLimited(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Auth.LoginRateLimit.RequestsPerSecond = 0.001
		cfg.Auth.LoginRateLimit.Burst = 1
	})

	body := `{"email":"admin@example.com","password":"nope"}`
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

		return srv.do(req, nil)
	}

	assert.Equal(t, http.StatusUnauthorized, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
}

func TestServer_MetricsAndHealth(t *testing.T) {
	srv := newTestServer(t)
	srv.loginJSON(t, entity.RoleCustomer)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `erp_auth_logins_total{result="succeeded"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/auth/login"`)
}
