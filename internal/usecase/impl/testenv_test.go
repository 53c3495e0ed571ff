package impl

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/auth"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/metrics"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/credentialtest"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/persistence/memory"
	mockRepo "github.com/iconic-inc/iconic-erp-sub003/internal/mocks/repository"
	"github.com/iconic-inc/iconic-erp-sub003/internal/usecase"
)

const testPassword = "correct horse battery staple"

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig(maxActiveSessions int) *config.Config {
	return &config.Config{
		SecretKey: config.SecretKeyConfig{
			Access:  "test_access_secret_key_very_long_for_testing",
			Refresh: "test_refresh_secret_key_very_long_for_testing",
			Carrier: "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=",
		},
		Auth: &config.AuthConfig{
			Issuer:            "iconic-erp-test",
			AccessTokenTTL:    15 * time.Minute,
			RefreshTokenTTL:   7 * 24 * time.Hour,
			ClockSkew:         5 * time.Second,
			BcryptCost:        4,
			MaxActiveSessions: maxActiveSessions,
			RotationPolicy:    config.RotationPolicyRotate,
			StrictRevocation:  true,
		},
		Session: config.SessionConfig{
			CookieName: "erp_session",
			Path:       "/",
			MaxSize:    4096,
		},
		CredentialStore: config.CredentialStoreConfig{
			Driver:    config.CredentialStoreMemory,
			Retention: 24 * time.Hour,
		},
	}
}

// testEnv wires the real token service, carrier and memory store around a mocked identity store.
type testEnv struct {
	t           *testing.T
	cfg         *config.Config
	clock       *credentialtest.Clock
	tokens      service.TokenService
	carrier     service.SessionCarrier
	hasher      service.PasswordHasher
	credentials repository.CredentialRepository
	principals  *mockRepo.MockPrincipalRepository
	metrics     *metrics.AuthMetrics
	events      *recordingPublisher
	principal   *entity.Principal
}

func newTestEnv(t *testing.T, mutate ...func(cfg *config.Config)) *testEnv {
	t.Helper()

	cfg := newTestConfig(0)
	for _, fn := range mutate {
		fn(cfg)
	}

	clock := credentialtest.NewClock()
	tokens, err := auth.NewJWTService(cfg, auth.WithClock(clock.Now))
	require.NoError(t, err)
	carrier, err := auth.NewCookieCarrier(cfg)
	require.NoError(t, err)

	hasher := auth.NewBcryptHasherWithCost(4)
	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)

	return &testEnv{
		t:           t,
		cfg:         cfg,
		clock:       clock,
		tokens:      tokens,
		carrier:     carrier,
		hasher:      hasher,
		credentials: memory.NewCredentialRepository(memory.WithClock(clock.Now)),
		principals:  mockRepo.NewMockPrincipalRepository(t),
		metrics:     metrics.New(),
		events:      &recordingPublisher{},
		principal: &entity.Principal{
			ID:           uuid.New(),
			Email:        "alice@example.com",
			Name:         "Alice",
			Role:         entity.RoleEmployee,
			PasswordHash: hash,
			Active:       true,
		},
	}
}

func (e *testEnv) authService() *authService {
	uc, err := NewAuthService(AuthServiceParams{
		Principals:  e.principals,
		Credentials: e.credentials,
		Hasher:      e.hasher,
		Tokens:      e.tokens,
		Carrier:     e.carrier,
		Config:      e.cfg,
		Metrics:     e.metrics,
		Events:      e.events,
		Logger:      newDiscardLogger(),
	})
	require.NoError(e.t, err)
	srv := uc.(*authService)
	srv.now = e.clock.Now

	return srv
}

func (e *testEnv) gate() *authenticationGate {
	g := NewAuthenticationGate(AuthenticationGateParams{
		Tokens:      e.tokens,
		Carrier:     e.carrier,
		Credentials: e.credentials,
		Principals:  e.principals,
		Config:      e.cfg,
		Metrics:     e.metrics,
		Events:      e.events,
		Logger:      newDiscardLogger(),
	}).(*authenticationGate)
	g.now = e.clock.Now

	return g
}

func (e *testEnv) sessionService() *sessionService {
	srv := NewSessionService(SessionServiceParams{
		Credentials: e.credentials,
		Config:      e.cfg,
		Events:      e.events,
		Logger:      newDiscardLogger(),
	}).(*sessionService)
	srv.now = e.clock.Now

	return srv
}

// expectPrincipalLookups lets the gate and login find the test principal any number of times.
func (e *testEnv) expectPrincipalLookups() {
	e.principals.EXPECT().FindByEmail(mock.Anything, e.principal.Email).Return(e.principal, nil).Maybe()
	e.principals.EXPECT().FindByID(mock.Anything, e.principal.ID).Return(e.principal, nil).Maybe()
}

// login signs the test principal in and returns the issued carrier.
func (e *testEnv) login(t *testing.T) *usecase.LoginOutput {
	t.Helper()

	out, err := e.authService().Login(context.Background(), &usecase.LoginInput{
		Email:     e.principal.Email,
		Password:  testPassword,
		UserAgent: "Mozilla/5.0",
		RemoteIP:  "203.0.113.7",
	})
	require.NoError(t, err)

	return out
}

// scrape renders the metrics registry in the exposition format.
func scrape(t *testing.T, env *testEnv) string {
	t.Helper()

	rec := httptest.NewRecorder()
	env.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	return rec.Body.String()
}
