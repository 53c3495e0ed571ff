package auth

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestConfig() *config.Config {
	return &config.Config{
		SecretKey: config.SecretKeyConfig{
			Access:  "test_access_secret_key_very_long_for_testing",
			Refresh: "test_refresh_secret_key_very_long_for_testing",
		},
		Auth: &config.AuthConfig{
			Issuer:          "iconic-erp-test",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			ClockSkew:       5 * time.Second,
		},
	}
}

func newTestJWTService(t *testing.T) (service.TokenService, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	svc, err := NewJWTService(newTestConfig(), WithClock(clock.Now))
	require.NoError(t, err)

	return svc, clock
}

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	svc, clock := newTestJWTService(t)
	principalID := uuid.New()

	token, err := svc.IssueAccessToken(principalID, entity.RoleAccountant)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(15*time.Minute), token.ExpiresAt)

	result := svc.Verify(token.Value, service.TokenTypeAccess)
	require.Equal(t, service.VerifyValid, result.Status, "err: %v", result.Err)
	assert.Equal(t, principalID, result.Claims.PrincipalID)
	assert.Equal(t, entity.RoleAccountant, result.Claims.Role)
	assert.Equal(t, service.TokenTypeAccess, result.Claims.Type)
	assert.NotEmpty(t, result.Claims.ID)
}

func TestJWTService_RefreshTokenRoundTrip(t *testing.T) {
	svc, _ := newTestJWTService(t)
	principalID, sessionID := uuid.New(), uuid.New()

	token, err := svc.IssueRefreshToken(principalID, sessionID)
	require.NoError(t, err)

	result := svc.Verify(token.Value, service.TokenTypeRefresh)
	require.Equal(t, service.VerifyValid, result.Status, "err: %v", result.Err)
	assert.Equal(t, principalID, result.Claims.PrincipalID)
	assert.Equal(t, sessionID, result.Claims.SessionID)
	assert.Empty(t, result.Claims.Role)
}

func TestJWTService_TokensIssuedTogetherDiffer(t *testing.T) {
	svc, _ := newTestJWTService(t)
	principalID, sessionID := uuid.New(), uuid.New()

	first, err := svc.IssueRefreshToken(principalID, sessionID)
	require.NoError(t, err)
	second, err := svc.IssueRefreshToken(principalID, sessionID)
	require.NoError(t, err)

	assert.NotEqual(t, first.Value, second.Value)
	assert.NotEqual(t, svc.Fingerprint(first.Value), svc.Fingerprint(second.Value))
}

func TestJWTService_Expiry(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		want    service.VerifyStatus
	}{
		{name: "before expiry", advance: 14 * time.Minute, want: service.VerifyValid},
		{name: "inside clock skew", advance: 15*time.Minute + 3*time.Second, want: service.VerifyValid},
		{name: "beyond clock skew", advance: 15*time.Minute + 10*time.Second, want: service.VerifyExpired},
		{name: "long after expiry", advance: 20 * time.Minute, want: service.VerifyExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, clock := newTestJWTService(t)
			principalID := uuid.New()

			token, err := svc.IssueAccessToken(principalID, entity.RoleEmployee)
			require.NoError(t, err)

			clock.Advance(tt.advance)
			result := svc.Verify(token.Value, service.TokenTypeAccess)
			assert.Equal(t, tt.want, result.Status, "err: %v", result.Err)
			require.NotNil(t, result.Claims)
			assert.Equal(t, principalID, result.Claims.PrincipalID)
		})
	}
}

func TestJWTService_Invalid(t *testing.T) {
	svc, _ := newTestJWTService(t)
	principalID, sessionID := uuid.New(), uuid.New()

	access, err := svc.IssueAccessToken(principalID, entity.RoleAdmin)
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken(principalID, sessionID)
	require.NoError(t, err)

	otherCfg := newTestConfig()
	otherCfg.SecretKey.Access = "a_completely_different_access_secret"
	other, err := NewJWTService(otherCfg)
	require.NoError(t, err)
	forged, err := other.IssueAccessToken(principalID, entity.RoleAdmin)
	require.NoError(t, err)

	otherIssuerCfg := newTestConfig()
	otherIssuerCfg.Auth.Issuer = "someone-else"
	otherIssuer, err := NewJWTService(otherIssuerCfg)
	require.NoError(t, err)
	foreign, err := otherIssuer.IssueAccessToken(principalID, entity.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		tokenType service.TokenType
	}{
		{name: "empty", token: "", tokenType: service.TokenTypeAccess},
		{name: "garbage", token: "not-a-jwt", tokenType: service.TokenTypeAccess},
		{name: "tampered payload", token: tamperPayload(access.Value), tokenType: service.TokenTypeAccess},
		{name: "wrong secret", token: forged.Value, tokenType: service.TokenTypeAccess},
		{name: "wrong issuer", token: foreign.Value, tokenType: service.TokenTypeAccess},
		{name: "refresh presented as access", token: refresh.Value, tokenType: service.TokenTypeAccess},
		{name: "access presented as refresh", token: access.Value, tokenType: service.TokenTypeRefresh},
		{name: "unknown kind", token: access.Value, tokenType: service.TokenType("id")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.Verify(tt.token, tt.tokenType)
			assert.Equal(t, service.VerifyInvalid, result.Status)
			assert.Error(t, result.Err)
			assert.Nil(t, result.Claims)
		})
	}
}

func TestJWTService_ExpiredAndTamperedIsInvalid(t *testing.T) {
	svc, clock := newTestJWTService(t)

	token, err := svc.IssueAccessToken(uuid.New(), entity.RoleAdmin)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	result := svc.Verify(tamperPayload(token.Value), service.TokenTypeAccess)
	assert.Equal(t, service.VerifyInvalid, result.Status)
}

func TestJWTService_Fingerprint(t *testing.T) {
	svc, _ := newTestJWTService(t)

	fp := svc.Fingerprint("token")
	assert.Len(t, fp, 64)
	assert.Equal(t, fp, svc.Fingerprint("token"))
	assert.NotEqual(t, fp, svc.Fingerprint("token2"))
	assert.NotContains(t, fp, "token")
}

func TestNewJWTService_RequiresSecrets(t *testing.T) {
	cfg := newTestConfig()
	cfg.SecretKey.Refresh = ""

	_, err := NewJWTService(cfg)
	assert.Error(t, err)
}

// tamperPayload replaces one character in the middle of the claims segment.
func tamperPayload(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return token + "x"
	}

	payload := []byte(parts[1])
	i := len(payload) / 2
	if payload[i] == 'A' {
		payload[i] = 'B'
	} else {
		payload[i] = 'A'
	}
	parts[1] = string(payload)

	return strings.Join(parts, ".")
}
