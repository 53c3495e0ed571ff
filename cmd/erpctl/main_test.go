package main

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/auth"
)

func TestRunKeygen(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runKeygen(&out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "secretKey:", lines[0])

	carrier := strings.TrimPrefix(strings.TrimSpace(lines[3]), "carrier: ")
	key, err := base64.StdEncoding.DecodeString(carrier)
	require.NoError(t, err)
	assert.Len(t, key, 32)
	assert.NotEqual(t, lines[1], lines[2], "access and refresh secrets differ")
}

func TestRunHashPassword(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runHashPassword(strings.NewReader("s3cret-pass\n"), &out, bcrypt.MinCost))

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))

	err := runHashPassword(strings.NewReader("\n"), &out, bcrypt.MinCost)
	assert.ErrorContains(t, err, "empty password")
}

func TestInspectCarrier(t *testing.T) {
	cfg := &config.Config{
		SecretKey: config.SecretKeyConfig{
			Access:  "test_access_secret_key_very_long_for_testing",
			Refresh: "test_refresh_secret_key_very_long_for_testing",
			Carrier: "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=",
		},
		Auth: &config.AuthConfig{
			Issuer:          "iconic-erp-test",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Session: config.SessionConfig{CookieName: "erp_session", MaxSize: 4096},
	}
	issuedAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	tokens, err := auth.NewJWTService(cfg, auth.WithClock(func() time.Time { return issuedAt }))
	require.NoError(t, err)
	carrier, err := auth.NewCookieCarrier(cfg)
	require.NoError(t, err)

	principal := entity.PrincipalSnapshot{ID: uuid.New(), Role: entity.RoleAccountant}
	sessionID := uuid.New()
	access, err := tokens.IssueAccessToken(principal.ID, principal.Role)
	require.NoError(t, err)
	refresh, err := tokens.IssueRefreshToken(principal.ID, sessionID)
	require.NoError(t, err)
	value, err := carrier.Encode(&entity.SessionPayload{
		Principal:    principal,
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, inspectCarrier(&out, cfg, value, issuedAt.Add(20*time.Minute)))

	report := out.String()
	assert.Contains(t, report, principal.ID.String()+" (accountant)")
	assert.Contains(t, report, "Session:    "+sessionID.String())
	assert.Contains(t, report, "Access:     expired 5m0s ago")
	assert.Contains(t, report, "Refresh:    valid, expires in 6d23h40m")
	assert.Contains(t, report, "Record:     "+tokens.Fingerprint(refresh.Value)[:12]+"...")

	assert.Error(t, inspectCarrier(&out, cfg, value[:len(value)-2], issuedAt))
}
