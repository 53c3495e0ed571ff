package config

import (
	"testing"
	"time"

	"github.com/slighter12/go-lib/database/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		Postgres: &postgres.DBConn{},
		SecretKey: SecretKeyConfig{
			Access:  "access-secret",
			Refresh: "refresh-secret",
			Carrier: "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=",
		},
	}
	cfg.Env.Env = EnvDevelop
	cfg.applyDefaults()

	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 5*time.Second, cfg.Auth.ClockSkew)
	assert.Equal(t, RotationPolicyRotate, cfg.Auth.RotationPolicy)
	assert.True(t, cfg.Auth.StrictRevocation)
	assert.Equal(t, defaultCookieName, cfg.Session.CookieName)
	assert.Equal(t, "/", cfg.Session.Path)
	assert.Equal(t, defaultCarrierMaxSize, cfg.Session.MaxSize)
	assert.Equal(t, CredentialStorePostgres, cfg.CredentialStore.Driver)
	assert.Equal(t, defaultMaxRequestBodySize, cfg.HTTP.MaxRequestBodySize)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, defaultMetricsPath, cfg.Metrics.Path)
	assert.Equal(t, defaultWorkerPort, cfg.Worker.Port)
	assert.Zero(t, cfg.Worker.CleanupInterval)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Auth:    &AuthConfig{AccessTokenTTL: time.Minute, RotationPolicy: RotationPolicyReuse},
		Metrics: &MetricsConfig{Path: "/internal/metrics"},
	}
	cfg.applyDefaults()

	assert.Equal(t, time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Zero(t, cfg.Auth.ClockSkew, "an explicit zero leeway is kept")
	assert.Equal(t, RotationPolicyReuse, cfg.Auth.RotationPolicy)
	assert.False(t, cfg.Auth.StrictRevocation)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/internal/metrics", cfg.Metrics.Path)
}

func TestApplyDefaults_SecureCookieOutsideDevelop(t *testing.T) {
	cfg := &Config{}
	cfg.Env.Env = "production"
	cfg.applyDefaults()
	assert.True(t, cfg.Session.Secure)

	cfg = &Config{}
	cfg.Env.Env = EnvDevelop
	cfg.applyDefaults()
	assert.False(t, cfg.Session.Secure)
}

func TestPresetDefaults(t *testing.T) {
	cfg := new(Config)
	cfg.presetDefaults()

	require.NotNil(t, cfg.Auth)
	assert.True(t, cfg.Auth.StrictRevocation)
	assert.Equal(t, defaultClockSkew, cfg.Auth.ClockSkew)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "missing access secret",
			mutate:  func(cfg *Config) { cfg.SecretKey.Access = "" },
			wantErr: "secretKey.access",
		},
		{
			name:    "shared token secrets",
			mutate:  func(cfg *Config) { cfg.SecretKey.Refresh = cfg.SecretKey.Access },
			wantErr: "must differ",
		},
		{
			name:    "missing carrier key",
			mutate:  func(cfg *Config) { cfg.SecretKey.Carrier = "" },
			wantErr: "secretKey.carrier",
		},
		{
			name:    "carrier key of the wrong size",
			mutate:  func(cfg *Config) { cfg.SecretKey.Carrier = "c2hvcnQ=" },
			wantErr: "32 bytes",
		},
		{
			name:    "carrier key not base64",
			mutate:  func(cfg *Config) { cfg.SecretKey.Carrier = "not base64!" },
			wantErr: "secretKey.carrier",
		},
		{
			name:    "same site none over plain http",
			mutate:  func(cfg *Config) { cfg.Session.SameSite = "None" },
			wantErr: "session.secure",
		},
		{
			name: "same site none with secure cookie",
			mutate: func(cfg *Config) {
				cfg.Session.SameSite = "None"
				cfg.Session.Secure = true
			},
		},
		{
			name:   "zero clock skew",
			mutate: func(cfg *Config) { cfg.Auth.ClockSkew = 0 },
		},
		{
			name:    "negative clock skew",
			mutate:  func(cfg *Config) { cfg.Auth.ClockSkew = -time.Second },
			wantErr: "auth.clockSkew",
		},
		{
			name:    "access token outlives refresh token",
			mutate:  func(cfg *Config) { cfg.Auth.AccessTokenTTL = 8 * 24 * time.Hour },
			wantErr: "must be shorter than auth.refreshTokenTTL",
		},
		{
			name: "access and refresh token lifetimes equal",
			mutate: func(cfg *Config) {
				cfg.Auth.AccessTokenTTL = time.Hour
				cfg.Auth.RefreshTokenTTL = time.Hour
			},
			wantErr: "auth.accessTokenTTL",
		},
		{
			name:    "unknown rotation policy",
			mutate:  func(cfg *Config) { cfg.Auth.RotationPolicy = "sometimes" },
			wantErr: "rotationPolicy",
		},
		{
			name:    "redis driver without addresses",
			mutate:  func(cfg *Config) { cfg.CredentialStore.Driver = CredentialStoreRedis },
			wantErr: "redis.addrs",
		},
		{
			name: "redis driver with addresses",
			mutate: func(cfg *Config) {
				cfg.CredentialStore.Driver = CredentialStoreRedis
				cfg.Redis = &RedisConfig{Addrs: []string{"localhost:6379"}}
			},
		},
		{
			name:    "unknown driver",
			mutate:  func(cfg *Config) { cfg.CredentialStore.Driver = "mongo" },
			wantErr: "credentialStore.driver",
		},
		{
			name:    "unknown pubsub provider",
			mutate:  func(cfg *Config) { cfg.PubSub = &PubSubConfig{Provider: "kafka"} },
			wantErr: "pubsub.provider",
		},
		{
			name:   "local pubsub provider",
			mutate: func(cfg *Config) { cfg.PubSub = &PubSubConfig{Provider: PubSubProviderLocal} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)

				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
