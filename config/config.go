package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"
	defaultCarrierMaxSize     = 4096
	defaultCookieName         = "erp_session"
	defaultLoginPath          = "/login"
	defaultIssuer             = "iconic-erp"
	defaultClockSkew          = 5 * time.Second
	defaultMetricsPath        = "/metrics"
	defaultWorkerPort         = 8081
	carrierKeySize            = 32
)

// Credential store drivers.
const (
	CredentialStorePostgres = "postgres"
	CredentialStoreRedis    = "redis"
	CredentialStoreMemory   = "memory"
)

// EnvDevelop is the env.env value of a local developer setup.
const EnvDevelop = "develop"

// Security event transports.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Rotation policies applied by the authentication gate on refresh.
const (
	RotationPolicyRotate = "rotate"
	RotationPolicyReuse  = "reuse"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP HTTPConfig `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	Redis *RedisConfig `json:"redis" yaml:"redis"`

	SecretKey SecretKeyConfig `json:"secretKey" yaml:"secretKey"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	Session SessionConfig `json:"session" yaml:"session"`

	CredentialStore CredentialStoreConfig `json:"credentialStore" yaml:"credentialStore"`

	Metrics *MetricsConfig `json:"metrics" yaml:"metrics"`

	Worker WorkerConfig `json:"worker" yaml:"worker"`

	// PubSub configuration for security event publishing
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

type HTTPConfig struct {
	Port               int    `json:"port" yaml:"port"`
	MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
	Timeouts           struct {
		ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
		ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
		WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
		IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
	} `json:"timeouts" yaml:"timeouts"`
}

// SecretKeyConfig holds the signing secrets for both token kinds and the
// base64 encoded 32 byte key sealing the session carrier.
type SecretKeyConfig struct {
	Access  string `json:"access" yaml:"access"`
	Refresh string `json:"refresh" yaml:"refresh"`
	Carrier string `json:"carrier" yaml:"carrier"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	Issuer            string        `json:"issuer" yaml:"issuer"`
	AccessTokenTTL    time.Duration `json:"accessTokenTTL" yaml:"accessTokenTTL"`
	RefreshTokenTTL   time.Duration `json:"refreshTokenTTL" yaml:"refreshTokenTTL"`
	ClockSkew         time.Duration `json:"clockSkew" yaml:"clockSkew"`
	BcryptCost        int           `json:"bcryptCost" yaml:"bcryptCost"`
	MaxActiveSessions int           `json:"maxActiveSessions" yaml:"maxActiveSessions"`
	RotationPolicy    string        `json:"rotationPolicy" yaml:"rotationPolicy"`
	// StrictRevocation makes every request confirm its session record is still active.
	StrictRevocation bool `json:"strictRevocation" yaml:"strictRevocation"`
	LoginRateLimit   struct {
		RequestsPerSecond float64 `json:"requestsPerSecond" yaml:"requestsPerSecond"`
		Burst             int     `json:"burst" yaml:"burst"`
	} `json:"loginRateLimit" yaml:"loginRateLimit"`
}

// SessionConfig describes the cookie carrying the encrypted session payload.
type SessionConfig struct {
	CookieName string `json:"cookieName" yaml:"cookieName"`
	Path       string `json:"path" yaml:"path"`
	Domain     string `json:"domain" yaml:"domain"`
	Secure     bool   `json:"secure" yaml:"secure"`
	SameSite   string `json:"sameSite" yaml:"sameSite"`
	MaxSize    int    `json:"maxSize" yaml:"maxSize"`
	LoginPath  string `json:"loginPath" yaml:"loginPath"`
}

type CredentialStoreConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	// Retention keeps revoked and expired records around before cleanup deletes them.
	Retention time.Duration `json:"retention" yaml:"retention"`
}

// WorkerConfig configures the credential cleanup worker.
type WorkerConfig struct {
	Port int `json:"port" yaml:"port"`
	// CleanupInterval runs cleanup on a timer; zero leaves it to POST /jobs/cleanup.
	CleanupInterval time.Duration `json:"cleanupInterval" yaml:"cleanupInterval"`
}

// PubSubConfig defines Pub/Sub configuration for security event publishing
type PubSubConfig struct {
	// Provider type: "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

type RedisConfig struct {
	Addrs        []string      `json:"addrs" yaml:"addrs"`
	Username     string        `json:"username" yaml:"username"`
	Password     string        `json:"password" yaml:"password"`
	DB           int           `json:"db" yaml:"db"`
	KeyPrefix    string        `json:"keyPrefix" yaml:"keyPrefix"`
	DialTimeout  time.Duration `json:"dialTimeout" yaml:"dialTimeout"`
	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	if p, ok := any(cfg).(interface{ presetDefaults() }); ok {
		p.presetDefaults()
	}
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if cfg.Postgres != nil {
		// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// presetDefaults seeds values a missing YAML key must not reset to the zero value.
// An explicit zero clockSkew disables the leeway.
func (cfg *Config) presetDefaults() {
	cfg.Auth = &AuthConfig{StrictRevocation: true, ClockSkew: defaultClockSkew}
}

func (cfg *Config) applyDefaults() {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{StrictRevocation: true, ClockSkew: defaultClockSkew}
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = defaultIssuer
	}
	if cfg.Auth.AccessTokenTTL <= 0 {
		cfg.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.Auth.RefreshTokenTTL <= 0 {
		cfg.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if cfg.Auth.RotationPolicy == "" {
		cfg.Auth.RotationPolicy = RotationPolicyRotate
	}
	if cfg.Auth.LoginRateLimit.RequestsPerSecond <= 0 {
		cfg.Auth.LoginRateLimit.RequestsPerSecond = 1
	}
	if cfg.Auth.LoginRateLimit.Burst <= 0 {
		cfg.Auth.LoginRateLimit.Burst = 5
	}

	if cfg.Env.Env != EnvDevelop {
		cfg.Session.Secure = true
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = defaultCookieName
	}
	if cfg.Session.Path == "" {
		cfg.Session.Path = "/"
	}
	if cfg.Session.MaxSize <= 0 {
		cfg.Session.MaxSize = defaultCarrierMaxSize
	}
	if cfg.Session.LoginPath == "" {
		cfg.Session.LoginPath = defaultLoginPath
	}

	if cfg.CredentialStore.Driver == "" {
		cfg.CredentialStore.Driver = CredentialStorePostgres
	}
	if cfg.CredentialStore.Retention <= 0 {
		cfg.CredentialStore.Retention = 24 * time.Hour
	}

	if cfg.Worker.Port == 0 {
		cfg.Worker.Port = defaultWorkerPort
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{Enabled: true}
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
}

// Validate reports configuration that would make the authentication stack unusable.
func (cfg *Config) Validate() error {
	if cfg.SecretKey.Access == "" || cfg.SecretKey.Refresh == "" {
		return errors.New("secretKey.access and secretKey.refresh are required")
	}
	if cfg.SecretKey.Access == cfg.SecretKey.Refresh {
		return errors.New("secretKey.access and secretKey.refresh must differ")
	}
	if cfg.SecretKey.Carrier == "" {
		return errors.New("secretKey.carrier is required")
	}
	if key, err := base64.StdEncoding.DecodeString(cfg.SecretKey.Carrier); err != nil || len(key) != carrierKeySize {
		return errors.Errorf("secretKey.carrier must be base64 encoded %d bytes", carrierKeySize)
	}

	if strings.EqualFold(cfg.Session.SameSite, "none") && !cfg.Session.Secure {
		return errors.New("session.sameSite none requires session.secure")
	}

	if cfg.Auth.ClockSkew < 0 {
		return errors.New("auth.clockSkew must not be negative")
	}
	if cfg.Auth.AccessTokenTTL >= cfg.Auth.RefreshTokenTTL {
		return errors.Errorf("auth.accessTokenTTL (%s) must be shorter than auth.refreshTokenTTL (%s)",
			cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	}

	switch cfg.Auth.RotationPolicy {
	case RotationPolicyRotate, RotationPolicyReuse:
	default:
		return errors.Errorf("unknown auth.rotationPolicy %q", cfg.Auth.RotationPolicy)
	}

	switch cfg.CredentialStore.Driver {
	case CredentialStorePostgres, CredentialStoreMemory:
	case CredentialStoreRedis:
		if cfg.Redis == nil || len(cfg.Redis.Addrs) == 0 {
			return errors.New("credentialStore.driver redis requires redis.addrs")
		}
	default:
		return errors.Errorf("unknown credentialStore.driver %q", cfg.CredentialStore.Driver)
	}

	if cfg.PubSub != nil {
		switch cfg.PubSub.Provider {
		case "", PubSubProviderLocal, PubSubProviderGoogle:
		default:
			return errors.Errorf("unknown pubsub.provider %q", cfg.PubSub.Provider)
		}
	}

	if cfg.Postgres == nil {
		return errors.New("postgres configuration is required")
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
// Example: POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, POSTGRES_REPLICAS_0_USERNAME, POSTGRES_REPLICAS_0_PASSWORD
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			// No more replicas or incomplete configuration.
			break
		}

		replica := postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		}

		replicas = append(replicas, replica)
	}

	return replicas
}
