package auth

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
)

// carrierFormat prefixes every sealed value so the envelope layout can change later.
const carrierFormat byte = 1

var carrierEncoding = base64.RawURLEncoding.Strict()

// cookieCarrier seals session payloads with XChaCha20-Poly1305 and ships them in a cookie.
type cookieCarrier struct {
	aead     cipher.AEAD
	name     string
	path     string
	domain   string
	secure   bool
	sameSite http.SameSite
	maxSize  int
	maxAge   time.Duration
}

// NewCookieCarrier builds the carrier from the session settings and the carrier key.
func NewCookieCarrier(cfg *config.Config) (service.SessionCarrier, error) {
	key, err := base64.StdEncoding.DecodeString(cfg.SecretKey.Carrier)
	if err != nil {
		return nil, errors.Wrap(err, "secretKey.carrier must be base64")
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.Errorf("secretKey.carrier must decode to %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialise carrier cipher")
	}

	var maxAge time.Duration
	if cfg.Auth != nil {
		maxAge = cfg.Auth.RefreshTokenTTL
	}

	return &cookieCarrier{
		aead:     aead,
		name:     cfg.Session.CookieName,
		path:     cfg.Session.Path,
		domain:   cfg.Session.Domain,
		secure:   cfg.Session.Secure,
		sameSite: parseSameSite(cfg.Session.SameSite),
		maxSize:  cfg.Session.MaxSize,
		maxAge:   maxAge,
	}, nil
}

func (c *cookieCarrier) Encode(payload *entity.SessionPayload) (string, error) {
	if payload == nil {
		return "", errors.New("nil session payload")
	}

	sealed := *payload
	sealed.Version = entity.SessionSchemaVersion
	plaintext, err := json.Marshal(&sealed)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal session payload")
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "failed to generate nonce")
	}

	raw := make([]byte, 0, 1+len(nonce)+len(plaintext)+c.aead.Overhead())
	raw = append(raw, carrierFormat)
	raw = append(raw, nonce...)
	raw = c.aead.Seal(raw, nonce, plaintext, c.additionalData())

	value := carrierEncoding.EncodeToString(raw)
	if c.maxSize > 0 && len(value) > c.maxSize {
		return "", errors.Wrapf(service.ErrCarrierTooLarge, "%d bytes", len(value))
	}

	return value, nil
}

func (c *cookieCarrier) Decode(value string) (*entity.SessionPayload, error) {
	if value == "" || (c.maxSize > 0 && len(value) > c.maxSize) {
		return nil, service.ErrCarrierInvalid
	}

	raw, err := carrierEncoding.DecodeString(value)
	if err != nil {
		return nil, errors.Wrap(service.ErrCarrierInvalid, "bad encoding")
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < 1+nonceSize+c.aead.Overhead() {
		return nil, errors.Wrap(service.ErrCarrierInvalid, "too short")
	}
	if raw[0] != carrierFormat {
		return nil, errors.Wrap(service.ErrCarrierInvalid, "unknown envelope format")
	}

	nonce, sealed := raw[1:1+nonceSize], raw[1+nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, c.additionalData())
	if err != nil {
		return nil, errors.Wrap(service.ErrCarrierInvalid, "authentication failed")
	}

	decoder := json.NewDecoder(bytes.NewReader(plaintext))
	decoder.DisallowUnknownFields()

	var payload entity.SessionPayload
	if err := decoder.Decode(&payload); err != nil {
		return nil, errors.Wrap(service.ErrCarrierInvalid, "malformed payload")
	}
	if payload.Version != entity.SessionSchemaVersion {
		return nil, errors.Wrapf(service.ErrCarrierInvalid, "unsupported payload version %d", payload.Version)
	}
	if payload.Principal.ID == uuid.Nil || payload.AccessToken == "" || payload.RefreshToken == "" {
		return nil, errors.Wrap(service.ErrCarrierInvalid, "incomplete payload")
	}

	return &payload, nil
}

func (c *cookieCarrier) Name() string {
	return c.name
}

func (c *cookieCarrier) Cookie(value string) *http.Cookie {
	cookie := c.baseCookie()
	cookie.Value = value
	if c.maxAge > 0 {
		cookie.MaxAge = int(c.maxAge.Seconds())
	}

	return cookie
}

func (c *cookieCarrier) ClearCookie() *http.Cookie {
	cookie := c.baseCookie()
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)

	return cookie
}

func (c *cookieCarrier) baseCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Path:     c.path,
		Domain:   c.domain,
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: c.sameSite,
	}
}

// additionalData binds the ciphertext to the cookie name and payload schema.
func (c *cookieCarrier) additionalData() []byte {
	return append([]byte{carrierFormat, byte(entity.SessionSchemaVersion)}, c.name...)
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
