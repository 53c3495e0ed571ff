// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
)

// tokenClaims is the JWT body shared by both token kinds.
type tokenClaims struct {
	Type      string `json:"typ"`
	Role      string `json:"role,omitempty"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// jwtService is a concrete implementation of the TokenService interface using HS256 signed JWTs.
type jwtService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	leeway        time.Duration
	issuer        string
	now           func() time.Time
}

// JWTOption customises the token service.
type JWTOption func(*jwtService)

// WithClock replaces the wall clock used for issuing and verifying tokens.
func WithClock(now func() time.Time) JWTOption {
	return func(s *jwtService) {
		s.now = now
	}
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config, opts ...JWTOption) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" || cfg.SecretKey.Refresh == "" {
		return nil, errors.New("jwt secrets must be provided")
	}
	if cfg.Auth == nil {
		return nil, errors.New("auth configuration must be provided")
	}

	s := &jwtService{
		accessSecret:  []byte(cfg.SecretKey.Access),
		refreshSecret: []byte(cfg.SecretKey.Refresh),
		accessTTL:     cfg.Auth.AccessTokenTTL,
		refreshTTL:    cfg.Auth.RefreshTokenTTL,
		leeway:        cfg.Auth.ClockSkew,
		issuer:        cfg.Auth.Issuer,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *jwtService) IssueAccessToken(principalID uuid.UUID, role entity.Role) (*service.IssuedToken, error) {
	return s.issue(principalID, tokenClaims{
		Type: string(service.TokenTypeAccess),
		Role: role.String(),
	}, s.accessTTL, s.accessSecret)
}

func (s *jwtService) IssueRefreshToken(principalID, sessionID uuid.UUID) (*service.IssuedToken, error) {
	return s.issue(principalID, tokenClaims{
		Type:      string(service.TokenTypeRefresh),
		SessionID: sessionID.String(),
	}, s.refreshTTL, s.refreshSecret)
}

func (s *jwtService) issue(principalID uuid.UUID, claims tokenClaims, ttl time.Duration, secret []byte) (*service.IssuedToken, error) {
	issuedAt := s.now().Truncate(jwt.TimePrecision)
	expiresAt := issuedAt.Add(ttl)

	// jti keeps two tokens minted within the same second distinct.
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   principalID.String(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign token")
	}

	return &service.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Verify parses the token with the secret of the expected kind. A good
// signature with a passed expiry yields VerifyExpired; everything else that
// fails yields VerifyInvalid.
func (s *jwtService) Verify(token string, tokenType service.TokenType) service.VerifyResult {
	secret, err := s.secretFor(tokenType)
	if err != nil {
		return service.VerifyResult{Status: service.VerifyInvalid, Err: err}
	}

	claims := &tokenClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
	)

	status := service.VerifyValid
	if err != nil {
		if !isOnlyExpired(err) {
			return service.VerifyResult{Status: service.VerifyInvalid, Err: errors.Wrap(err, "token rejected")}
		}
		status = service.VerifyExpired
	}

	if claims.Type != string(tokenType) {
		return service.VerifyResult{Status: service.VerifyInvalid, Err: errors.Errorf("unexpected token type %q", claims.Type)}
	}

	out, err := toClaims(claims)
	if err != nil {
		return service.VerifyResult{Status: service.VerifyInvalid, Err: err}
	}

	return service.VerifyResult{Status: status, Claims: out}
}

// Fingerprint returns the hex SHA-256 digest of a token.
func (s *jwtService) Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}

func (s *jwtService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

func (s *jwtService) RefreshTokenTTL() time.Duration {
	return s.refreshTTL
}

func (s *jwtService) secretFor(tokenType service.TokenType) ([]byte, error) {
	switch tokenType {
	case service.TokenTypeAccess:
		return s.accessSecret, nil
	case service.TokenTypeRefresh:
		return s.refreshSecret, nil
	default:
		return nil, errors.Errorf("unknown token type %q", tokenType)
	}
}

// isOnlyExpired reports whether expiry is the sole reason the token was rejected.
// Signature checks run before claim validation, so an expiry error implies a good signature.
func isOnlyExpired(err error) bool {
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return false
	}

	for _, other := range []error{
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenRequiredClaimMissing,
	} {
		if errors.Is(err, other) {
			return false
		}
	}

	return true
}

func toClaims(c *tokenClaims) (*service.Claims, error) {
	principalID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, errors.Wrap(err, "invalid subject")
	}

	out := &service.Claims{
		ID:          c.ID,
		PrincipalID: principalID,
		Role:        entity.Role(c.Role),
		Type:        service.TokenType(c.Type),
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}

	if c.SessionID != "" {
		out.SessionID, err = uuid.Parse(c.SessionID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid session id")
		}
	}
	if out.Type == service.TokenTypeRefresh && out.SessionID == uuid.Nil {
		return nil, errors.New("refresh token without session id")
	}

	return out, nil
}
