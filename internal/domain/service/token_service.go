package service

import (
	"time"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"

	"github.com/google/uuid"
)

// TokenType distinguishes the two token kinds. Each kind is signed with its own secret.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// VerifyStatus is the outcome class of a token verification.
type VerifyStatus int

const (
	// VerifyInvalid covers malformed tokens, bad signatures and wrong token kinds.
	VerifyInvalid VerifyStatus = iota
	// VerifyExpired means the signature is good but the expiry has passed.
	VerifyExpired
	// VerifyValid means the token may be used.
	VerifyValid
)

func (s VerifyStatus) String() string {
	switch s {
	case VerifyValid:
		return "valid"
	case VerifyExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// Claims are the verified contents of a token.
type Claims struct {
	ID          string
	PrincipalID uuid.UUID
	Role        entity.Role
	SessionID   uuid.UUID
	Type        TokenType
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// VerifyResult carries the verification status and, unless the token is
// invalid, the decoded claims.
type VerifyResult struct {
	Status VerifyStatus
	Claims *Claims
	Err    error
}

// IssuedToken is a freshly signed token and its expiry.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenService issues and verifies signed access and refresh tokens.
// Expiry is reported through VerifyResult rather than as an error.
type TokenService interface {
	// IssueAccessToken signs a short-lived token carrying the principal and its role.
	IssueAccessToken(principalID uuid.UUID, role entity.Role) (*IssuedToken, error)

	// IssueRefreshToken signs a long-lived token bound to a login family.
	IssueRefreshToken(principalID, sessionID uuid.UUID) (*IssuedToken, error)

	// Verify checks signature, issuer, kind and expiry of the token.
	Verify(token string, tokenType TokenType) VerifyResult

	// Fingerprint returns the one-way digest under which a refresh token is stored.
	Fingerprint(token string) string

	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}
