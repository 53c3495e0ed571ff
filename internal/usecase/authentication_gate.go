package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
)

// GateState is the terminal state of one authentication decision.
type GateState string

const (
	// GateValid means the presented access token was accepted as is.
	GateValid GateState = "valid"
	// GateRefreshed means the access token had expired and a new carrier was issued.
	GateRefreshed GateState = "refreshed"
	// GateAnonymous means the request carries no usable session.
	GateAnonymous GateState = "anonymous"
)

// GateReason explains an anonymous outcome.
type GateReason string

const (
	ReasonNone          GateReason = ""
	ReasonNoSession     GateReason = "no_session"
	ReasonExpired       GateReason = "expired"
	ReasonRevoked       GateReason = "revoked"
	ReasonTampered      GateReason = "tampered"
	ReasonPrincipalGone GateReason = "principal_gone"
)

// GateOutcome is what the transport needs to finish the request.
type GateOutcome struct {
	State     GateState
	Reason    GateReason
	Principal *entity.PrincipalSnapshot
	SessionID uuid.UUID
	// Carrier is the replacement carrier value when State is GateRefreshed.
	Carrier string
	// ClearCarrier asks the transport to erase the client's carrier.
	ClearCarrier bool
}

// Authenticated reports whether a principal is attached to the outcome.
func (o *GateOutcome) Authenticated() bool {
	return o != nil && o.State != GateAnonymous && o.Principal != nil
}

// AuthenticationGate turns a raw carrier value into an authentication decision,
// refreshing expired access tokens on the way. It is independent of the transport.
type AuthenticationGate interface {
	// Authenticate returns an error only when the decision could not be made,
	// e.g. the credential store is unreachable. Every other failure is an anonymous outcome.
	Authenticate(ctx context.Context, carrier string) (*GateOutcome, error)
}
