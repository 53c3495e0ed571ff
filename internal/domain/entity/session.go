package entity

import "github.com/google/uuid"

// SessionSchemaVersion is the current layout of SessionPayload. Payloads of
// any other version are rejected and the client has to log in again.
const SessionSchemaVersion = 1

// PrincipalSnapshot is the identity attached to an authenticated request.
type PrincipalSnapshot struct {
	ID    uuid.UUID `json:"id"`
	Role  Role      `json:"role"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
}

// SessionPayload is the content sealed inside the session carrier.
type SessionPayload struct {
	Version      int               `json:"v"`
	Principal    PrincipalSnapshot `json:"p"`
	AccessToken  string            `json:"at"`
	RefreshToken string            `json:"rt"`
}
