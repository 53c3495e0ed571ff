package service

import (
	"net/http"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"

	"github.com/pkg/errors"
)

var (
	// ErrCarrierInvalid is returned for any carrier that cannot be opened.
	ErrCarrierInvalid = errors.New("session carrier is invalid")
	// ErrCarrierTooLarge is returned when an encoded payload exceeds the transport limit.
	ErrCarrierTooLarge = errors.New("session carrier exceeds size limit")
)

// SessionCarrier seals session payloads into an opaque, tamper-evident value
// and builds the cookies that transport it.
type SessionCarrier interface {
	Encode(payload *entity.SessionPayload) (string, error)
	// Decode never panics; every failure is reported as ErrCarrierInvalid.
	Decode(value string) (*entity.SessionPayload, error)

	// Name is the cookie name the carrier is read from.
	Name() string
	Cookie(value string) *http.Cookie
	// ClearCookie expires the carrier on the client. It shares name, path and domain with Cookie.
	ClearCookie() *http.Cookie
}
