package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	deliverycontext "github.com/iconic-inc/iconic-erp-sub003/internal/delivery/context"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
	domainerrors "github.com/iconic-inc/iconic-erp-sub003/internal/domain/errors"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/repository"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/metrics"
	"github.com/iconic-inc/iconic-erp-sub003/internal/usecase"
)

// authenticationGate implements usecase.AuthenticationGate.
type authenticationGate struct {
	tokens           service.TokenService
	carrier          service.SessionCarrier
	credentials      repository.CredentialRepository
	principals       repository.PrincipalRepository
	rotate           bool
	strictRevocation bool
	metrics          *metrics.AuthMetrics
	events           *securityEvents
	logger           *slog.Logger
	now              func() time.Time
}

// AuthenticationGateParams holds dependencies for the gate, injected by Fx.
type AuthenticationGateParams struct {
	fx.In

	Tokens      service.TokenService
	Carrier     service.SessionCarrier
	Credentials repository.CredentialRepository
	Principals  repository.PrincipalRepository
	Config      *config.Config
	Metrics     *metrics.AuthMetrics   `optional:"true"`
	Events      service.EventPublisher `optional:"true"`
	Logger      *slog.Logger
}

// NewAuthenticationGate is the constructor for authenticationGate.
func NewAuthenticationGate(params AuthenticationGateParams) usecase.AuthenticationGate {
	rotate, strict := true, true
	if params.Config != nil && params.Config.Auth != nil {
		rotate = params.Config.Auth.RotationPolicy != config.RotationPolicyReuse
		strict = params.Config.Auth.StrictRevocation
	}

	return &authenticationGate{
		tokens:           params.Tokens,
		carrier:          params.Carrier,
		credentials:      params.Credentials,
		principals:       params.Principals,
		rotate:           rotate,
		strictRevocation: strict,
		metrics:          params.Metrics,
		events:           newSecurityEvents(params.Events, params.Logger),
		logger:           params.Logger,
		now:              time.Now,
	}
}

func (g *authenticationGate) log(ctx context.Context) *slog.Logger {
	return deliverycontext.LoggerFrom(ctx, g.logger)
}

func (g *authenticationGate) Authenticate(ctx context.Context, value string) (*usecase.GateOutcome, error) {
	if value == "" {
		return g.anonymous(usecase.ReasonNoSession, false), nil
	}

	payload, err := g.carrier.Decode(value)
	if err != nil {
		return g.tampered(ctx, "session carrier rejected", err), nil
	}

	access := g.tokens.Verify(payload.AccessToken, service.TokenTypeAccess)
	switch access.Status {
	case service.VerifyValid:
		if !claimsMatch(access.Claims, &payload.Principal) {
			return g.tampered(ctx, "access token does not match session principal", nil), nil
		}

		return g.accept(ctx, payload)
	case service.VerifyExpired:
		if access.Claims.PrincipalID != payload.Principal.ID {
			return g.tampered(ctx, "expired access token does not match session principal", nil), nil
		}
		g.log(ctx).Debug("Access token expired, refreshing", slog.Any("principal_id", payload.Principal.ID))

		return g.refresh(ctx, payload)
	default:
		return g.tampered(ctx, "access token rejected", access.Err), nil
	}
}

// accept handles a carrier whose access token is still valid.
func (g *authenticationGate) accept(ctx context.Context, payload *entity.SessionPayload) (*usecase.GateOutcome, error) {
	refresh := g.tokens.Verify(payload.RefreshToken, service.TokenTypeRefresh)
	switch refresh.Status {
	case service.VerifyValid:
	case service.VerifyExpired:
		g.log(ctx).Debug("Refresh token expired", slog.Any("principal_id", payload.Principal.ID))

		return g.anonymous(usecase.ReasonExpired, true), nil
	default:
		return g.tampered(ctx, "refresh token rejected", refresh.Err), nil
	}
	if refresh.Claims.PrincipalID != payload.Principal.ID {
		return g.tampered(ctx, "refresh token does not match session principal", nil), nil
	}

	if g.strictRevocation {
		_, err := g.credentials.FindActive(ctx, g.tokens.Fingerprint(payload.RefreshToken))
		if errors.Is(err, repository.ErrCredentialNotFound) {
			g.log(ctx).Info("Session credential no longer active", slog.Any("principal_id", payload.Principal.ID))

			return g.anonymous(usecase.ReasonRevoked, true), nil
		}
		if err != nil {
			return nil, g.storeFailure(ctx, "failed to look up session credential", err)
		}
	}

	principal := payload.Principal
	g.metrics.GateOutcome(string(usecase.GateValid))

	return &usecase.GateOutcome{
		State:     usecase.GateValid,
		Principal: &principal,
		SessionID: refresh.Claims.SessionID,
	}, nil
}

// refresh issues a new access token, and a new refresh token under the rotate policy,
// for a carrier whose access token has expired.
func (g *authenticationGate) refresh(ctx context.Context, payload *entity.SessionPayload) (*usecase.GateOutcome, error) {
	refresh := g.tokens.Verify(payload.RefreshToken, service.TokenTypeRefresh)
	switch refresh.Status {
	case service.VerifyValid:
	case service.VerifyExpired:
		g.log(ctx).Debug("Refresh token expired", slog.Any("principal_id", payload.Principal.ID))

		return g.anonymous(usecase.ReasonExpired, true), nil
	default:
		return g.tampered(ctx, "refresh token rejected", refresh.Err), nil
	}
	claims := refresh.Claims
	if claims.PrincipalID != payload.Principal.ID {
		return g.tampered(ctx, "refresh token does not match session principal", nil), nil
	}

	record, err := g.credentials.FindActive(ctx, g.tokens.Fingerprint(payload.RefreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			g.log(ctx).Info("Refresh refused, credential revoked or superseded",
				slog.Any("principal_id", claims.PrincipalID), slog.Any("session_id", claims.SessionID))
			g.metrics.Rotation(metrics.RotationSuperseded)
			g.events.emit(ctx, &service.SecurityEvent{
				Type:        service.EventRefreshRefused,
				PrincipalID: claims.PrincipalID.String(),
				SessionID:   claims.SessionID.String(),
				Reason:      string(usecase.ReasonRevoked),
			})

			return g.anonymous(usecase.ReasonRevoked, true), nil
		}

		return nil, g.storeFailure(ctx, "failed to look up session credential", err)
	}
	if record.PrincipalID != claims.PrincipalID || record.SessionID != claims.SessionID {
		return g.tampered(ctx, "refresh token does not match its credential record", nil), nil
	}

	principal, err := g.principals.FindByID(ctx, claims.PrincipalID)
	if err != nil && !errors.Is(err, repository.ErrPrincipalNotFound) {
		return nil, g.storeFailure(ctx, "failed to load principal", err)
	}
	if principal == nil || !principal.Active {
		g.log(ctx).Info("Refresh refused, principal missing or disabled", slog.Any("principal_id", claims.PrincipalID))
		revoked, err := g.credentials.RevokeAllForPrincipal(ctx, claims.PrincipalID)
		if err != nil {
			g.log(ctx).Error("Failed to revoke sessions of disabled principal", slog.Any("error", err))
		}
		g.events.emit(ctx, &service.SecurityEvent{
			Type:        service.EventPrincipalGone,
			PrincipalID: claims.PrincipalID.String(),
			SessionID:   claims.SessionID.String(),
			Count:       revoked,
		})

		return g.anonymous(usecase.ReasonPrincipalGone, true), nil
	}

	access, err := g.tokens.IssueAccessToken(principal.ID, principal.Role)
	if err != nil {
		g.metrics.Rotation(metrics.RotationFailed)

		return nil, errors.Wrap(err, "failed to issue access token")
	}

	next := &entity.SessionPayload{
		Version:      entity.SessionSchemaVersion,
		Principal:    principal.Snapshot(),
		AccessToken:  access.Value,
		RefreshToken: payload.RefreshToken,
	}

	if g.rotate {
		rotated, err := g.rotateCredential(ctx, record)
		if err != nil {
			if errors.Is(err, repository.ErrCredentialSuperseded) {
				g.log(ctx).Info("Refresh lost a concurrent rotation", slog.Any("session_id", record.SessionID))
				g.metrics.Rotation(metrics.RotationSuperseded)

				return g.anonymous(usecase.ReasonRevoked, true), nil
			}

			return nil, err
		}
		next.RefreshToken = rotated
		g.metrics.Rotation(metrics.RotationRotated)
	} else {
		g.metrics.Rotation(metrics.RotationReused)
	}

	encoded, err := g.carrier.Encode(next)
	if err != nil {
		g.log(ctx).Error("Failed to encode refreshed session", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrSessionEncodingFailed, err.Error())
	}

	snapshot := next.Principal
	g.metrics.GateOutcome(string(usecase.GateRefreshed))
	g.log(ctx).Debug("Session refreshed", slog.Any("principal_id", snapshot.ID), slog.Any("session_id", record.SessionID))

	return &usecase.GateOutcome{
		State:     usecase.GateRefreshed,
		Principal: &snapshot,
		SessionID: record.SessionID,
		Carrier:   encoded,
	}, nil
}

// rotateCredential supersedes record with a freshly issued refresh token of the same session.
func (g *authenticationGate) rotateCredential(ctx context.Context, record *entity.CredentialRecord) (string, error) {
	refresh, err := g.tokens.IssueRefreshToken(record.PrincipalID, record.SessionID)
	if err != nil {
		g.metrics.Rotation(metrics.RotationFailed)

		return "", errors.Wrap(err, "failed to issue refresh token")
	}

	next := &entity.CredentialRecord{
		PrincipalID: record.PrincipalID,
		SessionID:   record.SessionID,
		Fingerprint: g.tokens.Fingerprint(refresh.Value),
		UserAgent:   record.UserAgent,
		RemoteIP:    record.RemoteIP,
		IssuedAt:    g.now(),
		ExpiresAt:   refresh.ExpiresAt,
	}
	if err := g.credentials.Rotate(ctx, record.ID, next); err != nil {
		if errors.Is(err, repository.ErrCredentialSuperseded) {
			return "", err
		}
		g.metrics.Rotation(metrics.RotationFailed)

		return "", g.storeFailure(ctx, "failed to rotate session credential", err)
	}

	return refresh.Value, nil
}

func (g *authenticationGate) anonymous(reason usecase.GateReason, clear bool) *usecase.GateOutcome {
	g.metrics.GateOutcome(string(reason))

	return &usecase.GateOutcome{
		State:        usecase.GateAnonymous,
		Reason:       reason,
		ClearCarrier: clear,
	}
}

// tampered is logged above routine expiry; callers still only see an anonymous outcome.
func (g *authenticationGate) tampered(ctx context.Context, msg string, cause error) *usecase.GateOutcome {
	attrs := []any{slog.String("reason", msg)}
	if cause != nil {
		attrs = append(attrs, slog.Any("error", cause))
	}
	g.log(ctx).Warn("Possible session tampering", attrs...)
	g.metrics.Tampered()
	g.events.emit(ctx, &service.SecurityEvent{
		Type:   service.EventCarrierTampered,
		Reason: msg,
	})

	return g.anonymous(usecase.ReasonTampered, true)
}

func (g *authenticationGate) storeFailure(ctx context.Context, msg string, cause error) error {
	g.log(ctx).Error("Credential store failure", slog.String("operation", msg), slog.Any("error", cause))
	g.metrics.GateOutcome("error")

	return errors.Wrap(domainerrors.ErrCredentialStoreUnavailable, msg)
}

func claimsMatch(claims *service.Claims, principal *entity.PrincipalSnapshot) bool {
	return claims.PrincipalID == principal.ID && claims.Role == principal.Role
}
