// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
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

const maxUserAgentLength = 512

// authService implements the AuthUsecase interface.
type authService struct {
	principals        repository.PrincipalRepository
	credentials       repository.CredentialRepository
	hasher            service.PasswordHasher
	tokens            service.TokenService
	carrier           service.SessionCarrier
	maxActiveSessions int
	metrics           *metrics.AuthMetrics
	events            *securityEvents
	logger            *slog.Logger
	now               func() time.Time
	// decoyHash is compared against when the email is unknown so the miss costs a full check.
	decoyHash         string
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	Principals  repository.PrincipalRepository
	Credentials repository.CredentialRepository
	Hasher      service.PasswordHasher
	Tokens      service.TokenService
	Carrier     service.SessionCarrier
	Config      *config.Config
	Metrics     *metrics.AuthMetrics   `optional:"true"`
	Events      service.EventPublisher `optional:"true"`
	Logger      *slog.Logger
}

// NewAuthService is the constructor for authService. It fails when the hasher cannot
// produce the decoy hash, since unknown emails would then answer faster than wrong passwords.
func NewAuthService(params AuthServiceParams) (usecase.AuthUsecase, error) {
	decoyHash, err := params.Hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare decoy password hash")
	}

	maxActiveSessions := 0
	if params.Config != nil && params.Config.Auth != nil {
		maxActiveSessions = params.Config.Auth.MaxActiveSessions
	}

	return &authService{
		principals:        params.Principals,
		credentials:       params.Credentials,
		hasher:            params.Hasher,
		tokens:            params.Tokens,
		carrier:           params.Carrier,
		maxActiveSessions: maxActiveSessions,
		metrics:           params.Metrics,
		events:            newSecurityEvents(params.Events, params.Logger),
		logger:            params.Logger,
		now:               time.Now,
		decoyHash:         decoyHash,
	}, nil
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.LoggerFrom(ctx, srv.logger)
}

func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Starting login", slog.String("email", input.Email))

	principal, err := srv.authenticate(ctx, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidCredentials) {
			srv.log(ctx).Warn("Login failed", slog.String("email", input.Email), slog.String("remote_ip", input.RemoteIP))
			srv.metrics.Login(metrics.LoginRejected)
			srv.events.emit(ctx, &service.SecurityEvent{
				Type:     service.EventLoginFailed,
				Email:    input.Email,
				RemoteIP: input.RemoteIP,
			})

			return nil, err
		}
		srv.metrics.Login(metrics.LoginStoreFailure)

		return nil, err
	}

	sessionID := uuid.New()
	access, err := srv.tokens.IssueAccessToken(principal.ID, principal.Role)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue access token")
	}
	refresh, err := srv.tokens.IssueRefreshToken(principal.ID, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue refresh token")
	}

	record := &entity.CredentialRecord{
		PrincipalID: principal.ID,
		SessionID:   sessionID,
		Fingerprint: srv.tokens.Fingerprint(refresh.Value),
		UserAgent:   truncateUTF8(input.UserAgent, maxUserAgentLength),
		RemoteIP:    input.RemoteIP,
		IssuedAt:    srv.now(),
		ExpiresAt:   refresh.ExpiresAt,
	}
	if err := srv.credentials.CreateWithLimit(ctx, record, srv.maxActiveSessions); err != nil {
		if errors.Is(err, repository.ErrSessionLimitReached) {
			srv.log(ctx).Warn("Login refused, session limit reached",
				slog.Any("principal_id", principal.ID), slog.Int("max_sessions", srv.maxActiveSessions))
			srv.metrics.Login(metrics.LoginLimited)

			return nil, errors.Wrap(domainerrors.ErrSessionLimitExceeded, "login failed")
		}
		srv.log(ctx).Error("Failed to persist session credential", slog.Any("error", err))
		srv.metrics.Login(metrics.LoginStoreFailure)

		return nil, errors.Wrap(domainerrors.ErrCredentialStoreUnavailable, "failed to persist session credential")
	}

	snapshot := principal.Snapshot()
	carrier, err := srv.carrier.Encode(&entity.SessionPayload{
		Principal:    snapshot,
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
	})
	if err != nil {
		srv.log(ctx).Error("Failed to encode session carrier", slog.Any("error", err))
		if revokeErr := srv.credentials.Revoke(ctx, record.ID); revokeErr != nil {
			srv.log(ctx).Error("Failed to revoke orphaned credential", slog.Any("error", revokeErr))
		}

		return nil, errors.Wrap(domainerrors.ErrSessionEncodingFailed, err.Error())
	}

	srv.metrics.Login(metrics.LoginSucceeded)
	srv.events.emit(ctx, &service.SecurityEvent{
		Type:        service.EventLoginSucceeded,
		PrincipalID: principal.ID.String(),
		SessionID:   sessionID.String(),
		RemoteIP:    input.RemoteIP,
	})
	srv.log(ctx).Info("Principal logged in", slog.Any("principal_id", principal.ID), slog.Any("session_id", sessionID))

	return &usecase.LoginOutput{
		Carrier:   carrier,
		Principal: snapshot,
		SessionID: sessionID,
		ExpiresAt: refresh.ExpiresAt,
	}, nil
}

// authenticate checks the password. An unknown email still costs one hash comparison.
func (srv *authService) authenticate(ctx context.Context, email, password string) (*entity.Principal, error) {
	principal, err := srv.principals.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrPrincipalNotFound) {
			srv.hasher.Check(password, srv.decoyHash)

			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
		}

		return nil, errors.Wrap(domainerrors.ErrCredentialStoreUnavailable, "failed to load principal")
	}

	if !srv.hasher.Check(password, principal.PasswordHash) || !principal.Active {
		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	return principal, nil
}

func (srv *authService) Logout(ctx context.Context, value string) error {
	if value == "" {
		return nil
	}

	payload, err := srv.carrier.Decode(value)
	if err != nil {
		srv.log(ctx).Debug("Logout with unusable carrier", slog.Any("error", err))

		return nil
	}

	record, err := srv.credentials.FindActive(ctx, srv.tokens.Fingerprint(payload.RefreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil
		}

		return errors.Wrap(domainerrors.ErrCredentialStoreUnavailable, "failed to look up session credential")
	}

	if err := srv.credentials.Revoke(ctx, record.ID); err != nil && !errors.Is(err, repository.ErrCredentialNotFound) {
		return errors.Wrap(domainerrors.ErrCredentialStoreUnavailable, "failed to revoke session credential")
	}
	srv.log(ctx).Info("Principal logged out", slog.Any("principal_id", record.PrincipalID), slog.Any("session_id", record.SessionID))
	srv.events.emit(ctx, &service.SecurityEvent{
		Type:        service.EventLoggedOut,
		PrincipalID: record.PrincipalID.String(),
		SessionID:   record.SessionID.String(),
	})

	return nil
}

func (srv *authService) LogoutEverywhere(ctx context.Context, principalID uuid.UUID) (int, error) {
	revoked, err := srv.credentials.RevokeAllForPrincipal(ctx, principalID)
	if err != nil {
		srv.log(ctx).Error("Failed to revoke all sessions", slog.Any("principal_id", principalID), slog.Any("error", err))

		return 0, errors.Wrap(domainerrors.ErrCredentialStoreUnavailable, "failed to revoke sessions")
	}
	srv.log(ctx).Info("Principal logged out everywhere", slog.Any("principal_id", principalID), slog.Int("revoked", revoked))
	srv.events.emit(ctx, &service.SecurityEvent{
		Type:        service.EventSessionsRevoked,
		PrincipalID: principalID.String(),
		ActorID:     principalID.String(),
		Count:       revoked,
	})

	return revoked, nil
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}

	return s
}
