package main

import (
	"fmt"
	"io"
	"time"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/service"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/auth"
)

func runInspect(w io.Writer, value string) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	return inspectCarrier(w, cfg, value, time.Now())
}

// inspectCarrier prints what a cookie holds. It never reads the credential store, so a
// revoked session still shows its tokens as valid.
func inspectCarrier(w io.Writer, cfg *config.Config, value string, now time.Time) error {
	carrier, err := auth.NewCookieCarrier(cfg)
	if err != nil {
		return err
	}

	payload, err := carrier.Decode(value)
	if err != nil {
		return err
	}

	tokens, err := auth.NewJWTService(cfg, auth.WithClock(func() time.Time { return now }))
	if err != nil {
		return err
	}

	access := tokens.Verify(payload.AccessToken, service.TokenTypeAccess)
	refresh := tokens.Verify(payload.RefreshToken, service.TokenTypeRefresh)

	fmt.Fprintf(w, "Size:       %s\n", formatCarrierSize(len(value), cfg.Session.MaxSize))
	fmt.Fprintf(w, "Version:    %d\n", payload.Version)
	fmt.Fprintf(w, "Principal:  %s (%s)\n", payload.Principal.ID, payload.Principal.Role)
	if refresh.Claims != nil {
		fmt.Fprintf(w, "Session:    %s\n", refresh.Claims.SessionID)
	}
	fmt.Fprintf(w, "Record:     %s\n", redactFingerprint(tokens.Fingerprint(payload.RefreshToken)))
	fmt.Fprintf(w, "Access:     %s\n", describe(access, now))
	fmt.Fprintf(w, "Refresh:    %s\n", describe(refresh, now))

	return nil
}

func describe(result service.VerifyResult, now time.Time) string {
	switch result.Status {
	case service.VerifyValid:
		return "valid, expires in " + formatTTL(result.Claims.ExpiresAt.Sub(now))
	case service.VerifyExpired:
		return "expired " + formatTTL(now.Sub(result.Claims.ExpiresAt)) + " ago"
	default:
		return fmt.Sprintf("invalid (%v)", result.Err)
	}
}
