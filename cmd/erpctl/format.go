package main

import (
	"fmt"
	"time"
)

const fingerprintPrefixLen = 12

// formatTTL renders token lifetimes and ages the way they are configured: days for
// refresh tokens, minutes for access tokens.
func formatTTL(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Round(time.Second)

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		days := int(d.Hours()) / 24

		return fmt.Sprintf("%dd%dh%dm", days, int(d.Hours())%24, int(d.Minutes())%60)
	}
}

// formatCarrierSize reports how much of the cookie budget a carrier uses.
func formatCarrierSize(size, limit int) string {
	if limit <= 0 {
		return fmt.Sprintf("%d B", size)
	}

	return fmt.Sprintf("%d of %d B (%d%%)", size, limit, size*100/limit)
}

// redactFingerprint keeps enough of a refresh fingerprint to find its record by prefix.
func redactFingerprint(fingerprint string) string {
	if len(fingerprint) <= fingerprintPrefixLen {
		return fingerprint
	}

	return fingerprint[:fingerprintPrefixLen] + "..."
}
