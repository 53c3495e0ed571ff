// Package lifecycle holds shared limits for start and stop hooks.
package lifecycle

import "time"

// DefaultTimeout bounds every start or stop hook.
const DefaultTimeout = 10 * time.Second
