package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/iconic-inc/iconic-erp-sub003/config"
	"github.com/iconic-inc/iconic-erp-sub003/internal/delivery/api/response"
	deliverycontext "github.com/iconic-inc/iconic-erp-sub003/internal/delivery/context"
	domainerrors "github.com/iconic-inc/iconic-erp-sub003/internal/domain/errors"
	"github.com/iconic-inc/iconic-erp-sub003/internal/infra/metrics"
)

const (
	limiterIdleTTL     = 10 * time.Minute
	limiterSweepPeriod = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware throttles login attempts per remote IP.
type RateLimitMiddleware struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	metrics   *metrics.AuthMetrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewRateLimitMiddleware builds the limiter from auth.loginRateLimit. A nil metrics records nothing.
func NewRateLimitMiddleware(cfg *config.Config, metrics *metrics.AuthMetrics, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(cfg.Auth.LoginRateLimit.RequestsPerSecond),
		burst:    cfg.Auth.LoginRateLimit.Burst,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle rejects the request with 429 once the caller's bucket is empty.
func (m *RateLimitMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := c.RealIP()
		if !m.allow(ip) {
			deliverycontext.LoggerFrom(c.Request().Context(), m.logger).Warn("Login throttled", slog.String("remote_ip", ip))
			m.metrics.Login(metrics.LoginThrottled)

			return response.AppError(c, domainerrors.ErrTooManyRequests)
		}

		return next(c)
	}
}

func (m *RateLimitMiddleware) allow(ip string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= limiterSweepPeriod {
		for key, v := range m.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(m.visitors, key)
			}
		}
		m.lastSweep = now
	}

	v, ok := m.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}
