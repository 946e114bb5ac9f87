package providers

import (
	"golang.org/x/time/rate"
)

// newLimiter builds a token-bucket limiter from a provider's rate limit
// configuration. A zero RequestsPerMinute means unlimited.
func newLimiter(cfg RateLimitConfig) *rate.Limiter {
	if cfg.RequestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = cfg.RequestsPerMinute
	}
	return rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), burst)
}
