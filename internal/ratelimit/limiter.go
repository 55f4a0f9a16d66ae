// Package ratelimit throttles the authentication endpoints per client,
// in front of the account lockout logic.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func New(rps int, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether a request under the given key (client IP) may
// proceed.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[key] = lim

		// bound the map; dropping limiters only ever loosens limits
		if len(l.limiters) > 10000 {
			l.limiters = map[string]*rate.Limiter{key: lim}
		}
	}
	l.mu.Unlock()

	return lim.Allow()
}
