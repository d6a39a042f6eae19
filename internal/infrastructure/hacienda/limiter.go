package hacienda

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// CompanyLimiter limita las llamadas a Hacienda por empresa emisora.
type CompanyLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	ttl      time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewCompanyLimiter perSecond llamadas por segundo con ráfagas de burst.
func NewCompanyLimiter(perSecond float64, burst int) *CompanyLimiter {
	if perSecond <= 0 {
		perSecond = 2
	}
	if burst <= 0 {
		burst = 1
	}
	return &CompanyLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		ttl:      30 * time.Minute,
	}
}

// Wait bloquea hasta que la empresa tenga cupo o ctx termine.
func (l *CompanyLimiter) Wait(ctx context.Context, companyID string) error {
	return l.get(companyID).Wait(ctx)
}

func (l *CompanyLimiter) get(companyID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	e, ok := l.limiters[companyID]
	if !ok {
		l.prune(now)
		e = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[companyID] = e
	}
	e.lastSeen = now
	return e.limiter
}

// prune descarta limitadores sin uso; se llama con mu tomado.
func (l *CompanyLimiter) prune(now time.Time) {
	for id, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.ttl {
			delete(l.limiters, id)
		}
	}
}
