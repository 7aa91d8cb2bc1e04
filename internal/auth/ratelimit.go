package auth

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/streamv8/streamv8/internal/httputil"
)

// RateLimiter throttles requests per client IP. Limiters for idle IPs are
// dropped once they have fully refilled.
type RateLimiter struct {
	mu      sync.Mutex
	perIP   map[string]*ipLimiter
	limit   rate.Limit
	burst   int
	maxIdle time.Duration
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		perIP:   make(map[string]*ipLimiter),
		limit:   limit,
		burst:   burst,
		maxIdle: 10 * time.Minute,
	}
}

// NewLoginLimiter throttles credential attempts: 10/minute sustained with a
// small burst.
func NewLoginLimiter() *RateLimiter {
	return NewRateLimiter(rate.Every(6*time.Second), 5)
}

// NewAdminLimiter throttles admin mutations, which arrive in legitimate
// bursts (bulk catalog edits) but never at credential-stuffing rates.
func NewAdminLimiter() *RateLimiter {
	return NewRateLimiter(rate.Every(time.Second), 30)
}

func (l *RateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	entry, ok := l.perIP[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.perIP[ip] = entry
	}
	entry.lastSeen = now
	for key, other := range l.perIP {
		if key != ip && now.Sub(other.lastSeen) > l.maxIdle {
			delete(l.perIP, key)
		}
	}
	return entry.limiter.Allow()
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.allow(ip) {
			httputil.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many attempts, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}
