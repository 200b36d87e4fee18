package auth

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter throttles login attempts per client IP.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	every    time.Duration
	burst    int
	idle     time.Duration
	now      func() time.Time
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewLoginLimiter allows burst attempts at once and then one per every.
func NewLoginLimiter(every time.Duration, burst int) *LoginLimiter {
	return &LoginLimiter{
		limiters: map[string]*visitor{},
		every:    every,
		burst:    burst,
		idle:     30 * time.Minute,
		now:      time.Now,
	}
}

func (l *LoginLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	v, ok := l.limiters[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.limiters[ip] = v
	}
	v.seen = now
	allowed := v.lim.AllowN(now, 1)
	l.sweep(now)
	return allowed
}

func (l *LoginLimiter) sweep(now time.Time) {
	for ip, v := range l.limiters {
		if now.Sub(v.seen) > l.idle {
			delete(l.limiters, ip)
		}
	}
}

// ClientIP is the address of the peer that sent r. X-Forwarded-For is only
// read when that peer is one of trusted, and then the right-most hop that
// is not itself a trusted proxy is used, since clients can prepend anything.
func ClientIP(r *http.Request, trusted []string) string {
	peer := hostOf(r.RemoteAddr)
	if !contains(trusted, peer) {
		return peer
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" || contains(trusted, hop) {
			continue
		}
		return hop
	}
	return peer
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
