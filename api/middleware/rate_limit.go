package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// FloodGuard is a coarse token-bucket limiter in front of the auth routes.
// The password reset quota is enforced separately by the service.
type FloodGuard struct {
	limiters map[string]*rate.Limiter
	mutex    sync.Mutex
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	lastSeen map[string]time.Time
}

func NewFloodGuard(r rate.Limit, burst int, ttl time.Duration) *FloodGuard {
	return &FloodGuard{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		rate:     r,
		burst:    burst,
		ttl:      ttl,
	}
}

func (g *FloodGuard) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			limiter := g.getLimiter(ClientIdentifier(c.Request()))
			if !limiter.Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(c)
		}
	}
}

func (g *FloodGuard) getLimiter(clientID string) *rate.Limiter {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if limiter, ok := g.limiters[clientID]; ok {
		g.lastSeen[clientID] = time.Now()
		return limiter
	}
	limiter := rate.NewLimiter(g.rate, g.burst)
	g.limiters[clientID] = limiter
	g.lastSeen[clientID] = time.Now()
	g.cleanup()
	return limiter
}

func (g *FloodGuard) cleanup() {
	if g.ttl == 0 {
		return
	}
	cutoff := time.Now().Add(-g.ttl)
	for clientID, last := range g.lastSeen {
		if last.Before(cutoff) {
			delete(g.lastSeen, clientID)
			delete(g.limiters, clientID)
		}
	}
}
