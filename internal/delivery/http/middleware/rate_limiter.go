package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ipLimiter limite le débit de création de signalements par IP. Fenêtre fixe:
// chaque IP dispose d'un quota qui se recharge intégralement à l'expiration
// de la fenêtre. Les signalements étant anonymes, l'IP est le seul
// identifiant exploitable ici.
type ipLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	quota   int
	window  time.Duration
}

type bucket struct {
	remaining int
	resetAt   time.Time
}

func newIPLimiter(quota int, window time.Duration) *ipLimiter {
	l := &ipLimiter{
		buckets: make(map[string]*bucket),
		quota:   quota,
		window:  window,
	}
	go l.evictLoop()
	return l
}

// allow consomme une unité du quota de l'IP. Retourne false avec le délai
// avant rechargement quand le quota est épuisé.
func (l *ipLimiter) allow(ip string) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[ip]
	if !ok || now.After(b.resetAt) {
		b = &bucket{remaining: l.quota, resetAt: now.Add(l.window)}
		l.buckets[ip] = b
	}

	if b.remaining <= 0 {
		return false, time.Until(b.resetAt)
	}
	b.remaining--
	return true, 0
}

// evictLoop purge les buckets dont la fenêtre est expirée depuis longtemps.
func (l *ipLimiter) evictLoop() {
	ticker := time.NewTicker(l.window * 2)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		l.mu.Lock()
		for ip, b := range l.buckets {
			if now.Sub(b.resetAt) > l.window {
				delete(l.buckets, ip)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimitMiddleware borne le nombre de requêtes par IP sur une fenêtre
// glissante. Utilisé sur la création anonyme de signalements.
func RateLimitMiddleware(quota int, window time.Duration) gin.HandlerFunc {
	limiter := newIPLimiter(quota, window)

	return func(c *gin.Context) {
		ok, retryAfter := limiter.allow(c.ClientIP())
		if !ok {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests",
				"retry_after": int(retryAfter.Seconds()) + 1,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
