package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ventana tracks request counts of one IP within a fixed window.
type ventana struct {
	count     int
	windowEnd time.Time
}

// limiter is a per-IP fixed-window counter. Expired windows are purged
// lazily on a timer so IPs that never return do not accumulate.
type limiter struct {
	nombre  string
	limit   int
	window  time.Duration
	mu      sync.Mutex
	ips     map[string]*ventana
	ultPurg time.Time
}

func newLimiter(nombre string, limit int, window time.Duration) *limiter {
	return &limiter{nombre: nombre, limit: limit, window: window, ips: map[string]*ventana{}}
}

const purgeInterval = 5 * time.Minute

// allow counts one hit for ip and reports whether it is within the limit
// together with the end of the current window.
func (l *limiter) allow(ip string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.ultPurg) > purgeInterval {
		l.purge(now)
	}

	v, ok := l.ips[ip]
	if !ok {
		v = &ventana{}
		l.ips[ip] = v
	}
	if now.After(v.windowEnd) {
		v.count = 0
		v.windowEnd = now.Add(l.window)
	}
	v.count++
	return v.count <= l.limit, v.windowEnd
}

func (l *limiter) purge(now time.Time) {
	purged := 0
	for ip, v := range l.ips {
		if now.After(v.windowEnd) {
			delete(l.ips, ip)
			purged++
		}
	}
	l.ultPurg = now
	if purged > 0 {
		log.Debug().
			Str("limiter", l.nombre).
			Int("entries_purged", purged).
			Int("entries_remaining", len(l.ips)).
			Msg("rate limiter purged")
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	l := newLimiter("login", 20, time.Minute)
	return func(c *gin.Context) {
		if ok, _ := l.allow(c.ClientIP(), time.Now()); !ok {
			apierror.Abortar(c, http.StatusTooManyRequests, "Demasiados intentos de login. Intente en 1 minuto.")
			return
		}
		c.Next()
	}
}

// RateLimiter returns a general-purpose per-IP limiter.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	l := newLimiter("api", limit, window)
	return func(c *gin.Context) {
		ok, fin := l.allow(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", fin.UTC().Format(http.TimeFormat))
			apierror.Abortar(c, http.StatusTooManyRequests, "Demasiadas solicitudes. Intente nuevamente en un momento.")
			return
		}
		c.Next()
	}
}
