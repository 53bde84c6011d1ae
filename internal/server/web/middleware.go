package web

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/logging"
	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"

	principalKey = "principal"
	sessionKey   = "session"

	rateWindow = time.Minute
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

func Logger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		log.Info(c.Request.Context(), "request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", latency,
			"request_id", c.GetString(RequestIDHeader),
			"ip", c.ClientIP(),
		)
	}
}

// LoadSession resolves the session cookie to a principal. Requests without a
// valid cookie continue anonymously; a cookie that no longer resolves is
// cleared.
func LoadSession(accounts AccountService, secure bool, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(common.SessionCookieName)
		if err != nil || cookie == "" {
			c.Next()
			return
		}

		session, principal, err := accounts.ResolveSession(c.Request.Context(), cookie)
		if err != nil {
			if errors.Is(err, common.ErrorUnauthorized) {
				clearSessionCookie(c, secure)
				c.Next()
				return
			}
			log.Error(c.Request.Context(), "session lookup failed", "error", err)
			c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			c.Abort()
			return
		}

		c.Set(sessionKey, session)
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireTier rejects requests whose principal is below tier: admin routes
// answer 403, everything else redirects home.
func RequireTier(tier auth.Tier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.Allows(principalFrom(c), tier) {
			c.Next()
			return
		}

		if tier >= auth.TierAdmin {
			c.String(http.StatusForbidden, "Unauthorized")
		} else {
			c.Redirect(http.StatusFound, "/")
		}
		c.Abort()
	}
}

func principalFrom(c *gin.Context) *models.Account {
	if v, ok := c.Get(principalKey); ok {
		if a, ok := v.(*models.Account); ok {
			return a
		}
	}
	return nil
}

func sessionFrom(c *gin.Context) *models.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*models.Session); ok {
			return s
		}
	}
	return nil
}

func setSessionCookie(c *gin.Context, value string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, value, maxAge, "/", "", secure, true)
}

func clearSessionCookie(c *gin.Context, secure bool) {
	setSessionCookie(c, "", -1, secure)
}

// RateLimiter is a fixed-window per-IP counter. Stale windows of other
// clients are dropped at most once per window.
type RateLimiter struct {
	limit     int
	now       func() time.Time
	mu        sync.Mutex
	items     map[string]*rateEntry
	nextSweep time.Time
}

type rateEntry struct {
	count int
	reset time.Time
}

func NewRateLimiter(limit int) *RateLimiter {
	return &RateLimiter{
		limit: limit,
		now:   time.Now,
		items: make(map[string]*rateEntry),
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := rl.now()

		rl.mu.Lock()
		rl.sweep(now)
		entry, ok := rl.items[ip]
		if !ok || now.After(entry.reset) {
			entry = &rateEntry{count: 0, reset: now.Add(rateWindow)}
			rl.items[ip] = entry
		}
		entry.count++
		count := entry.count
		reset := entry.reset
		rl.mu.Unlock()

		if count > rl.limit {
			retry := int(math.Ceil(reset.Sub(now).Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.String(http.StatusTooManyRequests, "Too many requests.")
			c.Abort()
			return
		}

		c.Next()
	}
}

// sweep drops expired windows. Callers hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Before(rl.nextSweep) {
		return
	}
	for key, e := range rl.items {
		if now.After(e.reset) {
			delete(rl.items, key)
		}
	}
	rl.nextSweep = now.Add(rateWindow)
}
