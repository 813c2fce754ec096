package marketserver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	userapp "github.com/Apurer/go-gin-marketplace/internal/domains/users/application"
	apierrors "github.com/Apurer/go-gin-marketplace/internal/shared/errors"
	"github.com/Apurer/go-gin-marketplace/internal/shared/identity"
)

// AccessTokenCookie is accepted in place of the Authorization header for browser clients.
const AccessTokenCookie = "accessToken"

// Authenticator resolves a bearer token to the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (identity.Identity, error)
}

// RequireIdentity rejects requests without a valid token and stores the identity on the request context.
func RequireIdentity(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticator == nil {
			apierrors.Respond(c, apierrors.ErrUnauthorized.WithDetail("authentication is not configured"))
			return
		}
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
				token = strings.TrimSpace(cookie)
			}
		}
		if token == "" {
			apierrors.Respond(c, apierrors.ErrUnauthorized.WithDetail("missing bearer token"))
			return
		}
		caller, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, userapp.ErrAuthentication) {
				apierrors.Respond(c, apierrors.ErrUnauthorized.WithDetail("invalid or expired token"))
				return
			}
			apierrors.DefaultResponder.RespondError(c, err)
			return
		}
		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), caller))
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// callerFrom returns the identity stored by RequireIdentity; handlers behind it can rely on ok.
func callerFrom(c *gin.Context) (identity.Identity, bool) {
	caller, ok := identity.FromContext(c.Request.Context())
	if !ok {
		apierrors.Respond(c, apierrors.ErrUnauthorized)
	}
	return caller, ok
}

// ClientRateLimiter keeps one token bucket per client IP.
type ClientRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientRateLimiter allows rps requests per second with the given burst per client.
func NewClientRateLimiter(rps float64, burst int) *ClientRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ClientRateLimiter{
		clients:   make(map[string]*clientLimiter),
		limit:     rate.Limit(rps),
		burst:     burst,
		idleAfter: 10 * time.Minute,
		now:       time.Now,
	}
}

// Allow reports whether the client may make another request now.
func (l *ClientRateLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) > l.idleAfter {
		for key, entry := range l.clients {
			if now.Sub(entry.lastSeen) > l.idleAfter {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}
	entry, ok := l.clients[client]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[client] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// Middleware answers 429 once a client's bucket is empty.
func (l *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			apierrors.Respond(c, apierrors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
