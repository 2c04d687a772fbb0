package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Gravender/boardgames-backend/api/responses"
	pkgerrors "github.com/Gravender/boardgames-backend/pkg/errors"
	"github.com/Gravender/boardgames-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// LinkRateLimitPolicy throttles anonymous share-link resolution per client IP.
type LinkRateLimitPolicy struct {
	name    string
	window  time.Duration
	ipLimit int
}

// NewLinkRateLimitPolicy builds a policy with the supplied window and limit.
func NewLinkRateLimitPolicy(name string, window time.Duration, ipLimit int) LinkRateLimitPolicy {
	return LinkRateLimitPolicy{
		name:    strings.ToLower(strings.TrimSpace(name)),
		window:  window,
		ipLimit: ipLimit,
	}
}

func (p LinkRateLimitPolicy) enabled() bool {
	return p.window > 0 && p.ipLimit > 0
}

func (p LinkRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "share-link"
	}
	return p.name
}

func (p LinkRateLimitPolicy) ipKey(ip string) string {
	if ip == "" {
		return ""
	}
	return "rl:ip:" + p.normalizedName() + ":" + ip
}

// LinkRateLimit enforces a per-IP counter on public share-link endpoints.
func LinkRateLimit(policy LinkRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			key := policy.ipKey(ip)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			count, err := store.IncrWithTTL(ctx, key, policy.window)
			if err != nil {
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if count > int64(policy.ipLimit) {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"policy":         policy.normalizedName(),
						"ip":             ip,
						"attempts":       count,
						"limit":          policy.ipLimit,
						"window_seconds": int(policy.window.Seconds()),
					})
					logg.Warn(logCtx, "share_link.rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
