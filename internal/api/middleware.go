/**
 * @description
 * This file contains custom middleware for the HTTP router. The webhook
 * ingress can be rate limited per client through a shared Redis window;
 * when Redis is not configured the middleware admits everything.
 *
 * @dependencies
 * - net, net/http, strconv, strings, time: Standard Go libraries.
 * - internal/app: The Redis-backed rate limiter.
 */

package api

import (
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/salespulse/commission-service/internal/app"
)

// WebhookRateLimit limits webhook deliveries per client IP using a fixed
// one-minute window. A nil limiter or non-positive limit disables the check.
// Limiter backend errors fail open: dropping a sale is worse than letting a
// burst through.
func WebhookRateLimit(limiter *app.RedisWebhookRateLimiter, perMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || perMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			subject := clientIP(r)
			count, retryAfter, err := limiter.Consume(r.Context(), subject, perMinute, time.Minute)
			if err != nil {
				log.Printf("level=warn component=api msg=\"rate limiter unavailable; admitting request\" err=%v", err)
				next.ServeHTTP(w, r)
				return
			}

			if count > perMinute {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, "RateLimited", "too many webhook deliveries; slow down")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
