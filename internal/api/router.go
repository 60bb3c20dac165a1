/**
 * @description
 * This file sets up the HTTP router for the commission-service. It defines
 * the webhook ingress endpoints, the queue-invoked task endpoint, and the
 * health check, and applies the standard middleware stack.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/salespulse/commission-service/internal/app"
)

// Routes creates and returns the router for the commission service.
func Routes(wh *WebhookHandlers, th *TaskHandlers, limiter *app.RedisWebhookRateLimiter, webhookRatePerMinute int) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for request ids, panic recovery, and timeouts.
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Webhook ingress, optionally rate limited per client.
	r.Group(func(r chi.Router) {
		r.Use(WebhookRateLimit(limiter, webhookRatePerMinute))
		r.Post("/webhooks/sale", wh.SaleWebhookHandler)
		r.Post("/webhooks/payment", wh.PaymentWebhookHandler)
	})

	// Queue-invoked worker endpoint. Runs on its own timeout budget, shorter
	// than the webhook path.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(45 * time.Second))
		r.Post("/tasks/notification", th.ProcessNotificationTaskHandler)
	})

	return r
}
