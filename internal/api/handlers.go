/**
 * @description
 * This file contains the HTTP handlers for the webhook ingress: the generic
 * commerce-platform sale webhook and the HMAC-signed payment-processor
 * webhook. Handlers parse the incoming payload, call the accrual ledger, and
 * enqueue notification tasks. They are the bridge between the web layer and
 * the business logic layer.
 *
 * The enqueue step is deliberately best-effort: by the time it runs the sale
 * transaction has committed, and a queue outage must not turn a recorded sale
 * into a webhook failure. Enqueue errors are logged and swallowed.
 *
 * @dependencies
 * - crypto/hmac, crypto/sha1, encoding/hex, encoding/json: Signature checks and JSON.
 * - net/http: Standard Go HTTP handling.
 * - internal/app, internal/domain, internal/store: Service logic, models, errors.
 */

package api

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/salespulse/commission-service/internal/app"
	"github.com/salespulse/commission-service/internal/domain"
	"github.com/salespulse/commission-service/internal/store"
	"github.com/shopspring/decimal"
)

// WebhookHandlers holds the application services the webhook endpoints use.
type WebhookHandlers struct {
	service       *app.Service
	queue         *app.NotificationQueue
	paymentSecret string
}

// NewWebhookHandlers creates a new instance of WebhookHandlers.
func NewWebhookHandlers(service *app.Service, queue *app.NotificationQueue, paymentSecret string) *WebhookHandlers {
	return &WebhookHandlers{service: service, queue: queue, paymentSecret: paymentSecret}
}

// errorResponse is the JSON envelope returned for failed requests.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// saleWebhookResponse is returned after a sale webhook has been processed.
type saleWebhookResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Data    saleWebhookResultDTO `json:"data"`
}

type saleWebhookResultDTO struct {
	SaleID         string          `json:"sale_id"`
	ShouldNotify   bool            `json:"should_notify"`
	NewAccumulated decimal.Decimal `json:"new_accumulated"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}

func writeError(w http.ResponseWriter, status int, name, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: name, Message: message})
}

// writeServiceError maps service-layer errors onto the HTTP taxonomy.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrValidation):
		writeError(w, http.StatusBadRequest, "ValidationError", err.Error())
	case errors.Is(err, store.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "NotFoundError", "user not found")
	default:
		log.Printf("level=error component=api msg=\"sale processing failed\" err=%v", err)
		writeError(w, http.StatusInternalServerError, "InternalServerError", "failed to process sale")
	}
}

// SaleWebhookHandler handles sale webhooks from the commerce platform.
// POST /webhooks/sale
// Body: { orderId, productName, amount, currency, userId?, ... }
func (h *WebhookHandlers) SaleWebhookHandler(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	orderID, _ := payload["orderId"].(string)
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "ValidationError", "orderId is required in the payload")
		return
	}

	userID, err := extractUserID(payload, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}

	data := buildSaleData(payload, orderID)

	log.Printf("level=info component=api msg=\"sale webhook received\" user_id=%s order_id=%s", userID, orderID)
	h.processAndRespond(w, r, userID, payload, data)
}

// PaymentWebhookHandler handles webhooks from the payment processor.
// POST /webhooks/payment?signature=<hex HMAC-SHA1 of the raw body>
func (h *WebhookHandlers) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "cannot read request body")
		return
	}

	if err := h.validatePaymentSignature(r.URL.Query().Get("signature"), body); err != nil {
		log.Printf("level=warn component=api msg=\"payment webhook signature rejected\" err=%v", err)
		writeError(w, http.StatusUnauthorized, "UnauthorizedError", "invalid webhook signature")
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "request body must be a JSON object")
		return
	}

	event, _ := payload["webhook_event_type"].(string)
	if event == "" {
		writeError(w, http.StatusBadRequest, "ValidationError", "webhook_event_type is required in the payload")
		return
	}

	var status domain.SaleStatus
	switch event {
	case "order_approved":
		status = domain.SaleStatusCompleted
	case "order_refunded", "chargeback":
		status = domain.SaleStatusRefunded
	default:
		log.Printf("level=warn component=api msg=\"unsupported payment event acknowledged\" event=%s", event)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "event received but not processed",
			"event":   event,
		})
		return
	}

	orderID, _ := payload["order_id"].(string)
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "ValidationError", "order_id is required in the payload")
		return
	}

	userID, err := extractUserID(payload, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}

	data := buildSaleData(payload, orderID)
	data.Status = status
	if product, ok := payload["Product"].(map[string]interface{}); ok {
		if name, ok := product["product_name"].(string); ok && name != "" {
			data.ProductName = name
		}
	}

	log.Printf("level=info component=api msg=\"payment webhook received\" user_id=%s order_id=%s event=%s", userID, orderID, event)
	h.processAndRespond(w, r, userID, payload, data)
}

// processAndRespond runs the shared orchestration: synchronous accrual
// transaction, then best-effort enqueue, then the webhook response.
func (h *WebhookHandlers) processAndRespond(w http.ResponseWriter, r *http.Request, userID string, payload map[string]interface{}, data domain.CreateSaleData) {
	commission := app.ExtractCommission(payload)

	result, err := h.service.ProcessSale(r.Context(), userID, data, commission)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// The sale is committed; notification scheduling failures stay on this
	// side of the reliability boundary.
	var taskID string
	if result.ShouldNotify && result.NotificationData != nil {
		taskID, err = h.queue.EnqueueThreshold(r.Context(), userID, result.NotificationData.AccumulatedAmount, result.NotificationData.Threshold)
	} else if result.NotificationType == domain.NotificationTypePerSale {
		taskID, err = h.queue.EnqueuePerSale(r.Context(), userID, domain.SaleNotificationData{
			ProductName: data.ProductName,
			Amount:      data.Amount,
			Currency:    data.Currency,
			OrderID:     data.OrderID,
		})
	}
	if err != nil {
		log.Printf("level=error component=api msg=\"notification enqueue failed; sale already committed\" user_id=%s order_id=%s err=%v", userID, data.OrderID, err)
	} else if taskID != "" {
		log.Printf("level=info component=api msg=\"sale processed and notification enqueued\" user_id=%s order_id=%s task_id=%s should_notify=%t", userID, data.OrderID, taskID, result.ShouldNotify)
	}

	writeJSON(w, http.StatusOK, saleWebhookResponse{
		Success: true,
		Message: "sale processed",
		Data: saleWebhookResultDTO{
			SaleID:         result.Sale.ID,
			ShouldNotify:   result.ShouldNotify,
			NewAccumulated: result.NewAccumulated,
		},
	})
}

func (h *WebhookHandlers) validatePaymentSignature(signature string, body []byte) error {
	if signature == "" {
		return errors.New("webhook signature not provided")
	}
	if h.paymentSecret == "" {
		return errors.New("payment webhook secret not configured")
	}

	mac := hmac.New(sha1.New, []byte(h.paymentSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return errors.New("signature mismatch")
	}
	return nil
}

func decodePayload(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload == nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "request body must be a JSON object")
		return nil, false
	}
	return payload, true
}

// extractUserID resolves the user the sale belongs to, from the payload or
// the X-User-Id header.
func extractUserID(payload map[string]interface{}, r *http.Request) (string, error) {
	if userID, ok := payload["userId"].(string); ok && strings.TrimSpace(userID) != "" {
		return userID, nil
	}
	if userID := r.Header.Get("X-User-Id"); strings.TrimSpace(userID) != "" {
		return userID, nil
	}
	return "", fmt.Errorf("user id not found; provide 'userId' in the payload or the 'X-User-Id' header")
}

// buildSaleData pulls the typed sale fields out of the raw payload, applying
// the ingress defaults. The full payload is retained for audit.
func buildSaleData(payload map[string]interface{}, orderID string) domain.CreateSaleData {
	data := domain.CreateSaleData{
		OrderID:     orderID,
		ProductName: "Produto não especificado",
		Amount:      decimal.Zero,
		Currency:    "BRL",
		Status:      domain.SaleStatusCompleted,
		RawPayload:  payload,
	}

	if name, ok := payload["productName"].(string); ok && name != "" {
		data.ProductName = name
	}
	if amount, ok := app.ToDecimal(payload["amount"]); ok && !amount.IsNegative() {
		data.Amount = amount
	}
	if currency, ok := payload["currency"].(string); ok && currency != "" {
		data.Currency = currency
	}
	switch status, _ := payload["status"].(string); status {
	case "pending":
		data.Status = domain.SaleStatusPending
	case "refunded":
		data.Status = domain.SaleStatusRefunded
	}

	return data
}
