/**
 * @description
 * This file defines the core domain models for the commission-service.
 * These structs represent the entities used throughout the service's business
 * logic, database interactions, and API layers: the commission slice of the
 * user record, the immutable sale record written per processed webhook, and
 * the DTOs exchanged with the webhook ingress layer.
 *
 * @notes
 * - Monetary values (commission, accumulated commission, sale amounts) use
 *   shopspring/decimal rather than float64 so that thousands of small
 *   accruals never drift. They map to NUMERIC columns in Postgres.
 */

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus enumerates the lifecycle states a sale record can carry.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusRefunded  SaleStatus = "refunded"
)

// NotificationPolicyType selects how a user wants to be notified about sales.
type NotificationPolicyType string

const (
	// PolicyPerSale sends one notification per processed sale and never
	// accrues commission.
	PolicyPerSale NotificationPolicyType = "per_sale"
	// PolicyAccumulatedThreshold accrues commission and notifies only when
	// the running total crosses the configured threshold.
	PolicyAccumulatedThreshold NotificationPolicyType = "accumulated_threshold"
)

// TelegramConfig is the user's delivery-channel configuration. Absence of a
// configured channel is a valid state, not an error.
type TelegramConfig struct {
	BotToken     string
	ChatID       string
	IsConfigured bool
}

// User is the commission slice of the user entity. Only the fields this
// service reads or mutates are modeled; provisioning lives elsewhere.
type User struct {
	ID                    string
	AccumulatedCommission decimal.Decimal
	PolicyType            NotificationPolicyType
	CommissionThreshold   decimal.Decimal
	Telegram              TelegramConfig
	UpdatedAt             time.Time
}

// Sale is the immutable record persisted for every processed sale webhook.
// It maps directly to the `sales` table and is written in the same database
// transaction as the user's accumulated-commission update.
type Sale struct {
	ID               string                 `json:"id"`
	UserID           string                 `json:"user_id"`
	OrderID          string                 `json:"order_id"`
	ProductName      string                 `json:"product_name"`
	Amount           decimal.Decimal        `json:"amount"`
	Currency         string                 `json:"currency"`
	Status           SaleStatus             `json:"status"`
	Commission       decimal.Decimal        `json:"commission"`
	RawPayload       map[string]interface{} `json:"raw_payload"`
	NotificationSent bool                   `json:"notification_sent"`
	CreatedAt        time.Time              `json:"created_at"`
}

// CreateSaleData is the DTO the webhook ingress hands to the ledger. The
// commission is passed separately because it has already been extracted and
// validated by the caller; the stored sale keeps exactly that value.
type CreateSaleData struct {
	OrderID     string
	ProductName string
	Amount      decimal.Decimal
	Currency    string
	Status      SaleStatus
	RawPayload  map[string]interface{}
}

// SaleNotificationData is the per-sale slice of sale data carried inside a
// per-sale notification task.
type SaleNotificationData struct {
	ProductName string          `json:"product_name"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	OrderID     string          `json:"order_id"`
}

// ProcessResult is returned to the webhook orchestrator after a successful
// sale transaction. The orchestrator uses it to decide what to enqueue.
type ProcessResult struct {
	ShouldNotify     bool
	NewAccumulated   decimal.Decimal
	NotificationType NotificationType
	NotificationData *ThresholdNotificationData
	Sale             *Sale
}
