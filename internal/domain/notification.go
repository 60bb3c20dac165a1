/**
 * @description
 * This file defines the notification task payloads exchanged with the task
 * queue, and the wire-level parsing/validation the queue worker applies to
 * incoming task bodies. Delivery is at-least-once, so these payloads must be
 * self-contained and safe to process more than once.
 *
 * Wire contract: the queue backend delivers the task either as raw JSON or as
 * base64-encoded JSON. A payload that fails validation is a client error and
 * must not be retried; the worker drops it.
 */

package domain

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// NotificationType discriminates the task payload variants.
type NotificationType string

const (
	NotificationTypePerSale   NotificationType = "sale"
	NotificationTypeThreshold NotificationType = "accumulated_commission"
)

// ErrMalformedTask marks a task payload the worker must drop instead of
// retrying. Wrap it so callers can test with errors.Is.
var ErrMalformedTask = errors.New("malformed notification task")

// NotificationTask is the unified task payload. Exactly one of SaleData or
// the threshold pair is populated, depending on Type.
type NotificationTask struct {
	Type   NotificationType `json:"type"`
	UserID string           `json:"user_id"`

	// Per-sale payload.
	SaleData *SaleNotificationData `json:"sale_data,omitempty"`

	// Threshold payload. The accumulated amount is the pre-reset total.
	AccumulatedAmount *decimal.Decimal `json:"accumulated_amount,omitempty"`
	Threshold         *decimal.Decimal `json:"threshold,omitempty"`
}

// Validate checks the task payload shape against its declared type.
func (t *NotificationTask) Validate() error {
	if t.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrMalformedTask)
	}
	switch t.Type {
	case NotificationTypePerSale:
		if t.SaleData == nil {
			return fmt.Errorf("%w: sale_data is required for sale tasks", ErrMalformedTask)
		}
		if t.SaleData.ProductName == "" || t.SaleData.OrderID == "" || t.SaleData.Currency == "" {
			return fmt.Errorf("%w: sale_data must carry product_name, order_id and currency", ErrMalformedTask)
		}
	case NotificationTypeThreshold:
		if t.AccumulatedAmount == nil || t.Threshold == nil {
			return fmt.Errorf("%w: accumulated_amount and threshold are required for threshold tasks", ErrMalformedTask)
		}
	case "":
		return fmt.Errorf("%w: type is required", ErrMalformedTask)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedTask, t.Type)
	}
	return nil
}

// ParseNotificationTask decodes a task body delivered by the queue backend.
// The body may be raw JSON or base64-encoded JSON; anything else, or a body
// that fails Validate, is reported as ErrMalformedTask.
func ParseNotificationTask(body []byte) (*NotificationTask, error) {
	var task NotificationTask
	if err := json.Unmarshal(body, &task); err != nil {
		decoded, b64Err := base64.StdEncoding.DecodeString(string(body))
		if b64Err != nil {
			return nil, fmt.Errorf("%w: body is neither JSON nor base64 JSON", ErrMalformedTask)
		}
		if err := json.Unmarshal(decoded, &task); err != nil {
			return nil, fmt.Errorf("%w: decoded body is not valid JSON", ErrMalformedTask)
		}
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return &task, nil
}
