/**
 * @description
 * This file contains the core business logic for the commission-service. The
 * `Service` struct owns the accrual ledger use case: validating sale input,
 * running the atomic accrue-and-decide transaction through the repository,
 * and shaping the result the webhook orchestrator uses to enqueue
 * notifications.
 *
 * Key features:
 * - Fail-fast input validation before any transaction is opened.
 * - The policy branch itself is the pure domain.DecideAccrual state machine,
 *   executed inside the store transaction.
 * - The sale record is created in the same transaction as the counter
 *   update, with the commission stored exactly as passed in.
 *
 * @dependencies
 * - context, errors, fmt, log, strings: Standard Go libraries.
 * - github.com/google/uuid: For sale id generation.
 * - github.com/shopspring/decimal: Exact commission arithmetic.
 * - internal/domain, internal/store: For domain models and data access.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/salespulse/commission-service/internal/domain"
	"github.com/salespulse/commission-service/internal/store"
	"github.com/shopspring/decimal"
)

// ErrValidation marks caller-supplied input the service rejects before
// touching the store. Not retryable.
var ErrValidation = errors.New("validation failed")

// Service provides the core business logic for commission accrual.
type Service struct {
	repo store.Repository
}

// NewService creates a new commission service instance.
func NewService(repo store.Repository) *Service {
	return &Service{repo: repo}
}

// ProcessSale persists one sale and accrues its commission against the
// user's running total as a single atomic operation.
//
// A fresh sale id is generated per invocation; a redelivered webhook with the
// same order id therefore produces a second sale record and a second accrual.
// Returns ErrValidation on malformed input, store.ErrUserNotFound when the
// user row does not exist (nothing is written), and the store's transient
// errors when the transaction cannot commit within the retry bound.
func (s *Service) ProcessSale(ctx context.Context, userID string, data domain.CreateSaleData, commission decimal.Decimal) (*domain.ProcessResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if commission.IsNegative() {
		return nil, fmt.Errorf("%w: commission cannot be negative", ErrValidation)
	}

	status := data.Status
	if status == "" {
		status = domain.SaleStatusCompleted
	}

	sale := &domain.Sale{
		ID:          uuid.NewString(),
		UserID:      userID,
		OrderID:     data.OrderID,
		ProductName: data.ProductName,
		Amount:      data.Amount,
		Currency:    data.Currency,
		Status:      status,
		Commission:  commission,
		RawPayload:  data.RawPayload,
	}

	decision, err := s.repo.ProcessSaleAtomic(ctx, userID, sale, func(state domain.CommissionState) domain.AccrualDecision {
		return domain.DecideAccrual(state, commission)
	})
	if err != nil {
		return nil, err
	}

	if decision.ShouldNotify {
		log.Printf("level=info component=ledger msg=\"commission threshold crossed\" user_id=%s accumulated=%s threshold=%s carried=%s",
			userID,
			decision.NotificationData.AccumulatedAmount.String(),
			decision.NotificationData.Threshold.String(),
			decision.FinalAccumulated.String(),
		)
	}
	log.Printf("level=info component=ledger msg=\"sale processed\" user_id=%s sale_id=%s order_id=%s commission=%s accumulated=%s should_notify=%t",
		userID, sale.ID, sale.OrderID, commission.String(), decision.FinalAccumulated.String(), decision.ShouldNotify)

	return &domain.ProcessResult{
		ShouldNotify:     decision.ShouldNotify,
		NewAccumulated:   decision.FinalAccumulated,
		NotificationType: decision.NotificationType,
		NotificationData: decision.NotificationData,
		Sale:             sale,
	}, nil
}
