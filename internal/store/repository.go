/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract
 * for all data access operations required by the commission-service. The
 * interface decouples the accrual logic from the PostgreSQL implementation so
 * that the service layer and the queue worker can be tested against stubs.
 *
 * @dependencies
 * - context: Standard Go library.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/salespulse/commission-service/internal/domain"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrSaleNotFound = errors.New("sale not found")
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// FindUserByID loads the commission slice of a user, including the
	// Telegram delivery configuration used by the notification sender.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// ProcessSaleAtomic runs the accrue-and-decide operation as a single
	// transaction: it reads the user's commission state under a row lock,
	// applies the decision function, writes the resulting accumulated total
	// back, and inserts the sale record with NotificationSent mirroring the
	// decision, all-or-nothing. Concurrent calls for the same user
	// serialize on the row lock; different users do not block each other.
	// Returns ErrUserNotFound (and writes nothing) when the user row does
	// not exist.
	ProcessSaleAtomic(ctx context.Context, userID string, sale *domain.Sale, decide AccrualDecisionFunc) (*domain.AccrualDecision, error)

	// FindSaleByID loads a persisted sale record.
	FindSaleByID(ctx context.Context, saleID string) (*domain.Sale, error)
}

// AccrualDecisionFunc computes the accrual outcome from the state read inside
// the transaction. It must be pure: the store may invoke it again when the
// transaction is retried after a serialization conflict.
type AccrualDecisionFunc func(state domain.CommissionState) domain.AccrualDecision
