/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains the SQL for the commission ledger: the user row
 * carrying the accumulated-commission counter and notification policy, and
 * the append-only sales table written in the same transaction.
 *
 * @dependencies
 * - context, encoding/json, errors, fmt, log, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/salespulse/commission-service/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db         *pgxpool.Pool
	maxRetries int
}

// NewPostgresRepository creates a new instance of PostgresRepository.
// maxRetries bounds the transparent retry loop for transaction conflicts;
// values below 1 are clamped to 1 attempt.
func NewPostgresRepository(db *pgxpool.Pool, maxRetries int) *PostgresRepository {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &PostgresRepository{db: db, maxRetries: maxRetries}
}

// FindUserByID retrieves the commission slice of a user row.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	query := `
		SELECT id, accumulated_commission, notification_policy, commission_threshold,
		       COALESCE(telegram_bot_token, ''), COALESCE(telegram_chat_id, ''),
		       telegram_configured, updated_at
		FROM users
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.AccumulatedCommission,
		&user.PolicyType,
		&user.CommissionThreshold,
		&user.Telegram.BotToken,
		&user.Telegram.ChatID,
		&user.Telegram.IsConfigured,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ProcessSaleAtomic performs the accrue-and-decide operation in one database
// transaction. The user row is locked with FOR UPDATE so concurrent calls for
// the same user serialize; rows for other users stay untouched. Serialization
// conflicts and deadlocks are retried transparently up to the configured
// bound, re-reading state and re-running the decision each attempt.
func (r *PostgresRepository) ProcessSaleAtomic(ctx context.Context, userID string, sale *domain.Sale, decide AccrualDecisionFunc) (*domain.AccrualDecision, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		decision, err := r.processSaleOnce(ctx, userID, sale, decide)
		if err == nil {
			return decision, nil
		}
		if !isRetryableTxError(err) {
			return nil, err
		}
		lastErr = err
		log.Printf("level=warn component=store msg=\"sale transaction conflict; retrying\" user_id=%s attempt=%d err=%v", userID, attempt, err)
	}
	return nil, fmt.Errorf("sale transaction failed after %d attempts: %w", r.maxRetries, lastErr)
}

func (r *PostgresRepository) processSaleOnce(ctx context.Context, userID string, sale *domain.Sale, decide AccrualDecisionFunc) (*domain.AccrualDecision, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// 1. Read and lock the user's commission state.
	var state domain.CommissionState
	query := `
		SELECT accumulated_commission, notification_policy, commission_threshold
		FROM users
		WHERE id = $1
		FOR UPDATE
	`
	err = tx.QueryRow(ctx, query, userID).Scan(&state.Accumulated, &state.PolicyType, &state.Threshold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock user commission state: %w", err)
	}

	// 2. Apply the accrual decision.
	decision := decide(state)

	// 3. Write the new accumulated total back.
	updateQuery := `
		UPDATE users
		SET accumulated_commission = $2, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, updateQuery, userID, decision.FinalAccumulated); err != nil {
		return nil, fmt.Errorf("failed to update accumulated commission: %w", err)
	}

	// 4. Insert the sale record in the same transaction. The stored
	// commission is exactly the value the caller passed in, never
	// recomputed.
	rawPayload, err := json.Marshal(sale.RawPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode raw payload: %w", err)
	}

	insertQuery := `
		INSERT INTO sales (
			id, user_id, order_id, product_name, amount, currency,
			status, commission, raw_payload, notification_sent, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING created_at
	`
	var createdAt time.Time
	err = tx.QueryRow(ctx, insertQuery,
		sale.ID,
		sale.UserID,
		sale.OrderID,
		sale.ProductName,
		sale.Amount,
		sale.Currency,
		sale.Status,
		sale.Commission,
		rawPayload,
		decision.ShouldNotify,
	).Scan(&createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sale record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale transaction: %w", err)
	}

	sale.NotificationSent = decision.ShouldNotify
	sale.CreatedAt = createdAt
	return &decision, nil
}

// FindSaleByID loads a persisted sale record.
func (r *PostgresRepository) FindSaleByID(ctx context.Context, saleID string) (*domain.Sale, error) {
	var (
		sale       domain.Sale
		rawPayload []byte
	)
	query := `
		SELECT id, user_id, order_id, product_name, amount, currency,
		       status, commission, raw_payload, notification_sent, created_at
		FROM sales
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, saleID).Scan(
		&sale.ID,
		&sale.UserID,
		&sale.OrderID,
		&sale.ProductName,
		&sale.Amount,
		&sale.Currency,
		&sale.Status,
		&sale.Commission,
		&rawPayload,
		&sale.NotificationSent,
		&sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	if len(rawPayload) > 0 {
		if err := json.Unmarshal(rawPayload, &sale.RawPayload); err != nil {
			return nil, fmt.Errorf("failed to decode raw payload: %w", err)
		}
	}
	return &sale, nil
}

// isRetryableTxError reports whether the error is a transaction conflict the
// caller may retry: serialization failure (40001) or deadlock (40P01).
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
