// Package postgres provides PostgreSQL implementations of the domain repositories.
// Payments are the authoritative record of each transaction attempt, so every
// state change here is expressed as a single conditional statement rather than
// a read-modify-write sequence.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/skillpay-payments/internal/domain/payment"
	"github.com/skillpay-payments/internal/platform/persistence"
)

const uniqueViolationCode = "23505"

const paymentColumns = `
	id, owner_id, amount, currency, status, provider, provider_reference,
	provider_transaction_id, provider_response, metadata, side_effects_executed,
	created_at, updated_at
`

// PaymentRepository implements the payment.Repository interface for PostgreSQL
type PaymentRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewPaymentRepository(logger *slog.Logger, db *persistence.PostgresDB) payment.Repository {
	return &PaymentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create stores a new payment record. A unique constraint on the provider
// reference turns duplicate initiations into ErrDuplicateReference.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal payment metadata: %w", err)
	}

	_, err = r.querier.Exec(ctx, query,
		p.ID,
		p.OwnerID,
		p.Amount,
		p.Currency,
		string(p.Status),
		p.Provider,
		p.ProviderReference,
		p.ProviderTransactionID,
		[]byte(p.ProviderResponse),
		metadata,
		p.SideEffectsExecuted,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return payment.ErrDuplicateReference{Reference: p.ProviderReference}
		}
		r.logger.Error("Failed to create payment", "reference", p.ProviderReference, "error", err)
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByReference retrieves a payment by its provider reference
func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE provider_reference = $1
	`

	p, err := scanPayment(r.querier.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound{Reference: reference}
		}
		r.logger.Error("Failed to get payment", "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return p, nil
}

// ApplyOutcome conditionally moves a payment to the observed status. The WHERE
// clause refuses the update once the stored status is terminal, which is what
// makes late or duplicated observations harmless; the provider transaction id
// is written only if it has never been set. When the guard rejects the update
// the current record is fetched and returned unchanged.
func (r *PaymentRepository) ApplyOutcome(ctx context.Context, reference string, status payment.Status, providerTxnID string, rawObservation []byte) (*payment.Payment, error) {
	query := `
		UPDATE payments
		SET status = $2,
		    provider_transaction_id = CASE WHEN provider_transaction_id = '' THEN $3 ELSE provider_transaction_id END,
		    provider_response = $4,
		    updated_at = NOW()
		WHERE provider_reference = $1
		  AND status NOT IN ('completed', 'failed')
		RETURNING ` + paymentColumns + `
	`

	p, err := scanPayment(r.querier.QueryRow(ctx, query, reference, string(status), providerTxnID, rawObservation))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the reference is unknown or the record is already
			// terminal; GetByReference distinguishes the two.
			return r.GetByReference(ctx, reference)
		}
		r.logger.Error("Failed to apply payment outcome", "reference", reference, "status", status, "error", err)
		return nil, fmt.Errorf("failed to apply payment outcome: %w", err)
	}

	return p, nil
}

// MarkSideEffectsExecuted atomically claims the right to run the completion
// side effects. Exactly one caller per payment sees true; everyone else races
// against an already-set flag and gets false.
func (r *PaymentRepository) MarkSideEffectsExecuted(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE payments
		SET side_effects_executed = TRUE, updated_at = NOW()
		WHERE id = $1 AND side_effects_executed = FALSE
	`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to mark side effects executed", "id", id.String(), "error", err)
		return false, fmt.Errorf("failed to mark side effects executed: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// ListStalePending returns pending payments created before the cutoff, oldest
// first, for the reconciliation sweeper.
func (r *PaymentRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*payment.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, olderThan, limit)
	if err != nil {
		r.logger.Error("Failed to list stale pending payments", "error", err)
		return nil, fmt.Errorf("failed to list stale pending payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending payments: %w", err)
	}

	return payments, nil
}

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var (
		p        payment.Payment
		status   string
		response []byte
		metadata []byte
	)

	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Amount,
		&p.Currency,
		&status,
		&p.Provider,
		&p.ProviderReference,
		&p.ProviderTransactionID,
		&response,
		&metadata,
		&p.SideEffectsExecuted,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = payment.Status(status)
	p.ProviderResponse = json.RawMessage(response)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payment metadata: %w", err)
		}
	}

	return &p, nil
}
