package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/skillpay-payments/internal/domain/entitlement"
	"github.com/skillpay-payments/internal/platform/persistence"
)

// EntitlementRepository implements the entitlement.Repository interface for PostgreSQL
type EntitlementRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewEntitlementRepository creates a new PostgreSQL entitlement repository
func NewEntitlementRepository(logger *slog.Logger, db *persistence.PostgresDB) entitlement.Repository {
	return &EntitlementRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Activate inserts the entitlement unless one already exists for the payment.
// ON CONFLICT DO NOTHING plus the unique index on payment_id is what lets the
// event consumer replay a delivery without granting twice.
func (r *EntitlementRepository) Activate(ctx context.Context, e *entitlement.Entitlement) (bool, error) {
	query := `
		INSERT INTO entitlements (id, owner_id, plan_id, payment_id, activated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (payment_id) DO NOTHING
	`

	result, err := r.querier.Exec(ctx, query,
		e.ID,
		e.OwnerID,
		e.PlanID,
		e.PaymentID,
		e.ActivatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to activate entitlement", "paymentID", e.PaymentID.String(), "error", err)
		return false, fmt.Errorf("failed to activate entitlement: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// GetByPaymentID retrieves the entitlement activated by a payment
func (r *EntitlementRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*entitlement.Entitlement, error) {
	query := `
		SELECT id, owner_id, plan_id, payment_id, activated_at
		FROM entitlements
		WHERE payment_id = $1
	`

	var e entitlement.Entitlement
	err := r.querier.QueryRow(ctx, query, paymentID).Scan(
		&e.ID,
		&e.OwnerID,
		&e.PlanID,
		&e.PaymentID,
		&e.ActivatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entitlement.ErrEntitlementNotFound{PaymentID: paymentID}
		}
		r.logger.Error("Failed to get entitlement", "paymentID", paymentID.String(), "error", err)
		return nil, fmt.Errorf("failed to get entitlement: %w", err)
	}

	return &e, nil
}
